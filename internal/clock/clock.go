// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the default wall/monotonic clock used to stamp
// events and drive the circuit breaker's cooldown deadlines.
package clock

import "time"

// System is the default Clock: Now returns UTC wall-clock time for
// timestamps and sentAt; Monotonic returns time.Now(), which on every
// supported Go runtime carries a monotonic reading usable for duration
// comparisons even though it's also a wall-clock value.
type System struct{}

// Now returns the current UTC wall-clock time.
func (System) Now() time.Time { return time.Now().UTC() }

// Monotonic returns a time.Time suitable for deadline/duration arithmetic.
func (System) Monotonic() time.Time { return time.Now() }
