// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package messageid provides the default MessageIDGenerator, producing IDs
// of the form {epoch-ms}-{uuid-v4}.
package messageid

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Generator is the default MessageIDGenerator.
type Generator struct {
	// Now defaults to time.Now if nil; overridable for deterministic tests.
	Now func() time.Time
}

// New returns a message ID unique with overwhelming probability.
func (g *Generator) New() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	epochMs := now().UnixMilli()
	return strconv.FormatInt(epochMs, 10) + "-" + uuid.NewString()
}
