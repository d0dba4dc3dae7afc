// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0
package log

import (
	"github.com/sirupsen/logrus"
)

// WithComponent decorates log context with a component name, e.g.
// "Dispatcher", "Enricher", "CircuitBreaker".
func WithComponent(name string) Entry {
	return func() *logrus.Entry {
		return w.l.WithField("component", name)
	}
}

// WithComponent decorates entry context with a component name.
func (e Entry) WithComponent(name string) Entry {
	return func() *logrus.Entry {
		return e().WithField("component", name)
	}
}
