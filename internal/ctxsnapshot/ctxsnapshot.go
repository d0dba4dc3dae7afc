// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ctxsnapshot provides the default ContextProvider: a cache of
// event.Context snapshots keyed on advertising ID. Collecting the
// environmental fields themselves (device model, OS version, screen size,
// locale, timezone, network state) is out of scope for this module — hosts
// populate Provider.Static once at startup from whatever platform APIs they
// have, and this package only owns the memoization and advertising-ID
// stitching the enricher depends on.
package ctxsnapshot

import (
	"sync"

	"github.com/metarouter-io/analytics-go/pkg/event"
)

// libraryVersion is reported in every Context's Library field.
const libraryVersion = "0.1.0"

// Provider is a thread-safe ContextProvider. Static holds the
// platform-supplied fields that don't change per snapshot; Snapshot layers
// the advertising ID on top and caches the result.
type Provider struct {
	mu     sync.RWMutex
	Static event.Context

	cachedAdID string
	cached     event.Context
	hasCached  bool
}

// New returns a Provider seeded with static context. The Library field is
// always overwritten with this module's own name and version.
func New(static event.Context) *Provider {
	static.Library = event.Library{Name: "analytics-go", Version: libraryVersion}
	return &Provider{Static: static}
}

// Snapshot returns the cached Context for advertisingID, building and
// caching it on a cache miss (i.e. the first call, or any call after the
// advertising ID has changed).
func (p *Provider) Snapshot(advertisingID string) event.Context {
	p.mu.RLock()
	if p.hasCached && p.cachedAdID == advertisingID {
		defer p.mu.RUnlock()
		return p.cached
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hasCached && p.cachedAdID == advertisingID {
		return p.cached
	}

	snap := p.Static
	if advertisingID != "" {
		device := event.Device{}
		if p.Static.Device != nil {
			device = *p.Static.Device
		}
		device.AdvertisingID = advertisingID
		snap.Device = &device
	}

	p.cached = snap
	p.cachedAdID = advertisingID
	p.hasCached = true
	return snap
}

// Invalidate clears the cached snapshot, forcing the next Snapshot call to
// rebuild it. Callers should invoke this when Static changes.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasCached = false
}
