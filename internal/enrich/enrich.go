// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package enrich implements the single-consumer enrichment stage: for every
// BaseEvent read off the ingest channel, it attaches identity, environmental
// context, a message ID, and a timestamp, then enqueues the result into the
// event queue. Per-event failures are logged and dropped; the loop itself
// never exits on one.
package enrich

import (
	"context"
	"time"

	"github.com/metarouter-io/analytics-go/pkg/event"
	"github.com/metarouter-io/analytics-go/pkg/log"
)

var elog = log.WithComponent("Enricher")

// timestampLayout matches spec §3: yyyy-MM-ddTHH:mm:ss.SSSZ.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// IdentityStore is read by the enricher for every event; implementations
// must be safe for concurrent use since reads may race producer calls.
type IdentityStore interface {
	AnonymousID() string
	UserID() (string, bool)
	GroupID() (string, bool)
	AdvertisingID() (string, bool)
}

// ContextProvider supplies the environmental metadata snapshot attached to
// every EnrichedEvent, keyed on advertising ID.
type ContextProvider interface {
	Snapshot(advertisingID string) event.Context
}

// MessageIDGenerator produces a unique ID per event.
type MessageIDGenerator interface {
	New() string
}

// Clock supplies wall-clock time for timestamp generation.
type Clock interface {
	Now() time.Time
}

// Sink is the destination for enriched events — the dispatcher, which owns
// the event queue and the auto-flush threshold check (spec §4.4.2).
type Sink interface {
	Offer(e event.EnrichedEvent)
}

// Enricher consumes BaseEvents from the ingest channel, enriches them, and
// hands the result to Sink. Exactly one goroutine should call Run.
type Enricher struct {
	Identity  IdentityStore
	Context   ContextProvider
	MessageID MessageIDGenerator
	Clock     Clock
	WriteKey  string
	Sink      Sink
}

// Run is the single consumer loop. It returns when ctx is cancelled or in
// is closed.
func (e *Enricher) Run(ctx context.Context, in <-chan event.BaseEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case be, ok := <-in:
			if !ok {
				return
			}
			enriched, ok := e.enrichRecover(be)
			if !ok {
				continue
			}
			e.Sink.Offer(enriched)
		}
	}
}

// enrichRecover isolates a failing collaborator (identity/context read) from
// the loop: a panic is caught, logged, and the event is dropped rather than
// taking down the enricher goroutine.
func (e *Enricher) enrichRecover(be event.BaseEvent) (enriched event.EnrichedEvent, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			elog.WithField("type", string(be.Type)).WithField("panic", r).Error("dropping event after enrichment failure")
			ok = false
		}
	}()
	enriched = e.enrich(be)
	return enriched, true
}

func (e *Enricher) enrich(be event.BaseEvent) event.EnrichedEvent {
	anonymousID := e.Identity.AnonymousID()

	var userID, groupID *string
	if id, ok := e.Identity.UserID(); ok {
		userID = &id
	}
	if id, ok := e.Identity.GroupID(); ok {
		groupID = &id
	}

	advertisingID, _ := e.Identity.AdvertisingID()
	snapshot := e.Context.Snapshot(advertisingID)

	timestamp := be.Timestamp
	if timestamp == "" {
		timestamp = e.Clock.Now().UTC().Format(timestampLayout)
	}

	return event.EnrichedEvent{
		Type:        be.Type,
		Event:       be.Event,
		Properties:  be.Properties,
		Traits:      be.Traits,
		AnonymousID: anonymousID,
		UserID:      userID,
		GroupID:     groupID,
		Timestamp:   timestamp,
		Context:     snapshot,
		MessageID:   e.MessageID.New(),
		WriteKey:    e.WriteKey,
	}
}
