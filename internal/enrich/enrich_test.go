// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0
package enrich

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/metarouter-io/analytics-go/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	anonymousID   string
	userID        *string
	groupID       *string
	advertisingID *string
}

func (f *fakeIdentity) AnonymousID() string { return f.anonymousID }
func (f *fakeIdentity) UserID() (string, bool) {
	if f.userID == nil {
		return "", false
	}
	return *f.userID, true
}
func (f *fakeIdentity) GroupID() (string, bool) {
	if f.groupID == nil {
		return "", false
	}
	return *f.groupID, true
}
func (f *fakeIdentity) AdvertisingID() (string, bool) {
	if f.advertisingID == nil {
		return "", false
	}
	return *f.advertisingID, true
}

type fakeContext struct {
	lastAdvertisingID string
	calls             int
}

func (f *fakeContext) Snapshot(advertisingID string) event.Context {
	f.lastAdvertisingID = advertisingID
	f.calls++
	return event.Context{Locale: "en-US"}
}

type sequentialMessageID struct{ n int }

func (s *sequentialMessageID) New() string {
	s.n++
	return "msg-" + string(rune('0'+s.n))
}

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// fakeSink records every offered event, mirroring the dispatcher's Offer
// without pulling in the dispatcher package.
type fakeSink struct {
	mu     sync.Mutex
	events []event.EnrichedEvent
}

func (s *fakeSink) Offer(e event.EnrichedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *fakeSink) all() []event.EnrichedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.EnrichedEvent(nil), s.events...)
}

func newTestEnricher(sink Sink) (*Enricher, *fakeIdentity, *fakeContext) {
	id := &fakeIdentity{anonymousID: "anon-1"}
	ctxProvider := &fakeContext{}
	e := &Enricher{
		Identity:  id,
		Context:   ctxProvider,
		MessageID: &sequentialMessageID{},
		Clock:     fixedClock{t: time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)},
		WriteKey:  "wk-test",
		Sink:      sink,
	}
	return e, id, ctxProvider
}

func TestEnrichAttachesIdentityAndMetadata(t *testing.T) {
	e, _, _ := newTestEnricher(&fakeSink{})

	enriched := e.enrich(event.BaseEvent{Type: event.Track, Event: "clicked"})

	assert.Equal(t, "anon-1", enriched.AnonymousID)
	assert.Equal(t, "wk-test", enriched.WriteKey)
	assert.NotEmpty(t, enriched.MessageID)
	assert.Equal(t, "en-US", enriched.Context.Locale)
	assert.Nil(t, enriched.UserID)
	assert.Nil(t, enriched.GroupID)
}

func TestEnrichGeneratesTimestampWhenAbsent(t *testing.T) {
	e, _, _ := newTestEnricher(&fakeSink{})

	enriched := e.enrich(event.BaseEvent{Type: event.Track})
	assert.Equal(t, "2026-07-30T12:00:00.000Z", enriched.Timestamp)
}

func TestEnrichPreservesClientSuppliedTimestamp(t *testing.T) {
	e, _, _ := newTestEnricher(&fakeSink{})

	enriched := e.enrich(event.BaseEvent{Type: event.Track, Timestamp: "2020-01-01T00:00:00.000Z"})
	assert.Equal(t, "2020-01-01T00:00:00.000Z", enriched.Timestamp)
}

func TestEnrichPassesAdvertisingIDToContextSnapshot(t *testing.T) {
	e, id, ctxProvider := newTestEnricher(&fakeSink{})
	adid := "adid-99"
	id.advertisingID = &adid

	e.enrich(event.BaseEvent{Type: event.Track})
	assert.Equal(t, "adid-99", ctxProvider.lastAdvertisingID)
}

func TestRunOffersEventsInOrder(t *testing.T) {
	sink := &fakeSink{}
	e, _, _ := newTestEnricher(sink)
	in := make(chan event.BaseEvent, 3)
	in <- event.BaseEvent{Type: event.Track, Event: "e1"}
	in <- event.BaseEvent{Type: event.Track, Event: "e2"}
	in <- event.BaseEvent{Type: event.Track, Event: "e3"}
	close(in)

	e.Run(context.Background(), in)

	offered := sink.all()
	require.Len(t, offered, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, []string{offered[0].Event, offered[1].Event, offered[2].Event})
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	e, _, _ := newTestEnricher(&fakeSink{})
	in := make(chan event.BaseEvent)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		e.Run(ctx, in)
		close(done)
	}()
	cancel()
	<-done
}

func TestRunDropsEventOnPanicAndContinues(t *testing.T) {
	sink := &fakeSink{}
	e, _, _ := newTestEnricher(sink)
	e.Identity = &panicIdentity{}

	in := make(chan event.BaseEvent, 1)
	in <- event.BaseEvent{Type: event.Track, Event: "boom"}
	close(in)

	assert.NotPanics(t, func() { e.Run(context.Background(), in) })
	assert.Empty(t, sink.all())
}

type panicIdentity struct{}

func (panicIdentity) AnonymousID() string          { panic("identity unavailable") }
func (panicIdentity) UserID() (string, bool)        { return "", false }
func (panicIdentity) GroupID() (string, bool)       { return "", false }
func (panicIdentity) AdvertisingID() (string, bool) { return "", false }
