// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0
package ingest

import (
	"testing"

	"github.com/metarouter-io/analytics-go/pkg/event"
	"github.com/stretchr/testify/assert"
)

func TestNewAppliesCapacityFloor(t *testing.T) {
	c := New(50) // 50/2=25, below MinCapacity
	assert.Equal(t, MinCapacity, cap(c.ch))
}

func TestNewHonoursLargerCapacity(t *testing.T) {
	c := New(2000)
	assert.Equal(t, 1000, cap(c.ch))
}

func TestOfferAdmitsUntilFull(t *testing.T) {
	c := &Channel{ch: make(chan event.BaseEvent, 2)}
	assert.True(t, c.Offer(event.BaseEvent{Type: event.Track}))
	assert.True(t, c.Offer(event.BaseEvent{Type: event.Track}))
	assert.False(t, c.Offer(event.BaseEvent{Type: event.Track}))
}

func TestOfferNeverBlocksOnFullChannel(t *testing.T) {
	c := &Channel{ch: make(chan event.BaseEvent, 1)}
	c.Offer(event.BaseEvent{Type: event.Track})

	done := make(chan struct{})
	go func() {
		c.Offer(event.BaseEvent{Type: event.Identify})
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done // the goroutine must have returned already; this just drains it
}

func TestReceiveDeliversInSendOrder(t *testing.T) {
	c := &Channel{ch: make(chan event.BaseEvent, 3)}
	c.Offer(event.BaseEvent{Type: event.Track, Event: "e1"})
	c.Offer(event.BaseEvent{Type: event.Track, Event: "e2"})
	c.Offer(event.BaseEvent{Type: event.Track, Event: "e3"})

	received := <-c.Receive()
	assert.Equal(t, "e1", received.Event)
	received = <-c.Receive()
	assert.Equal(t, "e2", received.Event)
	received = <-c.Receive()
	assert.Equal(t, "e3", received.Event)
}

func TestCloseClosesChannel(t *testing.T) {
	c := &Channel{ch: make(chan event.BaseEvent, 1)}
	c.Close()
	_, ok := <-c.Receive()
	assert.False(t, ok)
}
