// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ingest is the bounded, non-blocking handoff between arbitrary
// producer goroutines and the single enrichment consumer. It exists to keep
// the producer-side call O(1) and never block the caller, at the cost of
// dropping events when the consumer falls behind.
package ingest

import (
	"github.com/metarouter-io/analytics-go/pkg/event"
	"github.com/metarouter-io/analytics-go/pkg/log"
)

var ilog = log.WithComponent("IngestChannel")

// MinCapacity is the floor applied to the configured capacity.
const MinCapacity = 100

// Channel is a bounded FIFO of event.BaseEvent with a non-blocking producer
// side. Only the owner should call Close.
type Channel struct {
	ch chan event.BaseEvent
}

// New returns a Channel sized max(MinCapacity, maxQueueEvents/2).
func New(maxQueueEvents int) *Channel {
	capacity := maxQueueEvents / 2
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Channel{ch: make(chan event.BaseEvent, capacity)}
}

// Offer attempts a non-blocking send. It returns false, logging a warning,
// if the channel is full; the caller never blocks either way.
func (c *Channel) Offer(be event.BaseEvent) bool {
	select {
	case c.ch <- be:
		return true
	default:
		ilog.WithField("type", string(be.Type)).Warn("ingest channel full, dropping event")
		return false
	}
}

// Receive exposes the consumer side to the enricher.
func (c *Channel) Receive() <-chan event.BaseEvent {
	return c.ch
}

// Close closes the channel. Only the owner (the root client, during
// shutdown) may call this.
func (c *Channel) Close() {
	close(c.ch)
}
