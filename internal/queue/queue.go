// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package queue implements the bounded, thread-safe FIFO buffer of
// enriched events the dispatcher drains into batches. Capacity overflow on
// Enqueue drops the oldest element; capacity overflow on RequeueFront drops
// from the tail instead, since requeued events represent work already
// accepted and take precedence over newer arrivals.
package queue

import (
	"sync"

	"github.com/metarouter-io/analytics-go/pkg/event"
	"github.com/metarouter-io/analytics-go/pkg/log"
)

var qlog = log.WithComponent("EventQueue")

// Queue is a bounded FIFO of event.EnrichedEvent.
type Queue struct {
	mu       sync.Mutex
	items    []event.EnrichedEvent
	capacity int
}

// New returns a Queue with the given maximum capacity.
func New(capacity int) *Queue {
	return &Queue{
		items:    make([]event.EnrichedEvent, 0, capacity),
		capacity: capacity,
	}
}

// Size returns the current number of queued events.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Enqueue appends e at the tail. If the queue is already at capacity, the
// oldest element is dropped first (logged as overflow).
func (q *Queue) Enqueue(e event.EnrichedEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		dropped := q.items[0]
		q.items = q.items[1:]
		qlog.WithField("messageId", dropped.MessageID).Warn("queue full, dropping oldest event")
	}
	q.items = append(q.items, e)
}

// Drain removes and returns up to n elements from the head, preserving
// order.
func (q *Queue) Drain(n int) []event.EnrichedEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.items) {
		n = len(q.items)
	}
	if n <= 0 {
		return nil
	}

	batch := make([]event.EnrichedEvent, n)
	copy(batch, q.items[:n])
	q.items = q.items[n:]
	return batch
}

// RequeueFront prepends batch to the head, preserving its internal order
// (batch[0] becomes the new head). If this would exceed capacity, elements
// are dropped from the tail (newest) to make room, inverting Enqueue's
// overflow policy: requeued work takes precedence over events admitted
// after the batch was drained.
func (q *Queue) RequeueFront(batch []event.EnrichedEvent) {
	if len(batch) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	merged := make([]event.EnrichedEvent, 0, len(batch)+len(q.items))
	merged = append(merged, batch...)
	merged = append(merged, q.items...)

	if len(merged) > q.capacity {
		dropped := len(merged) - q.capacity
		qlog.WithField("count", dropped).Warn("requeue exceeded capacity, dropping newest events")
		merged = merged[:q.capacity]
	}
	q.items = merged
}

// Clear removes all queued events.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}
