// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package dispatcher owns the flush loop: draining batches from the event
// queue, stamping sentAt, calling the HTTP client, classifying the
// response, and scheduling retries through the circuit breaker. It is the
// busiest component of the pipeline — periodic ticks, threshold-triggered
// offers, and one-shot retries all funnel through the same non-reentrant
// Flush.
package dispatcher

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/metarouter-io/analytics-go/internal/breaker"
	"github.com/metarouter-io/analytics-go/internal/queue"
	"github.com/metarouter-io/analytics-go/pkg/event"
	"github.com/metarouter-io/analytics-go/pkg/log"
	"github.com/metarouter-io/analytics-go/pkg/retryafter"
	"github.com/metarouter-io/analytics-go/pkg/transport"
	"github.com/tevino/abool"
)

var dlog = log.WithComponent("Dispatcher")

const sentAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Config holds the dispatcher's tunable parameters.
type Config struct {
	Host                string
	EndpointPath        string
	FlushInterval       time.Duration
	AutoFlushThreshold  int
	InitialMaxBatchSize int
	HTTPTimeout         time.Duration
	UserAgent           string
}

// Dispatcher orchestrates batch transmission. It implements enrich.Sink.
type Dispatcher struct {
	cfg     Config
	queue   *queue.Queue
	breaker *breaker.Breaker
	http    transport.Client
	now     func() time.Time

	maxBatchSize   atomic.Int64
	tracingEnabled *abool.AtomicBool
	flushing       *abool.AtomicBool
	halted         *abool.AtomicBool

	mu         sync.Mutex
	periodic   *time.Timer
	retryTimer *time.Timer
	running    bool
	onFatal    func(statusCode int)
}

// New returns a stopped Dispatcher. Call Start to begin the periodic flush
// loop. now supplies wall-clock time for sentAt stamps; it defaults to
// time.Now if nil.
func New(cfg Config, q *queue.Queue, br *breaker.Breaker, httpClient transport.Client, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	d := &Dispatcher{
		cfg:            cfg,
		queue:          q,
		breaker:        br,
		http:           httpClient,
		now:            now,
		tracingEnabled: abool.New(),
		flushing:       abool.New(),
		halted:         abool.New(),
	}
	d.maxBatchSize.Store(int64(cfg.InitialMaxBatchSize))
	return d
}

// Start launches the periodic flush loop and clears any halt left over from
// a prior fatal configuration error or Stop call. Idempotent: a prior
// periodic loop is cancelled before the new one is armed.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopPeriodicLocked()
	d.running = true
	d.halted.UnSet()
	d.armPeriodicLocked()
}

// Stop halts the dispatcher: the periodic loop and any pending scheduled
// retry are cancelled, Flush becomes a no-op, and Offer still enqueues but
// no longer triggers an auto-flush until Start is called again. In-flight
// HTTP calls are not cancelled; they run to completion or timeout.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.halted.Set()
	d.stopPeriodicLocked()
	d.stopRetryLocked()
}

func (d *Dispatcher) armPeriodicLocked() {
	d.periodic = time.AfterFunc(d.cfg.FlushInterval, d.periodicTick)
}

func (d *Dispatcher) periodicTick() {
	d.Flush()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		d.armPeriodicLocked()
	}
}

func (d *Dispatcher) stopPeriodicLocked() {
	if d.periodic != nil {
		d.periodic.Stop()
		d.periodic = nil
	}
}

func (d *Dispatcher) stopRetryLocked() {
	if d.retryTimer != nil {
		d.retryTimer.Stop()
		d.retryTimer = nil
	}
}

// Offer enqueues e and, if the queue has reached the auto-flush threshold,
// schedules an immediate flush on its own goroutine so the caller (the
// enricher's consumer loop) is never blocked on network I/O. The event is
// always enqueued, even while halted, so nothing is silently dropped once
// Start is called again — only the auto-triggered flush is suppressed.
func (d *Dispatcher) Offer(e event.EnrichedEvent) {
	d.queue.Enqueue(e)
	if d.halted.IsSet() {
		return
	}
	if d.queue.Size() >= d.cfg.AutoFlushThreshold {
		go d.Flush()
	}
}

// Flush runs one processUntilEmpty pass. Concurrent callers return
// immediately without waiting; at most one pass executes at a time. A no-op
// while halted (see Stop).
func (d *Dispatcher) Flush() {
	if d.halted.IsSet() {
		return
	}
	if !d.flushing.SetToIf(false, true) {
		return
	}
	defer d.flushing.UnSet()
	d.processUntilEmpty()
}

func (d *Dispatcher) processUntilEmpty() {
	for {
		if d.halted.IsSet() {
			return
		}
		if d.queue.Size() == 0 {
			return
		}

		wait := d.breaker.BeforeRequest()
		if wait > 0 {
			d.scheduleRetry(wait)
			return
		}

		batch := d.queue.Drain(int(d.maxBatchSize.Load()))
		if len(batch) == 0 {
			return
		}

		if !d.sendBatch(batch) {
			return
		}
	}
}

func (d *Dispatcher) sendBatch(batch []event.EnrichedEvent) bool {
	sentAt := d.now().UTC().Format(sentAtLayout)
	stamped := make([]event.EnrichedEvent, len(batch))
	for i, e := range batch {
		stamped[i] = e.WithSentAt(sentAt)
	}

	payload, err := json.Marshal(event.Batch{Events: stamped})
	if err != nil {
		dlog.WithError(err).Error("failed to marshal batch, dropping")
		return true
	}

	headers := http.Header{}
	if d.tracingEnabled.IsSet() {
		headers.Set("Trace", "true")
	}
	if d.cfg.UserAgent != "" {
		headers.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.http.PostJSON(context.Background(), d.url(), payload, d.cfg.HTTPTimeout, headers)
	if err != nil {
		dlog.WithError(err).Warn("transport error sending batch, requeuing")
		d.queue.RequeueFront(batch)
		d.breaker.OnFailure()
		d.scheduleRetry(time.Second)
		return false
	}

	return d.handleResponse(resp, batch)
}

func (d *Dispatcher) handleResponse(resp *transport.Response, batch []event.EnrichedEvent) bool {
	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		d.breaker.OnSuccess()
		return true

	case status >= 500 && status < 600, status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		d.breaker.OnFailure()
		d.queue.RequeueFront(batch)
		wait := d.breaker.BeforeRequest()
		if retryAfter, ok := retryafter.Parse(resp.Header, d.now()); ok && retryAfter > wait {
			wait = retryAfter
		}
		if wait < time.Second {
			wait = time.Second
		}
		dlog.WithField("status", status).WithField("wait", wait).Warn("retryable failure, requeued batch")
		d.scheduleRetry(wait)
		return false

	case status == http.StatusRequestEntityTooLarge:
		d.breaker.OnNonRetryable()
		current := d.maxBatchSize.Load()
		if current > 1 {
			next := current / 2
			if next < 1 {
				next = 1
			}
			d.maxBatchSize.Store(next)
			d.queue.RequeueFront(batch)
			dlog.WithField("maxBatchSize", next).Warn("payload too large, halved batch size")
			d.scheduleRetry(500 * time.Millisecond)
		} else {
			dlog.WithField("batchSize", len(batch)).Warn("dropping oversized batch of 1 after 413")
		}
		return false

	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
		dlog.WithField("status", status).Error("fatal configuration error, halting dispatcher")
		d.queue.Clear()
		d.Stop()
		d.invokeFatal(status)
		return false

	case status >= 400 && status < 500:
		d.breaker.OnNonRetryable()
		dlog.WithField("status", status).Warn("dropping batch after client error")
		return true

	default:
		d.breaker.OnNonRetryable()
		dlog.WithField("status", status).Warn("dropping batch after unexpected status")
		return true
	}
}

func (d *Dispatcher) invokeFatal(status int) {
	d.mu.Lock()
	cb := d.onFatal
	d.mu.Unlock()
	if cb != nil {
		cb(status)
	}
}

// scheduleRetry cancels any prior scheduled retry before arming a new
// one-shot Flush after delay. Only one retry timer is ever armed.
func (d *Dispatcher) scheduleRetry(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopRetryLocked()
	d.retryTimer = time.AfterFunc(delay, d.Flush)
}

func (d *Dispatcher) url() string {
	return d.cfg.Host + d.cfg.EndpointPath
}

// SetTracing toggles the Trace: true request header at runtime.
func (d *Dispatcher) SetTracing(enabled bool) {
	d.tracingEnabled.SetTo(enabled)
}

// OnFatalConfigError registers the callback invoked once per 401/403/404.
func (d *Dispatcher) OnFatalConfigError(cb func(statusCode int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onFatal = cb
}

// DebugInfo snapshots the dispatcher's observable state.
type DebugInfo struct {
	IsRunning           bool
	MaxBatchSize        int
	PendingRetry        bool
	TracingEnabled      bool
	CircuitState        string
	RemainingCooldownMs int64
}

// DebugInfo returns a snapshot for diagnostics/debug tooling.
func (d *Dispatcher) DebugInfo() DebugInfo {
	d.mu.Lock()
	running := d.running
	pendingRetry := d.retryTimer != nil
	d.mu.Unlock()

	return DebugInfo{
		IsRunning:           running,
		MaxBatchSize:        int(d.maxBatchSize.Load()),
		PendingRetry:        pendingRetry,
		TracingEnabled:      d.tracingEnabled.IsSet(),
		CircuitState:        d.breaker.State().String(),
		RemainingCooldownMs: d.breaker.RemainingCooldown().Milliseconds(),
	}
}
