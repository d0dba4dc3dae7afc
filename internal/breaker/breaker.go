// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package breaker implements the three-state circuit breaker that guards
// the dispatcher's HTTP attempts: Closed (normal), Open (attempts deferred
// until a cooldown deadline), and HalfOpen (a bounded number of concurrent
// probes allowed through). Trip-to-Open computes a jittered exponential
// cooldown; the breaker closes again on the next success and reopens with
// the next backoff step on the next failure.
package breaker

import (
	"sync"
	"time"

	"github.com/metarouter-io/analytics-go/pkg/backoff"
	"github.com/metarouter-io/analytics-go/pkg/log"
)

var blog = log.WithComponent("CircuitBreaker")

// State is one of Closed, Open, HalfOpen.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds the breaker's tunable parameters, with the spec's defaults.
type Config struct {
	FailureThreshold      int
	BaseCooldown          time.Duration
	MaxCooldown           time.Duration
	JitterRatio           float64
	HalfOpenMaxConcurrent int
}

// DefaultConfig returns the spec's default parameters:
// failureThreshold=3, baseCooldownMs=10_000, maxCooldownMs=120_000,
// jitterRatio=0.2, halfOpenMaxConcurrent=1.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:      3,
		BaseCooldown:          10 * time.Second,
		MaxCooldown:           120 * time.Second,
		JitterRatio:           0.2,
		HalfOpenMaxConcurrent: 1,
	}
}

// Breaker is safe for concurrent use; every operation is serialized by an
// internal lock.
type Breaker struct {
	cfg Config
	now func() time.Time

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openCount           int
	openUntil           time.Time
	halfOpenInFlight    int
	bo                  backoff.Backoff
}

// New returns a Breaker in the Closed state. now defaults to time.Now if nil.
func New(cfg Config, now func() time.Time) *Breaker {
	if now == nil {
		now = time.Now
	}
	return &Breaker{
		cfg:   cfg,
		now:   now,
		state: Closed,
		bo: backoff.Backoff{
			Min:         cfg.BaseCooldown,
			Max:         cfg.MaxCooldown,
			Factor:      2,
			JitterRatio: cfg.JitterRatio,
		},
	}
}

// OnSuccess resets the failure count and, if not already Closed, transitions
// back to Closed.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	if b.state != Closed {
		blog.WithField("from", b.state.String()).Info("circuit closing after success")
		b.state = Closed
		b.halfOpenInFlight = 0
	}
}

// OnFailure records a retryable failure. In Closed it trips to Open once
// consecutiveFailures reaches FailureThreshold; in HalfOpen any failure
// trips immediately back to Open.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++

	switch b.state {
	case Closed:
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.tripToOpenLocked()
		}
	case HalfOpen:
		b.tripToOpenLocked()
	}
}

// OnNonRetryable resets the failure count for responses the breaker should
// not treat as evidence of backend failure (e.g. a 4xx client error). The
// backend answered the request, so a probe taken while HalfOpen resolves the
// same way a success would: the circuit closes and halfOpenInFlight is
// released, rather than leaving the probe slot permanently occupied.
func (b *Breaker) OnNonRetryable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	if b.state != Closed {
		blog.WithField("from", b.state.String()).Info("circuit closing after non-retryable response")
		b.state = Closed
		b.halfOpenInFlight = 0
	}
}

// BeforeRequest returns how long the caller must wait before attempting a
// request. A zero duration means proceed immediately.
func (b *Breaker) BeforeRequest() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return 0
	case Open:
		now := b.now()
		if !now.Before(b.openUntil) {
			blog.Info("cooldown elapsed, probing in half-open")
			b.state = HalfOpen
			b.halfOpenInFlight = 0
			return 0
		}
		return b.openUntil.Sub(now)
	case HalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxConcurrent {
			return 200 * time.Millisecond
		}
		b.halfOpenInFlight++
		return 0
	default:
		return 0
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RemainingCooldown returns how long until openUntil, zero if not Open or
// already elapsed.
func (b *Breaker) RemainingCooldown() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return 0
	}
	d := b.openUntil.Sub(b.now())
	if d < 0 {
		d = 0
	}
	return d
}

// tripToOpenLocked must be called with mu held. It computes the next
// cooldown deadline: base = min(maxCooldown, baseCooldown*2^(openCount-1)),
// jitter = base*jitterRatio, delay = base +/- uniform(jitter).
func (b *Breaker) tripToOpenLocked() {
	b.openCount++
	delay := b.bo.DurationForAttempt(b.openCount - 1)

	b.state = Open
	b.openUntil = b.now().Add(delay)
	b.consecutiveFailures = 0
	b.halfOpenInFlight = 0

	blog.WithField("openCount", b.openCount).WithField("delay", delay).Warn("circuit tripped open")
}
