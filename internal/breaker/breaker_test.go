// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0
package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Config) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)}
	return New(cfg, clock.now), clock
}

func TestClosedAllowsImmediately(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig())
	assert.Equal(t, time.Duration(0), b.BeforeRequest())
	assert.Equal(t, Closed, b.State())
}

func TestTripsAfterThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 3
	b, _ := newTestBreaker(cfg)

	b.OnFailure()
	assert.Equal(t, Closed, b.State())
	b.OnFailure()
	assert.Equal(t, Closed, b.State())
	b.OnFailure()
	assert.Equal(t, Open, b.State())
}

func TestOpenDefersUntilCooldown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterRatio = 0
	b, clock := newTestBreaker(cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		b.OnFailure()
	}
	require.Equal(t, Open, b.State())

	wait := b.BeforeRequest()
	assert.Greater(t, wait, time.Duration(0))

	clock.advance(wait)
	assert.Equal(t, time.Duration(0), b.BeforeRequest())
	assert.Equal(t, HalfOpen, b.State())
}

func TestHalfOpenLimitsConcurrentProbes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterRatio = 0
	cfg.HalfOpenMaxConcurrent = 1
	b, clock := newTestBreaker(cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		b.OnFailure()
	}
	clock.advance(b.RemainingCooldown())

	assert.Equal(t, time.Duration(0), b.BeforeRequest()) // transitions Open -> HalfOpen
	assert.Equal(t, HalfOpen, b.State())
	assert.Equal(t, time.Duration(0), b.BeforeRequest())     // first probe admitted
	assert.Equal(t, 200*time.Millisecond, b.BeforeRequest()) // second probe deferred
}

func TestSuccessClosesFromHalfOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterRatio = 0
	b, clock := newTestBreaker(cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		b.OnFailure()
	}
	clock.advance(b.RemainingCooldown())
	b.BeforeRequest() // enters half-open

	b.OnSuccess()
	assert.Equal(t, Closed, b.State())
}

func TestFailureInHalfOpenReopensWithNextBackoffStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterRatio = 0
	b, clock := newTestBreaker(cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		b.OnFailure()
	}
	firstCooldown := b.RemainingCooldown()
	clock.advance(firstCooldown)
	b.BeforeRequest() // half-open

	b.OnFailure()
	assert.Equal(t, Open, b.State())
	secondCooldown := b.RemainingCooldown()
	assert.Greater(t, secondCooldown, firstCooldown)
}

func TestNonRetryableClosesFromHalfOpenAndFreesProbeSlot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterRatio = 0
	cfg.HalfOpenMaxConcurrent = 1
	b, clock := newTestBreaker(cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		b.OnFailure()
	}
	clock.advance(b.RemainingCooldown())
	require.Equal(t, time.Duration(0), b.BeforeRequest()) // enters half-open
	require.Equal(t, time.Duration(0), b.BeforeRequest()) // probe admitted, occupies the only probe slot

	b.OnNonRetryable() // e.g. a 4xx response to the probe
	assert.Equal(t, Closed, b.State())

	// The probe slot must be released too, or BeforeRequest would wrongly
	// defer every subsequent request even though the breaker reports Closed.
	assert.Equal(t, time.Duration(0), b.BeforeRequest())
}

func TestBackoffMonotoneUnderRepeatedTrips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterRatio = 0
	cfg.BaseCooldown = 10 * time.Second
	cfg.MaxCooldown = 120 * time.Second
	b, clock := newTestBreaker(cfg)

	var cooldowns []time.Duration
	for trip := 0; trip < 6; trip++ {
		for i := 0; i < cfg.FailureThreshold; i++ {
			b.OnFailure()
		}
		cooldowns = append(cooldowns, b.RemainingCooldown())
		clock.advance(b.RemainingCooldown())
		b.BeforeRequest() // back to half-open, ready for next round of failures
	}

	expected := []time.Duration{10, 20, 40, 80, 120, 120}
	for i, e := range expected {
		assert.Equal(t, e*time.Second, cooldowns[i])
	}
}

func TestNonRetryableResetsFailuresWithoutStateChange(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig())
	b.OnFailure()
	b.OnFailure()
	b.OnNonRetryable()
	for i := 0; i < 2; i++ {
		b.OnFailure()
	}
	assert.Equal(t, Closed, b.State())
}

func TestOpenCountNeverDecreases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterRatio = 0
	b, clock := newTestBreaker(cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		b.OnFailure()
	}
	assert.Equal(t, 1, b.openCount)

	clock.advance(b.RemainingCooldown())
	b.BeforeRequest()
	b.OnSuccess()
	assert.Equal(t, Closed, b.State())

	for i := 0; i < cfg.FailureThreshold; i++ {
		b.OnFailure()
	}
	assert.Equal(t, 2, b.openCount)
}
