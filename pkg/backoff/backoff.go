// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package backoff provides the exponential-backoff-with-jitter calculation
// used by the circuit breaker to compute cooldown windows. Adapted from the
// agent's pkg/backend/backoff: same Min/Max/Factor shape, but DurationForAttempt
// applies jitter symmetrically around the computed base (+/- jitterRatio*base)
// rather than uniformly between min and the computed value, so the
// breaker's cooldown stays centred on the step a given failure count
// warrants.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes a capped exponential delay for a given attempt number,
// with optional symmetric jitter.
type Backoff struct {
	// Min and Max bound the computed duration.
	Min, Max time.Duration
	// Factor multiplies the duration for each attempt.
	Factor float64
	// JitterRatio is the +/- fraction of the base duration to randomize by.
	// Zero disables jitter.
	JitterRatio float64
	// RandFunc returns a float64 in [0,1); overridable by tests for
	// deterministic jitter. Defaults to math/rand.Float64 if nil.
	RandFunc func() float64
}

const maxInt64AsFloat = float64(math.MaxInt64 - 512)

// DurationForAttempt returns the delay for the given zero-based attempt
// number: base = min(Max, Min*Factor^attempt), then +/- JitterRatio*base
// applied uniformly at random, floored at 0. The cap applies to base only,
// so a jittered delay may exceed Max by up to JitterRatio*Max.
func (b *Backoff) DurationForAttempt(attempt int) time.Duration {
	min := b.Min
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	max := b.Max
	if max <= 0 {
		max = 10 * time.Second
	}
	factor := b.Factor
	if factor <= 0 {
		factor = 2
	}

	basef := float64(min) * math.Pow(factor, float64(attempt))
	if basef > maxInt64AsFloat {
		basef = float64(max)
	}
	base := time.Duration(basef)
	if base > max {
		base = max
	}

	if b.JitterRatio <= 0 {
		return base
	}

	jitter := float64(base) * b.JitterRatio
	r := b.rand()
	delta := (r*2 - 1) * jitter // uniform in [-jitter, +jitter]
	delay := float64(base) + delta
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func (b *Backoff) rand() float64 {
	if b.RandFunc != nil {
		return b.RandFunc()
	}
	return rand.Float64()
}
