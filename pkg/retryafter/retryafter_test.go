// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0
package retryafter

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAbsent(t *testing.T) {
	_, ok := Parse(http.Header{}, time.Now())
	assert.False(t, ok)
}

func TestParseSeconds(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "5")
	d, ok := Parse(h, time.Now())
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)
}

func TestParseNegativeSecondsClampsToZero(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "-3")
	d, ok := Parse(h, time.Now())
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), d)
}

func TestParseRFC7231Date(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	future := now.Add(10 * time.Second)
	h := http.Header{}
	h.Set("Retry-After", future.Format(time.RFC1123))

	d, ok := Parse(h, now)
	assert.True(t, ok)
	assert.Equal(t, 10*time.Second, d)
}

func TestParseRFC850Date(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	future := now.Add(20 * time.Second)
	h := http.Header{}
	h.Set("Retry-After", future.Format("Monday, 02-Jan-06 15:04:05 MST"))

	d, ok := Parse(h, now)
	assert.True(t, ok)
	assert.Equal(t, 20*time.Second, d)
}

func TestParseANSICDate(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	future := now.Add(30 * time.Second)
	h := http.Header{}
	h.Set("Retry-After", future.Format(time.ANSIC))

	d, ok := Parse(h, now)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)
}

func TestParsePastDateClampsToZero(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	past := now.Add(-10 * time.Second)
	h := http.Header{}
	h.Set("Retry-After", past.Format(time.RFC1123))

	d, ok := Parse(h, now)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), d)
}

func TestParseUnparseable(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "not-a-valid-value")
	_, ok := Parse(h, time.Now())
	assert.False(t, ok)
}
