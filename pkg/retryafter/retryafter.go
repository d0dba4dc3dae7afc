// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package retryafter parses the HTTP Retry-After response header into a
// wait duration, accepting either a number of seconds or an HTTP-date in
// any of the three formats RFC 7231 permits.
package retryafter

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const headerName = "Retry-After"

// dateLayouts are tried in order: RFC 7231 (preferred), RFC 850, and the
// ANSI C asctime format, matching the grammar RFC 7231 §7.1.1.1 allows for
// HTTP-date.
var dateLayouts = []string{
	time.RFC1123,                     // "Mon, 02 Jan 2006 15:04:05 MST" (RFC 7231 shape)
	"Monday, 02-Jan-06 15:04:05 MST", // RFC 850
	time.ANSIC,                       // "Mon Jan _2 15:04:05 2006"
}

// Parse reads Retry-After from headers (case-insensitive, as http.Header
// already folds) and returns the wait duration relative to now. The second
// return value is false when the header is absent or unparseable.
func Parse(headers http.Header, now time.Time) (time.Duration, bool) {
	if headers == nil {
		return 0, false
	}
	raw := strings.TrimSpace(headers.Get(headerName))
	if raw == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d := t.Sub(now)
			if d < 0 {
				d = 0
			}
			return d, true
		}
	}

	return 0, false
}
