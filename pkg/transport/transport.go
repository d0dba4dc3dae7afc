// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package transport is the HTTP client abstraction consumed by the
// dispatcher: PostJSON returns a Response for any HTTP status the server
// replies with, and only returns an error for connection-level failures
// (DNS, refused, TLS, timeout). Connection retry is disabled here by
// design — the circuit breaker and dispatcher own retry policy.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Response is the raw result of a POST, surfaced for any status code.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client POSTs a JSON body and surfaces the raw response. It returns an
// error only for transport-level failures; HTTP error statuses are
// returned as a normal Response for the caller to classify.
type Client interface {
	PostJSON(ctx context.Context, url string, body []byte, timeout time.Duration, headers http.Header) (*Response, error)
}

// httpClient is the default Client, a thin wrapper around *http.Client
// modeled on the agent's backend/http.GetHttpClient: an explicit
// RoundTripper, no built-in retry.
type httpClient struct {
	client *http.Client
}

// NewClient returns a Client backed by the given RoundTripper. A nil
// RoundTripper falls back to http.DefaultTransport.
func NewClient(rt http.RoundTripper) Client {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &httpClient{client: &http.Client{Transport: rt}}
}

func (c *httpClient) PostJSON(ctx context.Context, url string, body []byte, timeout time.Duration, headers http.Header) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "transport: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "transport: request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "transport: read response body")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
