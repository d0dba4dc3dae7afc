// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package analytics wires the ingest channel, enricher, event queue,
// dispatcher, and circuit breaker into a single usable client. This is the
// minimal public seam needed for the pipeline to be a standalone library;
// the per-method surface (Track/Identify/...), persistent identity storage,
// and environmental context collection are left to the host application.
package analytics

import (
	"context"
	"time"

	"github.com/metarouter-io/analytics-go/internal/breaker"
	"github.com/metarouter-io/analytics-go/internal/clock"
	"github.com/metarouter-io/analytics-go/internal/ctxsnapshot"
	"github.com/metarouter-io/analytics-go/internal/dispatcher"
	"github.com/metarouter-io/analytics-go/internal/enrich"
	"github.com/metarouter-io/analytics-go/internal/identity"
	"github.com/metarouter-io/analytics-go/internal/ingest"
	"github.com/metarouter-io/analytics-go/internal/messageid"
	"github.com/metarouter-io/analytics-go/internal/queue"
	"github.com/metarouter-io/analytics-go/pkg/config"
	"github.com/metarouter-io/analytics-go/pkg/event"
	"github.com/metarouter-io/analytics-go/pkg/log"
	"github.com/metarouter-io/analytics-go/pkg/transport"
)

var clientLog = log.WithComponent("Client")

// IdentityStore is the identity collaborator the enricher reads from. The
// default, internal/identity.Store, satisfies this structurally.
type IdentityStore interface {
	AnonymousID() string
	UserID() (string, bool)
	GroupID() (string, bool)
	AdvertisingID() (string, bool)
}

// ContextProvider supplies the environmental metadata snapshot attached to
// every event.
type ContextProvider interface {
	Snapshot(advertisingID string) event.Context
}

// MessageIDGenerator produces the per-event message ID.
type MessageIDGenerator interface {
	New() string
}

// Clock supplies time to the pipeline: Now for wall-clock timestamps/sentAt,
// Monotonic for breaker/timer deadlines.
type Clock interface {
	Now() time.Time
	Monotonic() time.Time
}

// Client owns the wired pipeline: ingest channel -> enricher -> event queue
// -> dispatcher -> HTTP, guarded by a circuit breaker.
type Client struct {
	opts       config.Options
	ingestCh   *ingest.Channel
	enricher   *enrich.Enricher
	queue      *queue.Queue
	dispatcher *dispatcher.Dispatcher

	cancel context.CancelFunc
}

// New validates opts, wires every stage with the default collaborators
// (a fresh in-memory identity.Store, a static ctxsnapshot.Provider, a
// time/uuid-based message ID generator, and the system clock), and starts
// the pipeline. The returned Client is ready to accept Enqueue calls
// immediately.
func New(opts config.Options) (*Client, error) {
	return newClient(opts, identity.New(), ctxsnapshot.New(event.Context{}), &messageid.Generator{}, clock.System{}, nil)
}

// NewWithCollaborators is New, but lets a host substitute its own identity
// store, context provider, message ID generator, clock, and/or HTTP
// transport — e.g. a persistent identity store across process restarts, or
// a fake transport under test. A nil httpClient falls back to the default
// transport.Client.
func NewWithCollaborators(opts config.Options, ids IdentityStore, ctxProvider ContextProvider, msgID MessageIDGenerator, clk Clock, httpClient transport.Client) (*Client, error) {
	return newClient(opts, ids, ctxProvider, msgID, clk, httpClient)
}

func newClient(opts config.Options, ids IdentityStore, ctxProvider ContextProvider, msgID MessageIDGenerator, clk Clock, httpClient transport.Client) (*Client, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log.SetLevelByName(opts.LogLevel)

	q := queue.New(opts.MaxQueueEvents)
	br := breaker.New(breaker.DefaultConfig(), clk.Monotonic)
	if httpClient == nil {
		httpClient = transport.NewClient(transport.NewRoundTripper(10*time.Second, nil, nil))
	}

	d := dispatcher.New(dispatcher.Config{
		Host:                opts.IngestionHost,
		EndpointPath:        opts.EndpointPath,
		FlushInterval:       time.Duration(opts.FlushIntervalSeconds) * time.Second,
		AutoFlushThreshold:  opts.AutoFlushThreshold,
		InitialMaxBatchSize: opts.InitialMaxBatchSize,
		HTTPTimeout:         time.Duration(opts.HTTPTimeoutMs) * time.Millisecond,
		UserAgent:           opts.UserAgent,
	}, q, br, httpClient, clk.Now)

	in := ingest.New(opts.MaxQueueEvents)
	e := &enrich.Enricher{
		Identity:  ids,
		Context:   ctxProvider,
		MessageID: msgID,
		Clock:     clk,
		WriteKey:  opts.WriteKey,
		Sink:      d,
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:       opts,
		ingestCh:   in,
		enricher:   e,
		queue:      q,
		dispatcher: d,
		cancel:     cancel,
	}

	go e.Run(ctx, in.Receive())
	d.Start()

	clientLog.WithField("ingestionHost", opts.IngestionHost).Info("analytics client started")
	return c, nil
}

// Enqueue is the fire-and-forget entry point a host's public per-method
// surface (track/identify/group/screen/page/alias) calls after building a
// BaseEvent. It never blocks and never returns an error.
func (c *Client) Enqueue(be event.BaseEvent) {
	c.ingestCh.Offer(be)
}

// SetTracing toggles the Trace: true request header at runtime.
func (c *Client) SetTracing(enabled bool) {
	c.dispatcher.SetTracing(enabled)
}

// OnFatalConfigError registers a callback invoked once per fatal
// (401/403/404) response.
func (c *Client) OnFatalConfigError(cb func(statusCode int)) {
	c.dispatcher.OnFatalConfigError(cb)
}

// DebugInfo returns a snapshot of the pipeline's observable state.
func (c *Client) DebugInfo() dispatcher.DebugInfo {
	return c.dispatcher.DebugInfo()
}

// Flush triggers an out-of-band flush pass; it returns immediately if one
// is already in progress.
func (c *Client) Flush() {
	c.dispatcher.Flush()
}

// Close implements reset() semantics: stops the dispatcher, cancels the
// enricher loop, and clears the queue. The ingest channel is not closed,
// so an Enqueue call after Close never panics on a closed-channel send;
// such events are buffered until the channel is full, then dropped, and
// are never consumed.
func (c *Client) Close() error {
	c.dispatcher.Stop()
	c.cancel()
	c.queue.Clear()
	clientLog.Info("analytics client closed")
	return nil
}
