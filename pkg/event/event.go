// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package event defines the wire model transported between the ingest
// channel, the enricher, the event queue, and the dispatcher: BaseEvent is
// the producer's input, EnrichedEvent is the unit of queueing and
// transmission, and Batch is the outbound payload shape.
package event

import "encoding/json"

// Type is the tagged discriminator of a BaseEvent. Prefer switching on Type
// over type-asserting a class hierarchy.
type Type string

const (
	Track    Type = "track"
	Identify Type = "identify"
	Group    Type = "group"
	Screen   Type = "screen"
	Page     Type = "page"
	Alias    Type = "alias"
)

// BaseEvent is the producer-side input, created on the ingestion path and
// consumed exactly once by the enricher.
type BaseEvent struct {
	Type       Type             `json:"type"`
	Event      string           `json:"event,omitempty"`
	Properties map[string]Value `json:"properties,omitempty"`
	Traits     map[string]Value `json:"traits,omitempty"`
	Timestamp  string           `json:"timestamp,omitempty"`
}

// App describes the host application, part of Context.
type App struct {
	Name      string `json:"name,omitempty"`
	Version   string `json:"version,omitempty"`
	Build     string `json:"build,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// Device describes the host device, part of Context.
type Device struct {
	Manufacturer  string `json:"manufacturer,omitempty"`
	Model         string `json:"model,omitempty"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type,omitempty"`
	AdvertisingID string `json:"advertisingId,omitempty"`
}

// Library identifies this SDK. Required on every Context.
type Library struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Network describes host connectivity, part of Context.
type Network struct {
	Wifi *bool `json:"wifi,omitempty"`
}

// OS describes the host operating system, part of Context.
type OS struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// Screen describes the host display, part of Context.
type Screen struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Density float64 `json:"density"`
}

// Context is the environmental metadata snapshot attached to every
// EnrichedEvent by the enricher.
type Context struct {
	App      *App     `json:"app,omitempty"`
	Device   *Device  `json:"device,omitempty"`
	Library  Library  `json:"library"`
	Locale   string   `json:"locale,omitempty"`
	Network  *Network `json:"network,omitempty"`
	OS       *OS      `json:"os,omitempty"`
	Screen   *Screen  `json:"screen,omitempty"`
	Timezone string   `json:"timezone,omitempty"`
}

// EnrichedEvent is the unit of queueing and transmission. Once enqueued its
// fields are immutable except SentAt, which is assigned exactly once per
// transmission attempt and may be reassigned on requeue/retry.
type EnrichedEvent struct {
	Type        Type             `json:"type"`
	Event       string           `json:"event,omitempty"`
	Properties  map[string]Value `json:"properties,omitempty"`
	Traits      map[string]Value `json:"traits,omitempty"`
	AnonymousID string           `json:"anonymousId"`
	UserID      *string          `json:"userId,omitempty"`
	GroupID     *string          `json:"groupId,omitempty"`
	Timestamp   string           `json:"timestamp"`
	Context     Context          `json:"context"`
	MessageID   string           `json:"messageId"`
	WriteKey    string           `json:"writeKey"`
	SentAt      *string          `json:"sentAt,omitempty"`
}

// Batch is the ordered outbound payload: {"batch": [...]}.
type Batch struct {
	Events []EnrichedEvent
}

// MarshalJSON enforces the wire shape {"batch": [...]}, serializing a nil
// slice as an empty array rather than null.
func (b Batch) MarshalJSON() ([]byte, error) {
	events := b.Events
	if events == nil {
		events = []EnrichedEvent{}
	}
	return json.Marshal(struct {
		Events []EnrichedEvent `json:"batch"`
	}{Events: events})
}

// WithSentAt returns a copy of e with SentAt set, used by the dispatcher to
// stamp every event in a batch with the batch's single send time just
// before serialization.
func (e EnrichedEvent) WithSentAt(sentAt string) EnrichedEvent {
	e.SentAt = &sentAt
	return e
}
