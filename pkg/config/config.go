// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates Options: a plain struct populated from
// an optional YAML file, then overridden by environment variables, then
// defaulted and validated before the client wires up the pipeline.
package config

import (
	"net/url"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/metarouter-io/analytics-go/pkg/log"
)

var clog = log.WithComponent("Configuration")

const envPrefix = "analytics"

// Defaults mirrored from spec §3.
const (
	DefaultFlushIntervalSeconds = 10
	DefaultMaxQueueEvents       = 2000
	DefaultAutoFlushThreshold   = 20
	DefaultInitialMaxBatchSize  = 100
	DefaultHTTPTimeoutMs        = 8000
	DefaultEndpointPath         = "/v1/batch"
	DefaultLogLevel             = "info"
)

// Options configures the event pipeline. Fields are tagged for both YAML
// file loading and envconfig environment-variable overrides (ANALYTICS_*).
type Options struct {
	WriteKey             string `yaml:"write_key" envconfig:"write_key"`
	IngestionHost        string `yaml:"ingestion_host" envconfig:"ingestion_host"`
	FlushIntervalSeconds int    `yaml:"flush_interval_seconds" envconfig:"flush_interval_seconds"`
	MaxQueueEvents       int    `yaml:"max_queue_events" envconfig:"max_queue_events"`
	AutoFlushThreshold   int    `yaml:"auto_flush_threshold" envconfig:"auto_flush_threshold"`
	InitialMaxBatchSize  int    `yaml:"initial_max_batch_size" envconfig:"initial_max_batch_size"`
	HTTPTimeoutMs        int    `yaml:"http_timeout_ms" envconfig:"http_timeout_ms"`
	EndpointPath         string `yaml:"endpoint_path" envconfig:"endpoint_path"`
	UserAgent            string `yaml:"user_agent" envconfig:"user_agent"`
	LogLevel             string `yaml:"log_level" envconfig:"log_level"`
}

// SetDefaults fills zero-valued fields with the spec's defaults. UserAgent
// is defaulted to "analytics-go" since the module version isn't known at
// this layer.
func (o *Options) SetDefaults() {
	if o.FlushIntervalSeconds == 0 {
		o.FlushIntervalSeconds = DefaultFlushIntervalSeconds
	}
	if o.MaxQueueEvents == 0 {
		o.MaxQueueEvents = DefaultMaxQueueEvents
	}
	if o.AutoFlushThreshold == 0 {
		o.AutoFlushThreshold = DefaultAutoFlushThreshold
	}
	if o.InitialMaxBatchSize == 0 {
		o.InitialMaxBatchSize = DefaultInitialMaxBatchSize
	}
	if o.HTTPTimeoutMs == 0 {
		o.HTTPTimeoutMs = DefaultHTTPTimeoutMs
	}
	if o.EndpointPath == "" {
		o.EndpointPath = DefaultEndpointPath
	}
	if o.UserAgent == "" {
		o.UserAgent = "analytics-go"
	}
	if o.LogLevel == "" {
		o.LogLevel = DefaultLogLevel
	}
}

// Validate checks the invariants spec §3 places on Options.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.WriteKey) == "" {
		return errors.New("config: writeKey must not be empty")
	}

	u, err := url.Parse(o.IngestionHost)
	if err != nil {
		return errors.Wrap(err, "config: ingestionHost is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("config: ingestionHost scheme must be http or https, got %q", u.Scheme)
	}
	if strings.HasSuffix(o.IngestionHost, "/") {
		return errors.New("config: ingestionHost must not have a trailing slash")
	}

	if o.FlushIntervalSeconds <= 0 {
		return errors.New("config: flushIntervalSeconds must be > 0")
	}
	if o.MaxQueueEvents <= 0 {
		return errors.New("config: maxQueueEvents must be > 0")
	}
	if o.AutoFlushThreshold <= 0 {
		return errors.New("config: autoFlushThreshold must be > 0")
	}
	if o.InitialMaxBatchSize <= 0 {
		return errors.New("config: initialMaxBatchSize must be > 0")
	}
	if o.HTTPTimeoutMs <= 0 {
		return errors.New("config: httpTimeoutMs must be > 0")
	}

	return nil
}

// Load reads optional YAML at path (skipped if path is empty), applies
// ANALYTICS_*-prefixed environment overrides, fills defaults, and
// validates the result.
func Load(path string) (*Options, error) {
	var opts Options

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "config: opening file")
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&opts); err != nil {
			return nil, errors.Wrap(err, "config: decoding yaml")
		}
	}

	if err := envconfig.Process(envPrefix, &opts); err != nil {
		return nil, errors.Wrap(err, "config: processing environment overrides")
	}

	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	clog.WithField("ingestionHost", opts.IngestionHost).Info("configuration loaded")
	return &opts, nil
}
