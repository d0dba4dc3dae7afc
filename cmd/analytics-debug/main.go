// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Command analytics-debug wires up an analytics.Client against a real
// ingestion host, reads track-event names from stdin, and periodically
// prints the pipeline's DebugInfo snapshot. It exists to exercise the
// client manually, the way cmd/debug exercises the agent's CPU sampler.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	analytics "github.com/metarouter-io/analytics-go"
	"github.com/metarouter-io/analytics-go/pkg/config"
	"github.com/metarouter-io/analytics-go/pkg/event"
	"github.com/metarouter-io/analytics-go/pkg/log"
)

var dlog = log.WithComponent("AnalyticsDebug")

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (overridden by ANALYTICS_* env vars)")
	interval := flag.Duration("interval", 5*time.Second, "interval between DebugInfo snapshots")
	flag.Parse()

	opts, err := config.Load(*configFile)
	if err != nil {
		dlog.WithError(err).Error("can't load configuration")
		os.Exit(1)
	}

	client, err := analytics.New(*opts)
	if err != nil {
		dlog.WithError(err).Error("can't start analytics client")
		os.Exit(1)
	}
	defer client.Close()

	client.OnFatalConfigError(func(statusCode int) {
		dlog.WithField("status", statusCode).Error("ingestion host rejected the write key, halting")
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go printDebugInfoLoop(client, *interval, sigs)

	dlog.Info("reading event names from stdin, one per line (blank line flushes, ctrl-d exits)")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			client.Flush()
			continue
		}
		client.Enqueue(event.BaseEvent{Type: event.Track, Event: line})
	}

	client.Flush()
}

func printDebugInfoLoop(client *analytics.Client, interval time.Duration, stop <-chan os.Signal) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			info := client.DebugInfo()
			fmt.Printf("running=%v maxBatchSize=%d pendingRetry=%v circuit=%s cooldownMs=%d\n",
				info.IsRunning, info.MaxBatchSize, info.PendingRetry, info.CircuitState, info.RemainingCooldownMs)
		case <-stop:
			return
		}
	}
}
