// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0
package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

// NewRoundTripper builds the RoundTripper used by the default Client,
// modeled on the agent's backend/http defaultHttpTransport: explicit dial
// and TLS-handshake timeouts, an optional fixed proxy URL (nil falls back
// to the standard HTTPS_PROXY/HTTP_PROXY environment variables), and an
// optional TLS config for custom root CAs.
func NewRoundTripper(dialTimeout time.Duration, proxyURL *url.URL, tlsConfig *tls.Config) http.RoundTripper {
	proxyFunc := http.ProxyFromEnvironment
	if proxyURL != nil {
		proxyFunc = func(*http.Request) (*url.URL, error) {
			return proxyURL, nil
		}
	}

	return &http.Transport{
		Proxy:                 proxyFunc,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       tlsConfig,
	}
}
