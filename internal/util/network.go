// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// MaxURLLength is the maximum accepted length of a stored link.
const MaxURLLength = 2048

// Link validation errors.
var (
	ErrURLRequired = errors.New("link is required")
	ErrURLTooLong  = errors.New("link is too long")
	ErrURLInvalid  = errors.New("link must be an absolute http or https URL")
)

// ClientIP returns the request's client address without the port.
// chi's RealIP middleware has already copied X-Real-IP or X-Forwarded-For
// into RemoteAddr when the router runs it.
func ClientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ValidateHTTPURL checks that raw is a non-empty absolute http(s) URL with a
// host and returns it trimmed.
func ValidateHTTPURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrURLRequired
	}
	if len(raw) > MaxURLLength {
		return "", ErrURLTooLong
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrURLInvalid
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrURLInvalid
	}
	if u.Hostname() == "" {
		return "", ErrURLInvalid
	}
	return raw, nil
}
