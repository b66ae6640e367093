// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers shared by the API client and
// its test fakes.
//
// Every response body read is bounded at MaxResponseSize so a misbehaving
// server cannot exhaust memory. The TicTic API returns small JSON
// envelopes; the largest legitimate payload is a data-URL encoded QR
// image of a few tens of kilobytes.
package netutil

import (
	"io"
	"strings"
	"unicode/utf8"
)

// MaxResponseSize is the bound on JSON API response body reads: 8 MB.
const MaxResponseSize int64 = 8 << 20

// maxErrorSnippet bounds how much of a non-JSON error body ends up in an
// error message.
const maxErrorSnippet = 512

// ReadResponse reads a JSON API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorSnippet renders a raw error body for inclusion in an error
// message: surrounding whitespace is trimmed and the result is cut to a
// few hundred bytes on a rune boundary. Returns "" for an empty body.
func ErrorSnippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxErrorSnippet {
		return text
	}
	cut := maxErrorSnippet
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
