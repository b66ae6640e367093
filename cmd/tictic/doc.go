// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

// Tictic is the command-line client for the TicTic WhatsApp messaging
// API.
//
// Link a phone once with "tictic connect", which prints a QR code to scan
// from WhatsApp's Linked devices screen, then send with "tictic send".
// "tictic signup" obtains an API key by phone verification.
//
// Settings resolve from flags, then TICTIC_API_KEY and TICTIC_BASE_URL,
// then the file named by --config or TICTIC_CONFIG. Failures print the
// API's message and remediation hint to stderr and exit 1.
package main
