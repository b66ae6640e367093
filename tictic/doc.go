// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

// Package tictic is a client for the TicTic WhatsApp messaging API.
//
// [Client] is constructed once per API key and bundles the resource
// clients over one HTTP transport: [MessagesClient] sends text messages,
// [UsageClient] reads the account quota, [SessionClient] reads session
// status and the pairing payload, and [AuthClient] runs the
// unauthenticated phone-verification signup that issues API keys.
//
// [Connector] owns the only stateful workflow: linking a phone. Connect
// fetches the pairing QR code from /v1/qr, hands it to a [Renderer]
// exactly once, then polls /v1/status at a fixed interval until the
// session is ready, the remote reports failure, or the poll budget runs
// out. Once a Connect has ended ready, the next one checks the status
// first and returns at once while the session is still ready. The
// interval, the budget and the [clock.Clock] can be injected so tests run
// without wall-clock delay.
//
// Every response is expected in the envelope form
//
//	{"success": true, "data": {...}}
//	{"success": false, "error": {"message": "...", "code": "...", "help": "..."}}
//
// and failures surface as [*RemoteError] carrying the HTTP status, code,
// and help text. Session outcomes surface as [*ConnectionFailedError] and
// [*ConnectionTimeoutError], which also match [ErrConnectionFailed] and
// [ErrConnectionTimeout] through errors.Is. Empty arguments are rejected
// locally with [*ArgumentError] ([ErrInvalidArgument]) before any request
// is sent. Nothing is retried except the
// bounded status poll: a retried send could deliver twice.
package tictic
