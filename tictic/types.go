// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

// SessionStatus is the remote session state reported by /v1/status and
// /v1/qr.
type SessionStatus string

// Session statuses reported by the API.
const (
	StatusUninitialized    SessionStatus = "uninitialized"
	StatusInitializing     SessionStatus = "initializing"
	StatusPending          SessionStatus = "pending"
	StatusReady            SessionStatus = "ready"
	StatusConnected        SessionStatus = "connected"
	StatusAlreadyConnected SessionStatus = "already_connected"
	StatusFailed           SessionStatus = "failed"
)

// Status is a snapshot of the remote session, as returned by GET /v1/status.
// Each fetch replaces the previous snapshot; nothing is cached.
type Status struct {
	Ready    bool          `json:"ready"`
	Status   SessionStatus `json:"status,omitempty"`
	Phone    string        `json:"phone,omitempty"`
	NextStep string        `json:"next_step,omitempty"`
}

// IsReady reports whether the session can send messages.
func (s *Status) IsReady() bool {
	return s.Ready || s.Status == StatusReady || s.Status == StatusConnected
}

// IsFailed reports whether the remote gave up on the session.
func (s *Status) IsFailed() bool {
	return !s.IsReady() && s.Status == StatusFailed
}

// Pairing is the response of GET /v1/qr: either a pairing payload to show
// the user, or an indication that the session is already connected.
type Pairing struct {
	Status       SessionStatus `json:"status"`
	QR           string        `json:"qr,omitempty"`
	Instructions []string      `json:"instructions,omitempty"`
}

// AlreadyConnected reports whether the session needs no pairing.
func (p *Pairing) AlreadyConnected() bool {
	switch p.Status {
	case StatusAlreadyConnected, StatusConnected, StatusReady:
		return true
	}
	return false
}

// SendTextRequest is the body of POST /v1/messages.
type SendTextRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// SendResult describes a message accepted by the API.
type SendResult struct {
	ID        string `json:"id"`
	To        string `json:"to"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`

	// Usage is the account usage after this send, when the server
	// includes it.
	Usage *UsageSnapshot `json:"usage,omitempty"`
}

// UsageSnapshot is the account's message quota. Remaining is computed by
// the server.
type UsageSnapshot struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// usageResponse is the payload of GET /v1/usage.
type usageResponse struct {
	Usage UsageSnapshot `json:"usage"`
}

// authRequest is the body of POST /v1/auth for both signup steps.
type authRequest struct {
	Phone            string `json:"phone"`
	VerificationCode string `json:"verification_code,omitempty"`
}

// verifyResponse is the payload of a successful verification.
type verifyResponse struct {
	APIKey string `json:"api_key"`
}
