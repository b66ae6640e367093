// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

import (
	"context"
	"net/http"
)

// SessionClient reads the remote WhatsApp session: its current status and
// the pairing payload used to link a phone.
type SessionClient struct {
	transport *transport
}

// Status fetches the current session status from GET /v1/status. When no
// session exists yet the API answers with a *RemoteError for which
// IsSessionNotFound reports true.
func (s *SessionClient) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := s.transport.do(ctx, http.MethodGet, "/v1/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// QR creates the remote session if needed and fetches its pairing payload
// from GET /v1/qr. A session that is already linked reports
// already_connected and carries no payload; see Pairing.AlreadyConnected.
func (s *SessionClient) QR(ctx context.Context) (*Pairing, error) {
	var pairing Pairing
	if err := s.transport.do(ctx, http.MethodGet, "/v1/qr", nil, &pairing); err != nil {
		return nil, err
	}
	return &pairing, nil
}
