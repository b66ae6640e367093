// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

import (
	"context"
	"net/http"
	"strings"
)

// MessagesClient sends WhatsApp messages through the connected session.
type MessagesClient struct {
	transport *transport
}

// SendText sends a text message to the phone number to. The API is the
// authority on number format; only emptiness is checked locally.
//
// Sends are never retried: the API has no idempotency key, so a retried
// send may deliver twice.
func (m *MessagesClient) SendText(ctx context.Context, to, text string) (*SendResult, error) {
	if strings.TrimSpace(to) == "" {
		return nil, &ArgumentError{Name: "to", Message: "recipient phone number is required"}
	}

	var result SendResult
	request := SendTextRequest{To: to, Text: text}
	if err := m.transport.do(ctx, http.MethodPost, "/v1/messages", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
