// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// AuthConfig holds configuration for an AuthClient. Signup needs no API
// key, so this is separate from Config.
type AuthConfig struct {
	// BaseURL is the API origin. Defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is used for all requests. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// AuthClient performs the two-step phone verification that issues an API
// key. Requests are unauthenticated.
//
// RequestCode must precede VerifyCode for a phone number, but no local
// state links the two calls: the API owns code validity and expiry.
type AuthClient struct {
	transport *transport
	logger    *slog.Logger
}

// NewAuthClient creates an unauthenticated client for the signup flow.
func NewAuthClient(config AuthConfig) (*AuthClient, error) {
	transport, err := newTransport(config.BaseURL, "", config.HTTPClient, nil, config.Logger)
	if err != nil {
		return nil, err
	}
	return &AuthClient{transport: transport, logger: transport.logger}, nil
}

// RequestCode asks the API to send a verification code to phone over
// WhatsApp.
func (a *AuthClient) RequestCode(ctx context.Context, phone string) error {
	if strings.TrimSpace(phone) == "" {
		return &ArgumentError{Name: "phone", Message: "phone number is required"}
	}
	if err := a.transport.do(ctx, http.MethodPost, "/v1/auth", authRequest{Phone: phone}, nil); err != nil {
		return err
	}
	a.logger.Info("verification code requested", "phone", phone)
	return nil
}

// VerifyCode exchanges the code received on phone for an API key.
func (a *AuthClient) VerifyCode(ctx context.Context, phone, code string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", &ArgumentError{Name: "phone", Message: "phone number is required"}
	}
	if strings.TrimSpace(code) == "" {
		return "", &ArgumentError{Name: "code", Message: "verification code is required"}
	}

	var response verifyResponse
	request := authRequest{Phone: phone, VerificationCode: code}
	if err := a.transport.do(ctx, http.MethodPost, "/v1/auth", request, &response); err != nil {
		return "", err
	}
	if response.APIKey == "" {
		return "", fmt.Errorf("tictic: verification response for %s carried no API key", phone)
	}
	a.logger.Info("phone verified", "phone", phone)
	return response.APIKey, nil
}

// CodeFunc supplies the verification code the user received, typically
// by prompting for it.
type CodeFunc func(ctx context.Context, phone string) (string, error)

// Signup runs the full verification flow: request a code, obtain it from
// readCode, and verify it. Returns the issued API key.
func (a *AuthClient) Signup(ctx context.Context, phone string, readCode CodeFunc) (string, error) {
	if readCode == nil {
		return "", &ArgumentError{Name: "readCode", Message: "a code reader is required"}
	}
	if err := a.RequestCode(ctx, phone); err != nil {
		return "", err
	}
	code, err := readCode(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("tictic: reading verification code: %w", err)
	}
	return a.VerifyCode(ctx, phone, strings.TrimSpace(code))
}
