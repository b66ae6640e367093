// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tictic-dev/tictic-go/lib/clock"
)

// DefaultBaseURL is the public TicTic API origin.
const DefaultBaseURL = "https://api.tictic.dev"

// Config holds configuration for creating a Client. Only APIKey is
// required. The library never reads the environment; resolve
// TICTIC_API_KEY and friends at the program boundary (see lib/config).
type Config struct {
	// APIKey authenticates every request except signup.
	APIKey string

	// BaseURL is the API origin. Defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is used for all requests. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// Clock drives poll delays and request timing. Defaults to
	// clock.Real(). Inject clock.Fake() in tests.
	Clock clock.Clock

	// Renderer displays the pairing QR code during Connect.
	Renderer Renderer

	// PollInterval and MaxPollAttempts set the Connect poll policy. Zero
	// values select DefaultPollInterval and DefaultMaxPollAttempts.
	PollInterval    time.Duration
	MaxPollAttempts int

	// OnStateChange, if set, observes Connect state transitions.
	OnStateChange func(State)
}

// Client is the entry point for one API key. It bundles the resource
// clients and the session Connector over a shared transport.
//
// Sends and usage reads are safe to call concurrently. Connect runs at
// most once at a time per Client; see Connector.
type Client struct {
	// Messages sends messages.
	Messages *MessagesClient
	// Usage reads the account quota.
	Usage *UsageClient
	// Sessions reads session status and pairing payloads.
	Sessions *SessionClient
	// Auth runs the signup flow against the same origin.
	Auth *AuthClient

	connector *Connector
}

// NewClient creates a Client. Returns *ConfigurationError when the API
// key is missing or the base URL or poll policy is invalid.
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, &ConfigurationError{
			Field:   "APIKey",
			Message: "API key required; set TICTIC_API_KEY or pass Config.APIKey",
		}
	}

	transport, err := newTransport(config.BaseURL, config.APIKey, config.HTTPClient, config.Clock, config.Logger)
	if err != nil {
		return nil, err
	}

	sessions := &SessionClient{transport: transport}
	connector, err := NewConnector(sessions, ConnectorConfig{
		PollInterval:    config.PollInterval,
		MaxPollAttempts: config.MaxPollAttempts,
		Renderer:        config.Renderer,
		Clock:           transport.clock,
		Logger:          transport.logger,
		OnStateChange:   config.OnStateChange,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		Messages:  &MessagesClient{transport: transport},
		Usage:     &UsageClient{transport: transport},
		Sessions:  sessions,
		Auth:      &AuthClient{transport: transport, logger: transport.logger},
		connector: connector,
	}, nil
}

// SendText sends a text message. See MessagesClient.SendText.
func (c *Client) SendText(ctx context.Context, to, text string) (*SendResult, error) {
	return c.Messages.SendText(ctx, to, text)
}

// GetUsage returns current account usage. See UsageClient.Get.
func (c *Client) GetUsage(ctx context.Context) (*UsageSnapshot, error) {
	return c.Usage.Get(ctx)
}

// Status returns the current session status. See SessionClient.Status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	return c.Sessions.Status(ctx)
}

// IsReady reports whether the session can send. See Connector.IsReady.
func (c *Client) IsReady(ctx context.Context) (bool, error) {
	return c.connector.IsReady(ctx)
}

// Connect establishes the WhatsApp session, rendering the QR code if the
// phone still needs to be linked. See Connector.Connect.
func (c *Client) Connect(ctx context.Context) (*Status, error) {
	return c.connector.Connect(ctx)
}

// ConnectAndSendText sends a text message, first running Connect if the
// session is not ready. A missing session counts as not ready.
func (c *Client) ConnectAndSendText(ctx context.Context, to, text string) (*SendResult, error) {
	ready, err := c.connector.IsReady(ctx)
	if err != nil {
		return nil, err
	}
	if !ready {
		if _, err := c.connector.Connect(ctx); err != nil {
			return nil, err
		}
	}
	return c.Messages.SendText(ctx, to, text)
}
