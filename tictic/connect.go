// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tictic-dev/tictic-go/lib/clock"
)

const (
	// DefaultPollInterval is the delay between session status polls.
	DefaultPollInterval = 2 * time.Second

	// DefaultMaxPollAttempts bounds the poll loop: with the default
	// interval, about two minutes for the user to scan the code.
	DefaultMaxPollAttempts = 60
)

// State is the client-side view of a Connect call. The remote service
// owns the real session state; State only tracks where the loop is.
type State int

const (
	// StateUnknown is the initial state: nothing is known locally.
	StateUnknown State = iota
	// StateCreating means the session-creation (QR fetch) call is in flight.
	StateCreating
	// StateAwaitingScan means a pairing payload was obtained and rendered.
	StateAwaitingScan
	// StatePolling means the loop is fetching status until a terminal state.
	StatePolling
	// StateReady is terminal success.
	StateReady
	// StateFailed is terminal failure reported by the remote.
	StateFailed
	// StateTimedOut is terminal failure: the poll budget ran out.
	StateTimedOut
)

var stateNames = [...]string{
	StateUnknown:      "unknown",
	StateCreating:     "creating",
	StateAwaitingScan: "awaiting_scan",
	StatePolling:      "polling",
	StateReady:        "ready",
	StateFailed:       "failed",
	StateTimedOut:     "timed_out",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed || s == StateTimedOut
}

// Renderer displays a pairing payload (QR code content) to the user.
// Render returns once the payload is visible. A payload may be a
// data-URL with base64 content; decoding it is the renderer's concern.
type Renderer interface {
	Render(ctx context.Context, payload string) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, payload string) error

// Render calls f(ctx, payload).
func (f RendererFunc) Render(ctx context.Context, payload string) error { return f(ctx, payload) }

// InstructionRenderer is implemented by renderers that also display the
// pairing instructions returned with the payload. When a Renderer
// implements it, RenderWithInstructions is called instead of Render.
type InstructionRenderer interface {
	Renderer
	RenderWithInstructions(ctx context.Context, payload string, instructions []string) error
}

// ConnectorConfig holds the poll policy and collaborators of a Connector.
type ConnectorConfig struct {
	// PollInterval is the delay between status polls. Zero selects
	// DefaultPollInterval; negative values are rejected.
	PollInterval time.Duration

	// MaxPollAttempts is the number of status fetches before Connect
	// gives up with *ConnectionTimeoutError. Zero selects
	// DefaultMaxPollAttempts; negative values are rejected.
	MaxPollAttempts int

	// Renderer displays the pairing payload. If nil, the payload is only
	// logged.
	Renderer Renderer

	// Clock drives the poll delay. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// OnStateChange, if set, is called synchronously with every state
	// Connect enters, in order.
	OnStateChange func(State)
}

// Connector drives a remote pairing session to ready: it creates the
// session, hands the pairing payload to the Renderer once, then polls
// status until ready, failed, or the poll budget is spent.
//
// A Connector runs at most one Connect at a time. The only thing carried
// between calls is whether the last Connect ended ready.
type Connector struct {
	sessions      *SessionClient
	renderer      Renderer
	clock         clock.Clock
	logger        *slog.Logger
	pollInterval  time.Duration
	maxAttempts   int
	onStateChange func(State)

	running atomic.Bool

	// ready is set when the last Connect ended in StateReady.
	ready atomic.Bool
}

// NewConnector creates a Connector polling through sessions.
func NewConnector(sessions *SessionClient, config ConnectorConfig) (*Connector, error) {
	if sessions == nil {
		return nil, fmt.Errorf("tictic: NewConnector requires a SessionClient")
	}
	if config.PollInterval < 0 {
		return nil, &ConfigurationError{Field: "PollInterval", Message: fmt.Sprintf("must not be negative (got %s)", config.PollInterval)}
	}
	if config.MaxPollAttempts < 0 {
		return nil, &ConfigurationError{Field: "MaxPollAttempts", Message: fmt.Sprintf("must not be negative (got %d)", config.MaxPollAttempts)}
	}

	connector := &Connector{
		sessions:      sessions,
		renderer:      config.Renderer,
		clock:         config.Clock,
		logger:        config.Logger,
		pollInterval:  config.PollInterval,
		maxAttempts:   config.MaxPollAttempts,
		onStateChange: config.OnStateChange,
	}
	if connector.pollInterval == 0 {
		connector.pollInterval = DefaultPollInterval
	}
	if connector.maxAttempts == 0 {
		connector.maxAttempts = DefaultMaxPollAttempts
	}
	if connector.clock == nil {
		connector.clock = clock.Real()
	}
	if connector.logger == nil {
		connector.logger = slog.Default()
	}
	return connector, nil
}

// Connect establishes the session and returns its ready status.
//
// After a Connect that ended ready, the next Connect first fetches the
// status and, if the session is still ready, returns it without creating
// a session; only StateReady is entered. Otherwise the QR fetch strictly
// precedes the first status poll, and each poll completes before the
// next begins. A first Connect on an already linked session still costs
// one QR fetch: the remote reports it already connected and Connect
// returns without rendering anything.
// Otherwise it returns *ConnectionFailedError when the remote reports
// failure and *ConnectionTimeoutError when MaxPollAttempts fetches pass
// without a terminal status. Transport errors are returned unchanged.
// Cancelling ctx aborts the loop at the next HTTP call or sleep.
//
// A second Connect while one is running returns ErrConnectInProgress.
func (c *Connector) Connect(ctx context.Context) (*Status, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrConnectInProgress
	}
	defer c.running.Store(false)

	if c.ready.Load() {
		status, err := c.sessions.Status(ctx)
		switch {
		case err == nil && status.IsReady():
			c.enter(StateReady)
			return status, nil
		case err != nil && !IsSessionNotFound(err):
			return nil, err
		}
		c.ready.Store(false)
		c.logger.Info("session no longer ready; reconnecting")
	}

	c.enter(StateCreating)
	pairing, err := c.sessions.QR(ctx)
	if err != nil {
		return nil, err
	}

	if pairing.AlreadyConnected() {
		c.ready.Store(true)
		c.enter(StateReady)
		return &Status{Ready: true, Status: pairing.Status}, nil
	}

	if pairing.QR != "" {
		c.enter(StateAwaitingScan)
		if err := c.render(ctx, pairing); err != nil {
			return nil, err
		}
	}

	c.enter(StatePolling)
	started := c.clock.Now()
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		status, err := c.sessions.Status(ctx)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("session status",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"status", status.Status,
			"ready", status.Ready,
		)

		if status.IsReady() {
			c.ready.Store(true)
			c.enter(StateReady)
			c.logger.Info("session connected", "phone", status.Phone)
			return status, nil
		}
		if status.IsFailed() {
			c.enter(StateFailed)
			return nil, &ConnectionFailedError{Status: status.Status, Polls: attempt}
		}

		if attempt < c.maxAttempts {
			if err := clock.Sleep(ctx, c.clock, c.pollInterval); err != nil {
				return nil, fmt.Errorf("tictic: waiting for session: %w", err)
			}
		}
	}

	c.enter(StateTimedOut)
	return nil, &ConnectionTimeoutError{Polls: c.maxAttempts, Elapsed: c.clock.Now().Sub(started)}
}

// IsReady reports whether the session is ready. A missing session is
// "not ready" rather than an error; every other failure is returned.
// Callers that need the full picture should use SessionClient.Status.
func (c *Connector) IsReady(ctx context.Context) (bool, error) {
	status, err := c.sessions.Status(ctx)
	if err != nil {
		if IsSessionNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return status.IsReady(), nil
}

// render hands the payload to the renderer. A renderer failure is logged
// and does not fail the connect; only cancellation does.
func (c *Connector) render(ctx context.Context, pairing *Pairing) error {
	for _, instruction := range pairing.Instructions {
		c.logger.Info("pairing instruction", "step", instruction)
	}
	if c.renderer == nil {
		c.logger.Info("pairing payload received; no renderer configured", "length", len(pairing.QR))
		return nil
	}

	var err error
	if instructionRenderer, ok := c.renderer.(InstructionRenderer); ok {
		err = instructionRenderer.RenderWithInstructions(ctx, pairing.QR, pairing.Instructions)
	} else {
		err = c.renderer.Render(ctx, pairing.QR)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("tictic: rendering pairing code: %w", ctxErr)
		}
		c.logger.Warn("rendering pairing code failed", "error", err)
	}
	return nil
}

func (c *Connector) enter(state State) {
	c.logger.Info("connect state", "state", state.String())
	if c.onStateChange != nil {
		c.onStateChange(state)
	}
}
