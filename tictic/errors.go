// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RemoteError represents a failed request to the TicTic API: a non-2xx
// HTTP status, or a 2xx response whose envelope reports success:false.
// Callers can use errors.As to extract the structured information:
//
//	var remoteErr *tictic.RemoteError
//	if errors.As(err, &remoteErr) {
//	    if remoteErr.Code == tictic.ErrCodeInvalidPhone { ... }
//	}
type RemoteError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Code is the machine-readable error code (e.g., "INVALID_PHONE").
	// Empty when the server did not supply one.
	Code string

	// Type is the server's error category, when present.
	Type string

	// Message is the human-readable error description, verbatim from the
	// server when it supplied one.
	Message string

	// Help is an optional remediation hint from the server.
	Help string

	// RequestID is the X-Request-ID sent with the failing request.
	RequestID string
}

func (e *RemoteError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "tictic: HTTP %d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&builder, " %s", e.Code)
	}
	fmt.Fprintf(&builder, ": %s", e.Message)
	return builder.String()
}

// Error codes returned by the TicTic API.
const (
	ErrCodeInvalidAPIKey    = "INVALID_API_KEY"
	ErrCodeInvalidPhone     = "INVALID_PHONE"
	ErrCodeInvalidCode      = "INVALID_CODE"
	ErrCodeSessionNotFound  = "SESSION_NOT_FOUND"
	ErrCodeSessionNotReady  = "SESSION_NOT_READY"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeUsageExceeded    = "USAGE_LIMIT_EXCEEDED"
	ErrCodeValidationFailed = "VALIDATION_ERROR"
)

// IsRemoteError reports whether err is a *RemoteError with the given code.
func IsRemoteError(err error, code string) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Code == code
}

// IsNotFound reports whether err is a *RemoteError with HTTP status 404.
func IsNotFound(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is a *RemoteError rejecting the API
// key (HTTP 401, or the INVALID_API_KEY code).
func IsUnauthorized(err error) bool {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.StatusCode == http.StatusUnauthorized || remoteErr.Code == ErrCodeInvalidAPIKey
}

// IsSessionNotFound reports whether err means no remote session exists
// yet. The API signals this with SESSION_NOT_FOUND; older deployments
// return a bare 404 from the status endpoint.
func IsSessionNotFound(err error) bool {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.Code == ErrCodeSessionNotFound || remoteErr.StatusCode == http.StatusNotFound
}

// ConfigurationError reports an invalid client configuration detected at
// construction time. It is never retried.
type ConfigurationError struct {
	// Field names the offending Config field (e.g., "APIKey").
	Field string

	// Message describes what is wrong and how to fix it.
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tictic: invalid %s: %s", e.Field, e.Message)
}

// ErrInvalidArgument matches any *ArgumentError via errors.Is.
var ErrInvalidArgument = errors.New("tictic: invalid argument")

// ArgumentError reports a call argument rejected before any request is
// sent. Nothing reached the API.
type ArgumentError struct {
	// Name is the offending parameter (e.g., "to", "phone").
	Name string

	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tictic: invalid argument %s: %s", e.Name, e.Message)
}

// Is makes errors.Is(err, ErrInvalidArgument) match.
func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// ErrConnectionFailed matches any *ConnectionFailedError via errors.Is.
var ErrConnectionFailed = errors.New("tictic: session connection failed")

// ErrConnectionTimeout matches any *ConnectionTimeoutError via errors.Is.
var ErrConnectionTimeout = errors.New("tictic: session connection timed out")

// ErrConnectInProgress is returned when Connect is called on a Connector
// that is already running a connect loop.
var ErrConnectInProgress = errors.New("tictic: connect already in progress")

// ConnectionFailedError is returned by Connect when the remote session
// reports failure while polling. Terminal: the caller decides whether to
// start a fresh Connect.
type ConnectionFailedError struct {
	// Status is the status the remote reported.
	Status SessionStatus

	// Polls is the number of status fetches performed, including the one
	// that reported failure.
	Polls int
}

func (e *ConnectionFailedError) Error() string {
	return fmt.Sprintf("tictic: session connection failed (status %q after %d status checks)", e.Status, e.Polls)
}

// Is makes errors.Is(err, ErrConnectionFailed) match.
func (e *ConnectionFailedError) Is(target error) bool { return target == ErrConnectionFailed }

// ConnectionTimeoutError is returned by Connect when the poll budget is
// exhausted before the session reaches ready or failed.
type ConnectionTimeoutError struct {
	// Polls is the number of status fetches performed (the budget).
	Polls int

	// Elapsed is the time spent polling, as measured by the client clock.
	Elapsed time.Duration
}

func (e *ConnectionTimeoutError) Error() string {
	return fmt.Sprintf("tictic: session not ready after %d status checks (%s); scan the QR code and try again",
		e.Polls, e.Elapsed.Round(time.Second))
}

// Is makes errors.Is(err, ErrConnectionTimeout) match.
func (e *ConnectionTimeoutError) Is(target error) bool { return target == ErrConnectionTimeout }

// HelpText returns the remediation hint carried by err, if any. Only
// *RemoteError carries one.
func HelpText(err error) string {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Help
	}
	return ""
}
