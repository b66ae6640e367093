// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tictic-dev/tictic-go/lib/clock"
	"github.com/tictic-dev/tictic-go/lib/netutil"
	"github.com/tictic-dev/tictic-go/lib/version"
)

const (
	// apiPrefix is the versioned prefix every request path must carry.
	apiPrefix = "/v1/"

	// authPathPrefix marks the unauthenticated signup endpoints. Requests
	// under it never carry the API key.
	authPathPrefix = "/v1/auth"

	headerAPIKey    = "X-API-Key"
	headerRequestID = "X-Request-ID"
)

// transport performs one authenticated request against the TicTic API
// and decodes the response envelope. It never retries.
type transport struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
}

// envelope is the wrapper every JSON response is expected to follow. A
// nil Success means the server sent a legacy bare body.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`

	// Message is a top-level message some error responses carry instead
	// of an error object.
	Message string `json:"message"`
}

type envelopeError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
	Help    string `json:"help"`
}

// UnmarshalJSON accepts both the structured error object and the older
// {"error": "text"} form.
func (e *envelopeError) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Message)
	}
	type plain envelopeError
	return json.Unmarshal(data, (*plain)(e))
}

// parseBaseURL validates an API origin and returns it with any trailing
// slash removed. Request URLs are built by concatenation.
func parseBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", &ConfigurationError{Field: "BaseURL", Message: fmt.Sprintf("cannot parse %q: %v", raw, err)}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &ConfigurationError{Field: "BaseURL", Message: fmt.Sprintf("%q must use http or https", raw)}
	}
	if parsed.Host == "" {
		return "", &ConfigurationError{Field: "BaseURL", Message: fmt.Sprintf("%q has no host", raw)}
	}
	return strings.TrimRight(raw, "/"), nil
}

// do sends method+path with requestBody JSON-encoded (nil for no body)
// and decodes the envelope's data into result (nil to discard it).
// Non-2xx responses and success:false envelopes return *RemoteError.
func (t *transport) do(ctx context.Context, method, path string, requestBody, result any) error {
	if !strings.HasPrefix(path, apiPrefix) {
		return fmt.Errorf("tictic: request path %q must begin with %s", path, apiPrefix)
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("tictic: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("tictic: failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())
	request.Header.Set(headerRequestID, requestID)
	if t.apiKey != "" && !strings.HasPrefix(path, authPathPrefix) {
		request.Header.Set(headerAPIKey, t.apiKey)
	}

	started := t.clock.Now()
	response, err := t.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("tictic: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("tictic: failed to read response body: %w", err)
	}

	t.logger.Debug("tictic request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"request_id", requestID,
		"duration", t.clock.Now().Sub(started),
	)

	return decodeResponse(response.StatusCode, responseBody, requestID, result)
}

// decodeResponse maps a status code and body onto either result or a
// *RemoteError.
func decodeResponse(statusCode int, body []byte, requestID string, result any) error {
	var parsed envelope
	isJSON := len(body) > 0 && json.Unmarshal(body, &parsed) == nil

	if statusCode < 200 || statusCode >= 300 {
		if isJSON {
			return newRemoteError(statusCode, parsed.errorDetail(), nil, requestID)
		}
		return newRemoteError(statusCode, nil, body, requestID)
	}

	if isJSON && parsed.Success != nil {
		if !*parsed.Success {
			return newRemoteError(statusCode, parsed.errorDetail(), nil, requestID)
		}
		return decodeData(parsed.Data, result)
	}

	// Legacy shape: the body is the payload itself.
	return decodeData(body, result)
}

// errorDetail returns the envelope's error object, falling back to the
// top-level message.
func (e *envelope) errorDetail() *envelopeError {
	if e.Error != nil {
		if e.Error.Message == "" {
			e.Error.Message = e.Message
		}
		return e.Error
	}
	if e.Message != "" {
		return &envelopeError{Message: e.Message}
	}
	return nil
}

func decodeData(data json.RawMessage, result any) error {
	if result == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("tictic: failed to parse response: %w", err)
	}
	return nil
}

// newRemoteError builds a RemoteError from the envelope's error object,
// or from a raw non-JSON body when there is no envelope.
func newRemoteError(statusCode int, detail *envelopeError, rawBody []byte, requestID string) *RemoteError {
	remoteErr := &RemoteError{
		StatusCode: statusCode,
		RequestID:  requestID,
	}
	if detail != nil {
		remoteErr.Message = detail.Message
		remoteErr.Code = detail.Code
		remoteErr.Type = detail.Type
		remoteErr.Help = detail.Help
	}
	if remoteErr.Message == "" {
		remoteErr.Message = netutil.ErrorSnippet(rawBody)
	}
	if remoteErr.Message == "" {
		remoteErr.Message = "request failed"
		if text := http.StatusText(statusCode); text != "" && statusCode >= 300 {
			remoteErr.Message += " (" + text + ")"
		}
	}
	return remoteErr
}

// newTransport resolves defaults and validates the base URL. apiKey may
// be empty for the auth-only transport.
func newTransport(baseURL, apiKey string, httpClient *http.Client, clk clock.Clock, logger *slog.Logger) (*transport, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	normalized, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &transport{
		baseURL:    normalized,
		apiKey:     apiKey,
		httpClient: httpClient,
		clock:      clk,
		logger:     logger,
	}, nil
}

// defaultHTTPTimeout bounds each request when the caller supplies no
// http.Client.
const defaultHTTPTimeout = 30 * time.Second
