// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

// Package tictictest provides an in-memory TicTic API for tests. The
// Server speaks the same envelope and routes as the hosted service and
// lets tests script the session lifecycle, inject failures, and inspect
// what the client sent.
//
//	server := tictictest.NewServer(t, "k1")
//	server.SetQR("pending", "QRDATA")
//	server.SetStatuses(
//	    tictictest.Status{Status: "initializing"},
//	    tictictest.Status{Ready: true, Status: "ready"},
//	)
//	client, _ := tictic.NewClient(tictic.Config{APIKey: "k1", BaseURL: server.URL()})
package tictictest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Status is one scripted response of GET /v1/status.
type Status struct {
	Ready    bool   `json:"ready"`
	Status   string `json:"status,omitempty"`
	Phone    string `json:"phone,omitempty"`
	NextStep string `json:"next_step,omitempty"`
}

// Message is a message accepted by POST /v1/messages.
type Message struct {
	ID        string `json:"id"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type pairing struct {
	Status       string   `json:"status"`
	QR           string   `json:"qr,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
}

type usage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

type fault struct {
	statusCode int
	code       string
	message    string
}

// Server is a fake TicTic API backed by memory. All methods are safe for
// concurrent use with in-flight requests.
type Server struct {
	server *httptest.Server
	apiKey string
	now    func() time.Time

	mu               sync.Mutex
	pairing          *pairing
	statuses         []Status
	statusIndex      int
	messages         []Message
	used             int
	limit            int
	verificationCode string
	pendingCodes     map[string]bool
	issuedKey        string
	faults           map[string][]fault
	requests         map[string]int
	lastHeaders      map[string]http.Header
}

// NewServer starts a Server that accepts apiKey and registers its
// shutdown with t.Cleanup.
func NewServer(t testing.TB, apiKey string) *Server {
	t.Helper()
	server := New(apiKey)
	t.Cleanup(server.Close)
	return server
}

// New starts a Server that accepts apiKey. The caller must Close it.
func New(apiKey string) *Server {
	s := &Server{
		apiKey:           apiKey,
		now:              time.Now,
		limit:            1000,
		verificationCode: "123456",
		issuedKey:        "tk_test_issued",
		pendingCodes:     make(map[string]bool),
		faults:           make(map[string][]fault),
		requests:         make(map[string]int),
		lastHeaders:      make(map[string]http.Header),
	}
	s.server = httptest.NewServer(s.routes())
	return s
}

// URL returns the base URL to configure the client with.
func (s *Server) URL() string { return s.server.URL }

// Close shuts the server down.
func (s *Server) Close() { s.server.Close() }

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(s.record)
	router.Use(s.injectFaults)

	router.Route("/v1", func(r chi.Router) {
		r.Post("/auth", s.handleAuth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAPIKey)
			r.Post("/messages", s.handleSendMessage)
			r.Get("/status", s.handleStatus)
			r.Get("/qr", s.handleQR)
			r.Get("/usage", s.handleUsage)
		})
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path, "")
	})
	return router
}

// SetQR scripts the GET /v1/qr response. A status of "already_connected"
// models a session that is already linked.
func (s *Server) SetQR(status, qr string, instructions ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairing = &pairing{Status: status, QR: qr, Instructions: instructions}
}

// SetStatuses scripts successive GET /v1/status responses. Each request
// consumes one entry; the last entry repeats once the script runs out.
// With no script the endpoint answers 404 SESSION_NOT_FOUND.
func (s *Server) SetStatuses(statuses ...Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append([]Status(nil), statuses...)
	s.statusIndex = 0
}

// SetUsage sets the account counters. A limit of zero means unlimited.
func (s *Server) SetUsage(used, limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used = used
	s.limit = limit
}

// SetVerificationCode sets the code the signup flow expects and the API
// key it issues on success.
func (s *Server) SetVerificationCode(code, issuedKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verificationCode = code
	s.issuedKey = issuedKey
}

// FailNext makes the next request to path fail with an error envelope.
// Faults queue: calling FailNext twice fails the next two requests.
func (s *Server) FailNext(path string, statusCode int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = append(s.faults[path], fault{statusCode: statusCode, code: code, message: message})
}

// Requests returns how many requests reached path, including rejected
// ones.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// LastHeaders returns the headers of the most recent request to path, or
// nil if there was none.
func (s *Server) LastHeaders(path string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeaders[path]
}

// Messages returns a copy of every accepted message, oldest first.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.lastHeaders[r.URL.Path] = r.Header.Clone()
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		queue := s.faults[r.URL.Path]
		var injected *fault
		if len(queue) > 0 {
			injected = &queue[0]
			s.faults[r.URL.Path] = queue[1:]
		}
		s.mu.Unlock()

		if injected != nil {
			writeError(w, injected.statusCode, injected.code, injected.message, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" || key != s.apiKey {
			writeError(w, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid or missing API key",
				"Check TICTIC_API_KEY or create a key with the signup flow")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sendMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var request sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error(), "")
		return
	}
	if !validPhone(request.To) {
		writeError(w, http.StatusBadRequest, "INVALID_PHONE", "Invalid phone number",
			"Use international format, digits only, e.g. 5511999999999")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && s.used >= s.limit {
		writeError(w, http.StatusTooManyRequests, "USAGE_LIMIT_EXCEEDED", "Monthly message limit reached", "")
		return
	}
	s.used++
	message := Message{
		ID:        fmt.Sprintf("m_%d", len(s.messages)+1),
		To:        request.To,
		Text:      request.Text,
		Status:    "queued",
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	s.messages = append(s.messages, message)

	writeData(w, http.StatusOK, map[string]any{
		"id":         message.ID,
		"to":         message.To,
		"status":     message.Status,
		"created_at": message.CreatedAt,
		"usage":      s.usageLocked(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if len(s.statuses) == 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "No WhatsApp session exists for this API key",
			"Run connect to create a session")
		return
	}
	status := s.statuses[s.statusIndex]
	if s.statusIndex < len(s.statuses)-1 {
		s.statusIndex++
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, status)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	response := pairing{Status: "pending"}
	if s.pairing != nil {
		response = *s.pairing
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, response)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snapshot := s.usageLocked()
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"usage": snapshot})
}

type authRequest struct {
	Phone            string `json:"phone"`
	VerificationCode string `json:"verification_code"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var request authRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error(), "")
		return
	}
	if !validPhone(request.Phone) {
		writeError(w, http.StatusBadRequest, "INVALID_PHONE", "Invalid phone number", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if request.VerificationCode == "" {
		s.pendingCodes[request.Phone] = true
		writeData(w, http.StatusOK, map[string]any{"message": "Verification code sent"})
		return
	}
	if !s.pendingCodes[request.Phone] || request.VerificationCode != s.verificationCode {
		writeError(w, http.StatusBadRequest, "INVALID_CODE", "Invalid or expired verification code",
			"Request a new code and try again")
		return
	}
	delete(s.pendingCodes, request.Phone)
	writeData(w, http.StatusOK, map[string]any{"api_key": s.issuedKey})
}

func (s *Server) usageLocked() usage {
	remaining := 0
	if s.limit > s.used {
		remaining = s.limit - s.used
	}
	return usage{Used: s.used, Limit: s.limit, Remaining: remaining}
}

// validPhone accepts an optional leading + followed by 8 to 15 digits.
func validPhone(phone string) bool {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 8 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, statusCode int, code, message, help string) {
	detail := map[string]any{"message": message, "code": code}
	if help != "" {
		detail["help"] = help
	}
	writeJSON(w, statusCode, map[string]any{"success": false, "error": detail})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
