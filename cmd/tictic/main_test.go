// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/tictic-dev/tictic-go/cmd/tictic/cli"
	"github.com/tictic-dev/tictic-go/tictic"
	"github.com/tictic-dev/tictic-go/tictic/tictictest"
)

type fakeRenderer struct {
	mu       sync.Mutex
	payloads []string
}

func (r *fakeRenderer) Render(ctx context.Context, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return nil
}

type result struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes args against server with the API key taken from env.
func runCLI(t *testing.T, server *tictictest.Server, env map[string]string, stdin string, args ...string) result {
	t.Helper()
	if env == nil {
		env = map[string]string{"TICTIC_API_KEY": "k1"}
	}
	env["TICTIC_BASE_URL"] = server.URL()

	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:    strings.NewReader(stdin),
		stdout:   &stdout,
		stderr:   &stderr,
		getenv:   func(name string) string { return env[name] },
		renderer: &fakeRenderer{},
	}
	err := run(context.Background(), args, a)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestUsage(t *testing.T) {
	server := tictictest.NewServer(t, "k1")
	server.SetUsage(12, 100)

	out := runCLI(t, server, nil, "", "usage")
	if out.err != nil {
		t.Fatalf("usage failed: %v", out.err)
	}
	if out.stdout != "used 12 of 100 (88 remaining)\n" {
		t.Errorf("unexpected output: %q", out.stdout)
	}

	out = runCLI(t, server, nil, "", "usage", "--json")
	if out.err != nil {
		t.Fatalf("usage --json failed: %v", out.err)
	}
	var snapshot tictic.UsageSnapshot
	if err := json.Unmarshal([]byte(out.stdout), &snapshot); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.stdout)
	}
	if snapshot.Remaining != 88 {
		t.Errorf("unexpected snapshot: %+v", snapshot)
	}
}

func TestSend(t *testing.T) {
	t.Run("joins text arguments", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		out := runCLI(t, server, nil, "", "send", "5511999999999", "hello", "there")
		if out.err != nil {
			t.Fatalf("send failed: %v", out.err)
		}
		if !strings.HasPrefix(out.stdout, "sent m_1 to 5511999999999 (queued)\n") {
			t.Errorf("unexpected output: %q", out.stdout)
		}
		messages := server.Messages()
		if len(messages) != 1 || messages[0].Text != "hello there" {
			t.Errorf("unexpected messages: %+v", messages)
		}
	})

	t.Run("flag key overrides env", func(t *testing.T) {
		server := tictictest.NewServer(t, "k_flag")
		out := runCLI(t, server, map[string]string{"TICTIC_API_KEY": "k_env"}, "", "send", "--api-key", "k_flag", "5511999999999", "hi")
		if out.err != nil {
			t.Fatalf("send failed: %v", out.err)
		}
	})

	t.Run("connect first", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		server.SetQR("pending", "QRDATA")
		server.FailNext("/v1/status", 404, tictic.ErrCodeSessionNotFound, "no session")
		server.SetStatuses(tictictest.Status{Status: "initializing"}, tictictest.Status{Ready: true})

		out := runCLI(t, server, nil, "", "send", "--connect", "--poll-interval", "1ms", "5511999999999", "hi")
		if out.err != nil {
			t.Fatalf("send --connect failed: %v", out.err)
		}
		if server.Requests("/v1/qr") != 1 || len(server.Messages()) != 1 {
			t.Errorf("expected one QR fetch and one message, got %d and %d", server.Requests("/v1/qr"), len(server.Messages()))
		}
	})

	t.Run("remote error with help", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		out := runCLI(t, server, nil, "", "send", "not-a-phone", "hi")
		if !tictic.IsRemoteError(out.err, tictic.ErrCodeInvalidPhone) {
			t.Fatalf("expected INVALID_PHONE, got %v", out.err)
		}

		var stderr bytes.Buffer
		if code := exitCode(out.err, &stderr); code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
		if !strings.Contains(stderr.String(), "error: tictic: HTTP 400 INVALID_PHONE: Invalid phone number") {
			t.Errorf("unexpected stderr: %q", stderr.String())
		}
		if !strings.Contains(stderr.String(), "help: Use international format") {
			t.Errorf("stderr should include the help hint: %q", stderr.String())
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		out := runCLI(t, server, nil, "", "send", "5511999999999")
		if out.err == nil || !strings.Contains(out.err.Error(), "usage:") {
			t.Errorf("expected usage error, got %v", out.err)
		}
	})
}

func TestMissingAPIKey(t *testing.T) {
	server := tictictest.NewServer(t, "k1")
	out := runCLI(t, server, map[string]string{}, "", "usage")

	var configErr *tictic.ConfigurationError
	if !errors.As(out.err, &configErr) {
		t.Fatalf("expected *ConfigurationError, got %v", out.err)
	}
	if !strings.Contains(configErr.Message, "TICTIC_API_KEY") {
		t.Errorf("error should name TICTIC_API_KEY: %v", configErr)
	}
	if server.Requests("/v1/usage") != 0 {
		t.Error("no request should be sent without a key")
	}
}

func TestStatus(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		server.SetStatuses(tictictest.Status{Ready: true, Status: "ready", Phone: "5511999999999"})
		out := runCLI(t, server, nil, "", "status")
		if out.err != nil {
			t.Fatalf("status failed: %v", out.err)
		}
		if out.stdout != "ready as 5511999999999\n" {
			t.Errorf("unexpected output: %q", out.stdout)
		}
	})

	t.Run("no session exits 1", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		out := runCLI(t, server, nil, "", "status")
		var exitErr *cli.ExitError
		if !errors.As(out.err, &exitErr) || exitErr.Code != 1 {
			t.Fatalf("expected exit code 1, got %v", out.err)
		}
		if !strings.Contains(out.stdout, "uninitialized") || !strings.Contains(out.stdout, "tictic connect") {
			t.Errorf("unexpected output: %q", out.stdout)
		}

		var stderr bytes.Buffer
		if code := exitCode(out.err, &stderr); code != 1 || stderr.Len() != 0 {
			t.Errorf("ExitError should exit 1 silently, got %d with %q", code, stderr.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		server.SetStatuses(tictictest.Status{Status: "initializing", NextStep: "scan the QR code"})
		out := runCLI(t, server, nil, "", "status", "--json")
		var status tictic.Status
		if err := json.Unmarshal([]byte(out.stdout), &status); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out.stdout)
		}
		if status.NextStep != "scan the QR code" {
			t.Errorf("unexpected status: %+v", status)
		}
		var exitErr *cli.ExitError
		if !errors.As(out.err, &exitErr) {
			t.Errorf("pending session should exit 1, got %v", out.err)
		}
	})
}

func TestConnect(t *testing.T) {
	t.Run("scan then ready", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		server.SetQR("pending", "QRDATA")
		server.SetStatuses(tictictest.Status{Status: "initializing"}, tictictest.Status{Ready: true, Phone: "5511999999999"})

		out := runCLI(t, server, nil, "", "connect", "--poll-interval", "1ms")
		if out.err != nil {
			t.Fatalf("connect failed: %v", out.err)
		}
		if out.stdout != "connected as 5511999999999\n" {
			t.Errorf("unexpected output: %q", out.stdout)
		}
		if !strings.Contains(out.stderr, "connect state") {
			t.Errorf("expected state transition logs on stderr: %q", out.stderr)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		server.SetQR("pending", "QRDATA")
		server.SetStatuses(tictictest.Status{Status: "initializing"})

		out := runCLI(t, server, nil, "", "connect", "--poll-interval", "1ms", "--max-attempts", "3")
		if !errors.Is(out.err, tictic.ErrConnectionTimeout) {
			t.Fatalf("expected ErrConnectionTimeout, got %v", out.err)
		}
		if got := server.Requests("/v1/status"); got != 3 {
			t.Errorf("expected 3 status checks, got %d", got)
		}
	})
}

func TestSignup(t *testing.T) {
	t.Run("request then verify", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		server.SetVerificationCode("424242", "tk_new")

		out := runCLI(t, server, map[string]string{}, "", "signup", "request", "5511999999999")
		if out.err != nil {
			t.Fatalf("signup request failed: %v", out.err)
		}
		if !strings.Contains(out.stdout, "tictic signup verify 5511999999999 <code>") {
			t.Errorf("unexpected output: %q", out.stdout)
		}

		out = runCLI(t, server, map[string]string{}, "", "signup", "verify", "--json", "5511999999999", "424242")
		if out.err != nil {
			t.Fatalf("signup verify failed: %v", out.err)
		}
		var issued issuedKey
		if err := json.Unmarshal([]byte(out.stdout), &issued); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out.stdout)
		}
		if issued.APIKey != "tk_new" {
			t.Errorf("unexpected key: %+v", issued)
		}
	})

	t.Run("interactive", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		server.SetVerificationCode("424242", "tk_new")

		out := runCLI(t, server, map[string]string{}, "424242\n", "signup", "interactive", "5511999999999")
		if out.err != nil {
			t.Fatalf("signup interactive failed: %v", out.err)
		}
		if !strings.Contains(out.stderr, "Enter the code sent to 5511999999999") {
			t.Errorf("missing prompt: %q", out.stderr)
		}
		if !strings.Contains(out.stdout, "export TICTIC_API_KEY=tk_new") {
			t.Errorf("unexpected output: %q", out.stdout)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		server := tictictest.NewServer(t, "k1")
		out := runCLI(t, server, map[string]string{}, "000000", "signup", "interactive", "5511999999999")
		if !tictic.IsRemoteError(out.err, tictic.ErrCodeInvalidCode) {
			t.Errorf("expected INVALID_CODE, got %v", out.err)
		}
	})
}

func TestVersionAndDispatch(t *testing.T) {
	server := tictictest.NewServer(t, "k1")

	out := runCLI(t, server, nil, "", "version")
	if out.err != nil || !strings.HasPrefix(out.stdout, "tictic ") {
		t.Errorf("unexpected version output: %q (%v)", out.stdout, out.err)
	}

	out = runCLI(t, server, nil, "", "stauts")
	if out.err == nil || !strings.Contains(out.err.Error(), `did you mean "status"`) {
		t.Errorf("expected suggestion, got %v", out.err)
	}

	out = runCLI(t, server, nil, "", "--help")
	if out.err != nil || !strings.Contains(out.stderr, "signup") {
		t.Errorf("help should list commands: %q (%v)", out.stderr, out.err)
	}
}

// TestJSONOutputWithTerminalRenderer runs connect with the built-in QR
// renderer: the code must land on stderr so stdout stays parseable.
func TestJSONOutputWithTerminalRenderer(t *testing.T) {
	tests := []struct {
		args []string
		// checksReady is set for commands that look at the session before
		// connecting; the first status then reports no session.
		checksReady bool
	}{
		{args: []string{"connect", "--json", "--poll-interval", "1ms"}},
		{args: []string{"send", "--connect", "--json", "--poll-interval", "1ms", "5511999999999", "hi"}, checksReady: true},
	}
	for _, test := range tests {
		args := test.args
		t.Run(args[0], func(t *testing.T) {
			server := tictictest.NewServer(t, "k1")
			server.SetQR("pending", "QRDATA", "Open WhatsApp")
			if test.checksReady {
				server.FailNext("/v1/status", 404, tictic.ErrCodeSessionNotFound, "no session")
			}
			server.SetStatuses(tictictest.Status{Status: "initializing"}, tictictest.Status{Ready: true, Phone: "5511999999999"})

			var stdout, stderr bytes.Buffer
			a := &app{
				stdin:  strings.NewReader(""),
				stdout: &stdout,
				stderr: &stderr,
				getenv: func(name string) string {
					return map[string]string{"TICTIC_API_KEY": "k1", "TICTIC_BASE_URL": server.URL()}[name]
				},
			}
			if err := run(context.Background(), args, a); err != nil {
				t.Fatalf("%v failed: %v", args, err)
			}

			var decoded map[string]any
			if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
				t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
			}
			if !strings.Contains(stderr.String(), "Scan this QR code") {
				t.Errorf("QR code should be rendered on stderr:\n%s", stderr.String())
			}
		})
	}
}

func TestConnectTextOutputRendersOnStdout(t *testing.T) {
	server := tictictest.NewServer(t, "k1")
	server.SetQR("pending", "QRDATA")
	server.SetStatuses(tictictest.Status{Ready: true})

	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:  strings.NewReader(""),
		stdout: &stdout,
		stderr: &stderr,
		getenv: func(name string) string {
			return map[string]string{"TICTIC_API_KEY": "k1", "TICTIC_BASE_URL": server.URL()}[name]
		},
	}
	if err := run(context.Background(), []string{"connect", "--poll-interval", "1ms"}, a); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Scan this QR code") || !strings.HasSuffix(stdout.String(), "connected\n") {
		t.Errorf("unexpected stdout:\n%s", stdout.String())
	}
}

func TestHelpListsConfigFormats(t *testing.T) {
	server := tictictest.NewServer(t, "k1")
	out := runCLI(t, server, nil, "", "connect", "--help")
	if out.err != nil {
		t.Fatalf("help failed: %v", out.err)
	}
	if !strings.Contains(out.stderr, "TOML") || !strings.Contains(out.stderr, "JSONC") {
		t.Errorf("--config help should name every format:\n%s", out.stderr)
	}

	out = runCLI(t, server, nil, "", "--help")
	if !strings.Contains(out.stderr, "Environment:") || !strings.Contains(out.stderr, "TICTIC_CONFIG") {
		t.Errorf("root help should list environment variables:\n%s", out.stderr)
	}
}
