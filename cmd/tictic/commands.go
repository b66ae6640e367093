// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/tictic-dev/tictic-go/cmd/tictic/cli"
	"github.com/tictic-dev/tictic-go/lib/config"
	"github.com/tictic-dev/tictic-go/lib/version"
	"github.com/tictic-dev/tictic-go/tictic"
)

func rootCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:   "tictic",
		Output: a.stderr,
		Description: `TicTic: send WhatsApp messages from the command line.

Link a phone once with "tictic connect", then send with "tictic send".
Settings come from flags, then TICTIC_API_KEY / TICTIC_BASE_URL, then
the config file named by --config or TICTIC_CONFIG.`,
		Subcommands: []*cli.Command{
			connectCommand(a),
			statusCommand(a),
			sendCommand(a),
			usageCommand(a),
			signupCommand(a),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string) error {
					fmt.Fprintf(a.stdout, "tictic %s\n", version.Full())
					return nil
				},
			},
		},
		Environment: []cli.EnvVar{
			{Name: config.EnvAPIKey, Description: "API key, overridden by --api-key"},
			{Name: config.EnvBaseURL, Description: "API origin, overridden by --base-url"},
			{Name: config.EnvConfig, Description: "config file (YAML, TOML or JSONC), overridden by --config"},
		},
		Examples: []cli.Example{
			{
				Description: "Create an API key for your number",
				Command:     "tictic signup interactive 5511999999999",
			},
			{
				Description: "Link WhatsApp by scanning the QR code",
				Command:     "TICTIC_API_KEY=tk_... tictic connect",
			},
			{
				Description: "Send a message",
				Command:     "tictic send 5511999999999 'Your order has shipped'",
			},
		},
	}
}

type connectParams struct {
	globalParams
	pollParams
	cli.JSONOutput
}

func connectCommand(a *app) *cli.Command {
	var params connectParams
	return &cli.Command{
		Name:    "connect",
		Summary: "Link WhatsApp to your API key",
		Description: `Create the WhatsApp session for this API key and wait for it to be
ready. If the session is not linked yet, a QR code is printed: open
WhatsApp, go to Settings > Linked devices, and scan it.

Exits 1 if the session fails or is not linked before the poll budget
runs out (60 checks, 2s apart, by default).`,
		Usage: "tictic connect [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("connect", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			client, err := a.newClient(params.globalParams, params.pollParams, params.OutputJSON)
			if err != nil {
				return err
			}
			status, err := client.Connect(ctx)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(a.stdout, status); done {
				return err
			}
			fmt.Fprintln(a.stdout, a.readyLine("connected", status.Phone))
			return nil
		},
	}
}

type statusParams struct {
	globalParams
	cli.JSONOutput
}

func statusCommand(a *app) *cli.Command {
	var params statusParams
	return &cli.Command{
		Name:    "status",
		Summary: "Show the WhatsApp session status",
		Description: `Show whether the WhatsApp session for this API key can send.

Exits 0 when the session is ready and 1 otherwise, so scripts can
check readiness before sending.`,
		Usage: "tictic status [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			client, err := a.newClient(params.globalParams, pollParams{}, params.OutputJSON)
			if err != nil {
				return err
			}

			status, err := client.Status(ctx)
			if tictic.IsSessionNotFound(err) {
				status, err = &tictic.Status{Status: tictic.StatusUninitialized, NextStep: "run 'tictic connect'"}, nil
			}
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(a.stdout, status); done {
				if err == nil && !status.IsReady() {
					return &cli.ExitError{Code: 1}
				}
				return err
			}

			if status.IsReady() {
				fmt.Fprintln(a.stdout, a.readyLine("ready", status.Phone))
				return nil
			}
			label := string(status.Status)
			if label == "" {
				label = "not ready"
			}
			fmt.Fprintln(a.stdout, a.style(pendingStyle, label))
			if status.NextStep != "" {
				fmt.Fprintf(a.stdout, "next: %s\n", status.NextStep)
			}
			return &cli.ExitError{Code: 1}
		},
	}
}

type sendParams struct {
	globalParams
	pollParams
	cli.JSONOutput
	Connect bool `flag:"connect" desc:"connect first if the session is not ready"`
}

func sendCommand(a *app) *cli.Command {
	var params sendParams
	return &cli.Command{
		Name:    "send",
		Summary: "Send a text message",
		Description: `Send a WhatsApp text message. Remaining arguments after the phone
number are joined with spaces to form the text.

Sends are never retried: a failed send may or may not have been
delivered, and retrying could deliver it twice.`,
		Usage: "tictic send <phone> <text>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Send a message",
				Command:     "tictic send 5511999999999 'Hello from TicTic'",
			},
			{
				Description: "Link the session first if needed",
				Command:     "tictic send --connect 5511999999999 'Hello'",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("send", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: tictic send <phone> <text>...")
			}
			to, text := args[0], strings.Join(args[1:], " ")

			client, err := a.newClient(params.globalParams, params.pollParams, params.OutputJSON)
			if err != nil {
				return err
			}

			var result *tictic.SendResult
			if params.Connect {
				result, err = client.ConnectAndSendText(ctx, to, text)
			} else {
				result, err = client.SendText(ctx, to, text)
			}
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(a.stdout, result); done {
				return err
			}
			fmt.Fprintf(a.stdout, "sent %s to %s (%s)\n", result.ID, result.To, result.Status)
			if result.Usage != nil {
				fmt.Fprintf(a.stdout, "%d of %d messages remaining\n", result.Usage.Remaining, result.Usage.Limit)
			}
			return nil
		},
	}
}

type usageParams struct {
	globalParams
	cli.JSONOutput
}

func usageCommand(a *app) *cli.Command {
	var params usageParams
	return &cli.Command{
		Name:    "usage",
		Summary: "Show message usage for this API key",
		Usage:   "tictic usage [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("usage", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			client, err := a.newClient(params.globalParams, pollParams{}, params.OutputJSON)
			if err != nil {
				return err
			}
			snapshot, err := client.GetUsage(ctx)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(a.stdout, snapshot); done {
				return err
			}
			fmt.Fprintf(a.stdout, "used %d of %d (%d remaining)\n", snapshot.Used, snapshot.Limit, snapshot.Remaining)
			return nil
		},
	}
}

var (
	readyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// style renders text with style only when stdout is a terminal.
func (a *app) style(style lipgloss.Style, text string) string {
	if !cli.IsTerminal(a.stdout) {
		return text
	}
	return style.Render(text)
}

// readyLine renders label, followed by the linked phone when known.
func (a *app) readyLine(label, phone string) string {
	line := a.style(readyStyle, label)
	if phone != "" {
		line += " as " + phone
	}
	return line
}
