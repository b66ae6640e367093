// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tictic-dev/tictic-go/cmd/tictic/cli"
	"github.com/tictic-dev/tictic-go/lib/config"
)

type signupParams struct {
	globalParams
	cli.JSONOutput
}

// issuedKey is the --json result of a successful verification.
type issuedKey struct {
	Phone  string `json:"phone"`
	APIKey string `json:"api_key"`
}

func signupCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "signup",
		Summary: "Create an API key by verifying your phone number",
		Description: `Create an API key by phone verification. A code is sent to the phone
over WhatsApp; verifying it issues the key.

Use "request" then "verify" from scripts, or "interactive" to do both
and type the code when prompted.`,
		Subcommands: []*cli.Command{
			signupRequestCommand(a),
			signupVerifyCommand(a),
			signupInteractiveCommand(a),
		},
	}
}

func signupRequestCommand(a *app) *cli.Command {
	var params signupParams
	return &cli.Command{
		Name:    "request",
		Summary: "Send a verification code to a phone number",
		Usage:   "tictic signup request <phone> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("request", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: tictic signup request <phone>")
			}
			auth, err := a.newAuthClient(params.globalParams)
			if err != nil {
				return err
			}
			if err := auth.RequestCode(ctx, args[0]); err != nil {
				return err
			}
			if done, err := params.EmitJSON(a.stdout, map[string]string{"phone": args[0], "status": "code_sent"}); done {
				return err
			}
			fmt.Fprintf(a.stdout, "verification code sent to %s\n", args[0])
			fmt.Fprintf(a.stdout, "next: tictic signup verify %s <code>\n", args[0])
			return nil
		},
	}
}

func signupVerifyCommand(a *app) *cli.Command {
	var params signupParams
	return &cli.Command{
		Name:    "verify",
		Summary: "Exchange a verification code for an API key",
		Usage:   "tictic signup verify <phone> <code> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: tictic signup verify <phone> <code>")
			}
			auth, err := a.newAuthClient(params.globalParams)
			if err != nil {
				return err
			}
			apiKey, err := auth.VerifyCode(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return a.printIssuedKey(params.JSONOutput, issuedKey{Phone: args[0], APIKey: apiKey})
		},
	}
}

func signupInteractiveCommand(a *app) *cli.Command {
	var params signupParams
	return &cli.Command{
		Name:    "interactive",
		Summary: "Request a code, prompt for it, and print the API key",
		Usage:   "tictic signup interactive <phone> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("interactive", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: tictic signup interactive <phone>")
			}
			auth, err := a.newAuthClient(params.globalParams)
			if err != nil {
				return err
			}
			reader := bufio.NewReader(a.stdin)
			apiKey, err := auth.Signup(ctx, args[0], func(_ context.Context, phone string) (string, error) {
				fmt.Fprintf(a.stderr, "Enter the code sent to %s: ", phone)
				line, err := reader.ReadString('\n')
				if err != nil && !(errors.Is(err, io.EOF) && line != "") {
					return "", err
				}
				return strings.TrimSpace(line), nil
			})
			if err != nil {
				return err
			}
			return a.printIssuedKey(params.JSONOutput, issuedKey{Phone: args[0], APIKey: apiKey})
		},
	}
}

func (a *app) printIssuedKey(output cli.JSONOutput, key issuedKey) error {
	if done, err := output.EmitJSON(a.stdout, key); done {
		return err
	}
	fmt.Fprintf(a.stdout, "API key: %s\n", key.APIKey)
	fmt.Fprintf(a.stdout, "export %s=%s\n", config.EnvAPIKey, key.APIKey)
	return nil
}
