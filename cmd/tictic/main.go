// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tictic-dev/tictic-go/tictic"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], newApp())
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

func run(ctx context.Context, args []string, a *app) error {
	return rootCommand(a).Execute(ctx, args)
}

// exitCode reports err on w and returns the process exit code. Commands
// that print their own output return an error with an ExitCode method;
// no "error:" line is printed for those.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	if help := tictic.HelpText(err); help != "" {
		fmt.Fprintf(w, "help: %s\n", help)
	}
	return 1
}
