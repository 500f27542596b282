// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// fnhost manages the local function host for a project directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/commands"
	"github.com/bureau-foundation/fnhost/lib/exitcode"
)

func main() {
	if err := run(); err != nil {
		// App.Run has already printed anything worth saying; its errors
		// only carry the exit code.
		var exit *exitcode.Error
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := commands.NewApp()
	if err != nil {
		return err
	}
	return app.Run(ctx, os.Args[1:])
}
