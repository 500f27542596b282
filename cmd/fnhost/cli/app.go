// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/bureau-foundation/fnhost/lib/exitcode"
)

// DebugEnv enables full error output when set to "1" or "true".
const DebugEnv = "FNHOST_CLI_DEBUG"

// DebugFromEnv reports whether DebugEnv is set.
func DebugFromEnv() bool {
	value := os.Getenv(DebugEnv)
	return value == "1" || value == "true"
}

// App routes and runs one command line.
type App struct {
	Router *Router
	Stdout io.Writer
	Stderr io.Writer

	// Debug prints error chains and panic stacks instead of one line.
	Debug bool
}

// Run routes args and runs the result. The returned error, when not
// nil, is an *exitcode.Error; the message has already been written to
// Stderr. Only an *exitcode.Error from an action passes its code
// through. Other errors with an ExitCode method, such as
// *exec.ExitError, are reported as general errors.
func (a *App) Run(ctx context.Context, args []string) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			a.reportPanic(recovered, debug.Stack())
			err = exitcode.With(exitcode.GeneralError)
		}
	}()

	routed, err := a.Router.Route(args)
	if err != nil {
		a.report(err)
		return exitcode.With(exitcode.GeneralError)
	}

	if routed.Help != nil {
		output := a.Stdout
		if len(routed.Help.Errors) > 0 {
			output = a.Stderr
		}
		routed.Help.Write(output)
		if code := routed.Help.ExitCode(); code != exitcode.Success {
			return exitcode.With(code)
		}
		return nil
	}

	err = routed.Action.Run(ctx)
	if err == nil {
		return nil
	}
	var exit *exitcode.Error
	if errors.As(err, &exit) {
		// The action already wrote its own output.
		return exitcode.With(exit.Code)
	}
	a.report(err)
	return exitcode.With(exitcode.GeneralError)
}

func (a *App) report(err error) {
	fmt.Fprintf(a.Stderr, "error: %v\n", err)
	if !a.Debug {
		return
	}
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(a.Stderr, "  caused by (%T): %v\n", cause, cause)
	}
}

func (a *App) reportPanic(recovered any, stack []byte) {
	if !a.Debug {
		fmt.Fprintf(a.Stderr, "error: internal failure: %v (set %s=1 for details)\n", recovered, DebugEnv)
		return
	}
	fmt.Fprintf(a.Stderr, "panic: %v\n\n%s", recovered, stack)
}
