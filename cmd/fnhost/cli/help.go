// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fnhost/lib/exitcode"
)

// Help is usage output: either a listing of actions in a scope, or one
// action's flags. Errors explain why help is shown instead of running
// something.
type Help struct {
	Version string

	Context     Context
	SubContext  Context
	Descriptors []Descriptor

	// Action and Flags are set for action-specific help.
	Action *Descriptor
	Flags  *pflag.FlagSet

	Errors []error

	// Suggestion is a "did you mean" candidate, possibly empty.
	Suggestion string
}

// ExitCode is ParseError when the help carries errors, otherwise
// Success.
func (h *Help) ExitCode() int {
	if len(h.Errors) > 0 {
		return exitcode.ParseError
	}
	return exitcode.Success
}

// Write renders the help to w.
func (h *Help) Write(w io.Writer) {
	for _, err := range h.Errors {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	if h.Suggestion != "" {
		fmt.Fprintf(w, "Did you mean %q?\n", h.Suggestion)
	}
	if len(h.Errors) > 0 {
		fmt.Fprintln(w)
	}

	if h.Action != nil {
		h.writeAction(w)
		return
	}
	h.writeListing(w)
}

func (h *Help) writeAction(w io.Writer) {
	if h.Action.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", h.Action.Summary)
	}
	usage := "fnhost " + h.Action.String() + " [flags]"
	if h.Action.Usage != "" {
		usage += " " + h.Action.Usage
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	if h.Flags != nil && h.Flags.HasFlags() {
		fmt.Fprintf(w, "\nFlags:\n%s", h.Flags.FlagUsages())
	}
}

func (h *Help) writeListing(w io.Writer) {
	fmt.Fprintf(w, "fnhost %s\n\n", h.Version)

	scope := strings.Join(scopeTokens(h.Context, h.SubContext), " ")
	if scope == "" {
		fmt.Fprintf(w, "Usage:\n  fnhost [context] [subcontext] <action> [flags]\n")
	} else {
		fmt.Fprintf(w, "Usage:\n  fnhost %s <action> [flags]\n", scope)
	}

	if len(h.Descriptors) > 0 {
		fmt.Fprintf(w, "\nActions:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, descriptor := range h.Descriptors {
			fmt.Fprintf(tw, "  %s\t%s\n", descriptor.String(), descriptor.Summary)
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "\nRun 'fnhost <action> --help' for more information on an action.\n")
}
