// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// helpAliases are recognized as the first token, with or without
// leading dashes and in any case.
var helpAliases = []string{"help", "h", "?", "version", "v"}

func isHelpAlias(token string) bool {
	bare := strings.TrimLeft(token, "-")
	for _, alias := range helpAliases {
		if strings.EqualFold(bare, alias) {
			return true
		}
	}
	return false
}

// Invocation is a command line split into its routing parts.
type Invocation struct {
	Context    Context
	SubContext Context
	ActionName string
	Remaining  []string
}

// Routed is the result of routing: either a constructed action ready to
// run, or help to print.
type Routed struct {
	Invocation Invocation
	Descriptor Descriptor
	Action     Action

	// Help is set instead of Action when there is nothing to run.
	Help *Help
}

// Router turns command lines into actions.
type Router struct {
	registry  *Registry
	container *Container
	version   string
}

// NewRouter returns a Router over registry that constructs actions from
// container. version is shown in help output.
func NewRouter(registry *Registry, container *Container, version string) *Router {
	return &Router{registry: registry, container: container, version: version}
}

// Parse splits args into an Invocation. Context tokens are consumed
// only when they name a context.
func Parse(args []string) Invocation {
	var invocation Invocation
	remaining := args

	if len(remaining) > 0 {
		if context, ok := ParseContext(remaining[0]); ok {
			invocation.Context = context
			remaining = remaining[1:]
			if len(remaining) > 0 {
				if subContext, ok := ParseContext(remaining[0]); ok {
					invocation.SubContext = subContext
					remaining = remaining[1:]
				}
			}
		}
	}
	if len(remaining) > 0 {
		invocation.ActionName = remaining[0]
		remaining = remaining[1:]
	}
	invocation.Remaining = remaining
	return invocation
}

// Route resolves args. Unknown input and flag errors produce a Routed
// with Help set; only a failure to construct a registered action (a
// missing capability, a bad flag declaration) is returned as an error.
func (r *Router) Route(args []string) (Routed, error) {
	if len(args) == 0 || isHelpAlias(args[0]) {
		return Routed{Help: r.help(None, None)}, nil
	}

	invocation := Parse(args)
	routed := Routed{Invocation: invocation}

	if invocation.ActionName == "" || isHelpAlias(invocation.ActionName) {
		routed.Help = r.help(invocation.Context, invocation.SubContext)
		return routed, nil
	}

	descriptor, found := r.registry.Lookup(invocation.Context, invocation.SubContext, invocation.ActionName)
	if !found {
		help := r.help(invocation.Context, invocation.SubContext)
		name := strings.Join(append(scopeTokens(invocation.Context, invocation.SubContext), invocation.ActionName), " ")
		help.Errors = append(help.Errors, fmt.Errorf("unknown action %q", name))
		help.Suggestion = suggestAction(invocation.ActionName, help.Descriptors)
		routed.Help = help
		return routed, nil
	}
	routed.Descriptor = descriptor

	action, err := r.construct(descriptor)
	if err != nil {
		return Routed{}, err
	}

	flagSet, err := newFlagSet(descriptor.Name, action.Params())
	if err != nil {
		return Routed{}, fmt.Errorf("%s: %w", descriptor, err)
	}

	actionHelp := &Help{
		Version: r.version,
		Action:  &descriptor,
		Flags:   flagSet,
	}
	if err := flagSet.Parse(invocation.Remaining); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			actionHelp.Errors = append(actionHelp.Errors, err)
			actionHelp.Suggestion = suggestFlag(invocation.Remaining, flagSet)
		}
		routed.Help = actionHelp
		return routed, nil
	}

	positional := flagSet.Args()
	if parser, ok := action.(PositionalParser); ok {
		if err := parser.ParseArgs(positional); err != nil {
			actionHelp.Errors = append(actionHelp.Errors, err)
			routed.Help = actionHelp
			return routed, nil
		}
	} else if len(positional) > 0 {
		actionHelp.Errors = append(actionHelp.Errors,
			fmt.Errorf("unexpected arguments: %s", strings.Join(positional, " ")))
		routed.Help = actionHelp
		return routed, nil
	}

	routed.Action = action
	return routed, nil
}

// construct checks the descriptor's declared capabilities, then runs
// its constructor.
func (r *Router) construct(descriptor Descriptor) (Action, error) {
	for _, need := range descriptor.Needs {
		if !r.container.Has(need) {
			return nil, fmt.Errorf("constructing %s: no capability registered for %s", descriptor, need)
		}
	}
	if descriptor.New == nil {
		return nil, fmt.Errorf("constructing %s: descriptor has no constructor", descriptor)
	}
	action, err := descriptor.New(r.container)
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", descriptor, err)
	}
	return action, nil
}

func (r *Router) help(context, subContext Context) *Help {
	return &Help{
		Version:     r.version,
		Context:     context,
		SubContext:  subContext,
		Descriptors: r.registry.Scoped(context, subContext),
	}
}

func scopeTokens(context, subContext Context) []string {
	var tokens []string
	if context != None {
		tokens = append(tokens, context.String())
	}
	if subContext != None {
		tokens = append(tokens, subContext.String())
	}
	return tokens
}
