// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package internaluse implements the hidden action that an elevated
// fnhost process runs on behalf of an unprivileged one. The unprivileged
// side builds the command line with [SetupListener]; the elevated side
// routes it back to this action like any other invocation.
package internaluse

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
	"github.com/bureau-foundation/fnhost/lib/elevation"
	"github.com/bureau-foundation/fnhost/lib/exitcode"
	"github.com/bureau-foundation/fnhost/lib/listener"
)

// ActionSetupListener reserves a listener port for the invoking user.
const ActionSetupListener = "setup-listener"

type params struct {
	Action string `flag:"action" desc:"privileged operation to perform (setup-listener)"`
	Port   int    `flag:"port" desc:"listener port the operation applies to"`
}

type action struct {
	params      params
	env         cli.Environment
	probe       elevation.PrivilegeProbe
	reservation listener.Reservation
}

// Descriptor registers the hidden internal-use action.
func Descriptor() cli.Descriptor {
	return cli.Descriptor{
		Name:    "internal-use",
		Summary: "Perform a privileged operation for another fnhost process",
		Hidden:  true,
		Needs: []reflect.Type{
			cli.Need[cli.Environment](),
			cli.Need[elevation.PrivilegeProbe](),
			cli.Need[listener.Reservation](),
		},
		New: func(container *cli.Container) (cli.Action, error) {
			env, err := cli.Resolve[cli.Environment](container)
			if err != nil {
				return nil, err
			}
			probe, err := cli.Resolve[elevation.PrivilegeProbe](container)
			if err != nil {
				return nil, err
			}
			reservation, err := cli.Resolve[listener.Reservation](container)
			if err != nil {
				return nil, err
			}
			return &action{env: env, probe: probe, reservation: reservation}, nil
		},
	}
}

func (a *action) Params() any { return &a.params }

func (a *action) Run(ctx context.Context) error {
	if !a.probe.Privileged() {
		fmt.Fprintln(a.env.Stderr, "internal-use must run as administrator")
		return exitcode.With(exitcode.MustRunAsAdmin)
	}
	return a.perform(ctx)
}

func (a *action) perform(context.Context) error {
	switch strings.ToLower(a.params.Action) {
	case ActionSetupListener:
		if err := a.reservation.Reserve(a.params.Port); err != nil {
			return fmt.Errorf("setting up listener on port %d: %w", a.params.Port, err)
		}
		fmt.Fprintf(a.env.Stdout, "listener on port %d reserved\n", a.params.Port)
		return nil
	case "":
		return fmt.Errorf("--action is required")
	default:
		return fmt.Errorf("unknown internal action %q", a.params.Action)
	}
}

// SetupListener returns the operation that makes port bindable by the
// current user. Its Args replay this package's action, so an elevated
// relaunch performs exactly what Run would do in-process.
func SetupListener(port int, env cli.Environment, reservation listener.Reservation) (elevation.Operation, error) {
	act := &action{
		params:      params{Action: ActionSetupListener, Port: port},
		env:         env,
		reservation: reservation,
	}
	args, err := cli.Replay(Descriptor(), act)
	if err != nil {
		return elevation.Operation{}, err
	}
	return elevation.Operation{
		Name: ActionSetupListener,
		Args: args,
		Available: func() (bool, error) {
			return reservation.Reserved(port)
		},
		Run: act.perform,
	}, nil
}
