// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostcmd

import (
	"context"
	"fmt"
	"reflect"
	"text/tabwriter"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
	"github.com/bureau-foundation/fnhost/lib/exitcode"
	"github.com/bureau-foundation/fnhost/lib/supervisor"
)

type statusAction struct {
	env        cli.Environment
	supervisor *supervisor.Supervisor
}

func statusDescriptor() cli.Descriptor {
	return cli.Descriptor{
		Context: cli.Host,
		Name:    "status",
		Summary: "Show the running host for this directory, without starting one",
		Needs: []reflect.Type{
			cli.Need[cli.Environment](),
			cli.Need[*supervisor.Supervisor](),
		},
		New: func(container *cli.Container) (cli.Action, error) {
			env, err := cli.Resolve[cli.Environment](container)
			if err != nil {
				return nil, err
			}
			sup, err := cli.Resolve[*supervisor.Supervisor](container)
			if err != nil {
				return nil, err
			}
			return &statusAction{env: env, supervisor: sup}, nil
		},
	}
}

func (a *statusAction) Params() any { return nil }

func (a *statusAction) Run(ctx context.Context) error {
	discovery, found := a.supervisor.Find(ctx)
	if !found {
		fmt.Fprintf(a.env.Stdout, "No host is running for %s\n", a.env.WorkingDirectory)
		return exitcode.With(exitcode.GeneralError)
	}

	status := discovery.Status
	writer := tabwriter.NewWriter(a.env.Stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "Address:\t%s\n", discovery.Candidate.BaseURL)
	fmt.Fprintf(writer, "Directory:\t%s\n", status.ScriptPath)
	fmt.Fprintf(writer, "State:\t%s\n", status.State)
	fmt.Fprintf(writer, "Process:\t%d\n", status.ProcessID)
	fmt.Fprintf(writer, "Instance:\t%s\n", status.InstanceID)
	if status.Version != "" {
		fmt.Fprintf(writer, "Version:\t%s\n", status.Version)
	}
	return writer.Flush()
}
