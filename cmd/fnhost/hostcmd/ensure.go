// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostcmd

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
	"github.com/bureau-foundation/fnhost/lib/config"
	"github.com/bureau-foundation/fnhost/lib/supervisor"
)

type ensureParams struct {
	Timeout time.Duration `flag:"timeout,t" desc:"how long to wait for the host to answer (0 uses supervisor.connect_timeout)"`
}

type ensureAction struct {
	params     ensureParams
	config     *config.Config
	env        cli.Environment
	supervisor *supervisor.Supervisor
}

func ensureDescriptor() cli.Descriptor {
	return cli.Descriptor{
		Context: cli.Host,
		Name:    "ensure",
		Summary: "Find or start the host for this directory and print its address",
		Needs: []reflect.Type{
			cli.Need[*config.Config](),
			cli.Need[cli.Environment](),
			cli.Need[*supervisor.Supervisor](),
		},
		New: func(container *cli.Container) (cli.Action, error) {
			cfg, err := cli.Resolve[*config.Config](container)
			if err != nil {
				return nil, err
			}
			env, err := cli.Resolve[cli.Environment](container)
			if err != nil {
				return nil, err
			}
			sup, err := cli.Resolve[*supervisor.Supervisor](container)
			if err != nil {
				return nil, err
			}
			return &ensureAction{config: cfg, env: env, supervisor: sup}, nil
		},
	}
}

func (a *ensureAction) Params() any { return &a.params }

func (a *ensureAction) Run(ctx context.Context) error {
	timeout := a.params.Timeout
	if timeout <= 0 {
		timeout = a.config.Supervisor.ConnectTimeout
	}
	client, err := a.supervisor.Connect(ctx, timeout)
	if err != nil {
		return fmt.Errorf("connecting to the host for %s: %w", a.env.WorkingDirectory, err)
	}
	fmt.Fprintln(a.env.Stdout, client.BaseURL())
	return nil
}
