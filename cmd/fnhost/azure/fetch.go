// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package azure implements the "azure functionapp" actions, which copy
// configuration from a deployed function app into the local project.
package azure

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
	"github.com/bureau-foundation/fnhost/lib/cloud"
	"github.com/bureau-foundation/fnhost/lib/secrets"
)

// Descriptors returns the function app actions. "fetch" is a short
// name for "fetch-app-settings".
func Descriptors() []cli.Descriptor {
	return []cli.Descriptor{
		fetchDescriptor("fetch-app-settings"),
		fetchDescriptor("fetch"),
	}
}

type fetchParams struct {
	Overwrite bool `flag:"overwrite" desc:"replace local values that already exist" default:"true"`
}

type fetchAction struct {
	params  fetchParams
	app     string
	env     cli.Environment
	manager cloud.Manager
	store   *secrets.Store
}

func fetchDescriptor(name string) cli.Descriptor {
	return cli.Descriptor{
		Context:    cli.Azure,
		SubContext: cli.FunctionApp,
		Name:       name,
		Summary:    "Copy a function app's settings into local.settings.json",
		Usage:      "<app-name>",
		Needs: []reflect.Type{
			cli.Need[cli.Environment](),
			cli.Need[cloud.Manager](),
			cli.Need[*secrets.Store](),
		},
		New: newFetchAction,
	}
}

func newFetchAction(container *cli.Container) (cli.Action, error) {
	env, err := cli.Resolve[cli.Environment](container)
	if err != nil {
		return nil, err
	}
	manager, err := cli.Resolve[cloud.Manager](container)
	if err != nil {
		return nil, err
	}
	store, err := cli.Resolve[*secrets.Store](container)
	if err != nil {
		return nil, err
	}
	return &fetchAction{env: env, manager: manager, store: store}, nil
}

func (a *fetchAction) Params() any { return &a.params }

func (a *fetchAction) ParseArgs(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("expected one function app name, got %d arguments", len(args))
	}
	a.app = args[0]
	return nil
}

func (a *fetchAction) PositionalArgs() []string { return []string{a.app} }

func (a *fetchAction) Run(ctx context.Context) error {
	remote, err := a.manager.RemoteAppSettings(ctx, a.app)
	if err != nil {
		return err
	}

	existing := map[string]string{}
	if !a.params.Overwrite {
		if existing, err = a.store.GetAll(); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(remote))
	for name := range remote {
		names = append(names, name)
	}
	sort.Strings(names)

	written := 0
	for _, name := range names {
		if _, present := existing[name]; present {
			fmt.Fprintf(a.env.Stdout, "Skipping %s (already set)\n", name)
			continue
		}
		if err := a.store.Set(name, remote[name]); err != nil {
			return err
		}
		fmt.Fprintf(a.env.Stdout, "Loading %s = *****\n", name)
		written++
	}
	fmt.Fprintf(a.env.Stdout, "Wrote %d of %d settings from %s to %s\n", written, len(names), a.app, a.store.Path())
	return nil
}
