// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings implements the "settings" actions over the project's
// local.settings.json.
package settings

import (
	"context"
	"fmt"
	"reflect"
	"text/tabwriter"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
	"github.com/bureau-foundation/fnhost/lib/secrets"
)

// Descriptors returns the settings actions.
func Descriptors() []cli.Descriptor {
	return []cli.Descriptor{
		{
			Context: cli.Settings, Name: "list",
			Summary: "List the local settings",
			Needs:   needs,
			New:     build(func(b base) cli.Action { return &listAction{base: b} }),
		},
		{
			Context: cli.Settings, Name: "add", Usage: "<name> <value>",
			Summary: "Add or replace a local setting",
			Needs:   needs,
			New:     build(func(b base) cli.Action { return &addAction{base: b} }),
		},
		{
			Context: cli.Settings, Name: "delete", Usage: "<name>",
			Summary: "Remove a local setting",
			Needs:   needs,
			New:     build(func(b base) cli.Action { return &deleteAction{base: b} }),
		},
	}
}

var needs = []reflect.Type{
	cli.Need[cli.Environment](),
	cli.Need[*secrets.Store](),
}

// base carries what every settings action uses.
type base struct {
	env   cli.Environment
	store *secrets.Store
}

func build(newAction func(base) cli.Action) cli.Constructor {
	return func(container *cli.Container) (cli.Action, error) {
		env, err := cli.Resolve[cli.Environment](container)
		if err != nil {
			return nil, err
		}
		store, err := cli.Resolve[*secrets.Store](container)
		if err != nil {
			return nil, err
		}
		return newAction(base{env: env, store: store}), nil
	}
}

type listAction struct {
	base
	params struct {
		ShowValues bool `flag:"show-values,a" desc:"print values as well as names"`
	}
}

func (a *listAction) Params() any { return &a.params }

func (a *listAction) Run(context.Context) error {
	values, err := a.store.GetAll()
	if err != nil {
		return err
	}
	keys, err := a.store.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(a.env.Stdout, "No settings in %s\n", a.store.Path())
		return nil
	}

	writer := tabwriter.NewWriter(a.env.Stdout, 2, 0, 2, ' ', 0)
	for _, key := range keys {
		value := "*****"
		if a.params.ShowValues {
			value = values[key]
		}
		fmt.Fprintf(writer, "%s\t%s\n", key, value)
	}
	return writer.Flush()
}

type addAction struct {
	base
	name, value string
}

func (a *addAction) Params() any { return nil }

func (a *addAction) ParseArgs(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected a name and a value, got %d arguments", len(args))
	}
	a.name, a.value = args[0], args[1]
	return nil
}

func (a *addAction) PositionalArgs() []string { return []string{a.name, a.value} }

func (a *addAction) Run(context.Context) error {
	if err := a.store.Set(a.name, a.value); err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Set %s in %s\n", a.name, a.store.Path())
	return nil
}

type deleteAction struct {
	base
	name string
}

func (a *deleteAction) Params() any { return nil }

func (a *deleteAction) ParseArgs(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one setting name, got %d arguments", len(args))
	}
	a.name = args[0]
	return nil
}

func (a *deleteAction) PositionalArgs() []string { return []string{a.name} }

func (a *deleteAction) Run(context.Context) error {
	if err := a.store.Delete(a.name); err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Removed %s from %s\n", a.name, a.store.Path())
	return nil
}
