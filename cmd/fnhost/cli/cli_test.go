// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Shared fixtures for the package tests.

type greeter interface{ Greet(name string) string }

type englishGreeter struct{}

func (englishGreeter) Greet(name string) string { return "hello " + name }

type startParams struct {
	Port       int           `flag:"port,p" desc:"port" default:"7071"`
	DebugLevel string        `flag:"debug-level,d" default:"info"`
	CORS       []string      `flag:"cors" default:"https://portal.example.com"`
	Wait       time.Duration `flag:"wait" default:"5s"`
	Verbose    bool          `flag:"verbose"`
}

type startAction struct {
	params startParams
	ran    bool
}

func (a *startAction) Params() any { return &a.params }

func (a *startAction) Run(context.Context) error {
	a.ran = true
	return nil
}

type fetchAction struct {
	params struct {
		Overwrite bool `flag:"overwrite"`
	}
	app      string
	greeter  greeter
	runError error
}

func (a *fetchAction) Params() any { return &a.params }

func (a *fetchAction) ParseArgs(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one app name, got %d", len(args))
	}
	a.app = args[0]
	return nil
}

func (a *fetchAction) PositionalArgs() []string { return []string{a.app} }

func (a *fetchAction) Run(context.Context) error { return a.runError }

type panicAction struct{}

func (panicAction) Params() any { return nil }

func (panicAction) Run(context.Context) error { panic("boom") }

func testDescriptors() []Descriptor {
	return []Descriptor{
		{
			Context: Host, Name: "start", Summary: "Start a host",
			New: func(*Container) (Action, error) { return &startAction{}, nil },
		},
		{
			Context: Azure, SubContext: FunctionApp, Name: "fetch-app-settings", Usage: "<app>",
			Needs: []reflect.Type{Need[greeter]()},
			New: func(c *Container) (Action, error) {
				g, err := Resolve[greeter](c)
				if err != nil {
					return nil, err
				}
				return &fetchAction{greeter: g}, nil
			},
		},
		{
			Context: Azure, SubContext: FunctionApp, Name: "fetch", Usage: "<app>",
			Needs: []reflect.Type{Need[greeter]()},
			New: func(c *Container) (Action, error) {
				g, err := Resolve[greeter](c)
				if err != nil {
					return nil, err
				}
				return &fetchAction{greeter: g}, nil
			},
		},
		{
			Name: "internal-use", Hidden: true,
			New: func(*Container) (Action, error) { return &startAction{}, nil },
		},
		{
			Name: "explode",
			New:  func(*Container) (Action, error) { return panicAction{}, nil },
		},
		{
			Name: "broken",
			New:  func(*Container) (Action, error) { return nil, errors.New("constructor failed") },
		},
	}
}

func testRouter() *Router {
	container := NewContainer()
	Provide[greeter](container, englishGreeter{})
	return NewRouter(NewRegistry(testDescriptors()...), container, "test")
}
