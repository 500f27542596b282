// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"reflect"
	"strings"
)

// Action is a routed, runnable operation.
type Action interface {
	// Params returns a pointer to the action's tagged flag struct, or
	// nil when the action takes no flags.
	Params() any

	Run(ctx context.Context) error
}

// PositionalParser is implemented by actions that accept arguments
// after their flags.
type PositionalParser interface {
	// ParseArgs receives the non-flag arguments. An error is reported
	// as a usage error.
	ParseArgs(args []string) error

	// PositionalArgs returns the arguments in the form ParseArgs
	// accepts.
	PositionalArgs() []string
}

// Constructor builds an action from the capabilities in a Container.
type Constructor func(container *Container) (Action, error)

// Descriptor registers one action.
type Descriptor struct {
	Context    Context
	SubContext Context
	Name       string
	Summary    string

	// Usage describes positional arguments, e.g. "<app-name>".
	Usage string

	// Hidden actions route normally but are left out of help.
	Hidden bool

	// Needs lists the capability types New resolves, in order. The
	// router checks them before calling New so a missing capability is
	// reported by type rather than as a failure inside the action.
	Needs []reflect.Type

	New Constructor
}

// Need returns the capability type T for Descriptor.Needs.
func Need[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Tokens returns the routing tokens addressing the descriptor.
func (d Descriptor) Tokens() []string {
	var tokens []string
	if d.Context != None {
		tokens = append(tokens, d.Context.String())
	}
	if d.SubContext != None {
		tokens = append(tokens, d.SubContext.String())
	}
	return append(tokens, d.Name)
}

func (d Descriptor) String() string {
	return strings.Join(d.Tokens(), " ")
}

func (d Descriptor) matches(context, subContext Context, name string) bool {
	return d.Context == context && d.SubContext == subContext && strings.EqualFold(d.Name, name)
}

// Registry holds every descriptor. It is filled once at startup.
type Registry struct {
	descriptors []Descriptor
}

// NewRegistry returns a registry holding descriptors.
func NewRegistry(descriptors ...Descriptor) *Registry {
	registry := &Registry{}
	registry.Register(descriptors...)
	return registry
}

// Register adds descriptors. Duplicate addresses are accepted here and
// make Lookup fail for that address.
func (r *Registry) Register(descriptors ...Descriptor) {
	r.descriptors = append(r.descriptors, descriptors...)
}

// Descriptors returns every registered descriptor in registration order.
func (r *Registry) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.descriptors...)
}

// Lookup finds the one descriptor at (context, subContext, name), with
// the name compared case-insensitively. Zero or several matches both
// report false.
func (r *Registry) Lookup(context, subContext Context, name string) (Descriptor, bool) {
	var found Descriptor
	count := 0
	for _, descriptor := range r.descriptors {
		if descriptor.matches(context, subContext, name) {
			found = descriptor
			count++
		}
	}
	if count != 1 {
		return Descriptor{}, false
	}
	return found, true
}

// Scoped returns the visible descriptors under context and subContext.
// None matches everything at that level.
func (r *Registry) Scoped(context, subContext Context) []Descriptor {
	var scoped []Descriptor
	for _, descriptor := range r.descriptors {
		if descriptor.Hidden {
			continue
		}
		if context != None && descriptor.Context != context {
			continue
		}
		if subContext != None && descriptor.SubContext != subContext {
			continue
		}
		scoped = append(scoped, descriptor)
	}
	return scoped
}

// Duplicates returns the addresses registered more than once.
func (r *Registry) Duplicates() []string {
	seen := make(map[string]int)
	var duplicates []string
	for _, descriptor := range r.descriptors {
		key := strings.ToLower(descriptor.String())
		seen[key]++
		if seen[key] == 2 {
			duplicates = append(duplicates, descriptor.String())
		}
	}
	return duplicates
}
