// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"sync"
)

// Container maps capability types to values. Values are either provided
// directly or built on first use by a factory, so capabilities an
// invocation never touches are never constructed.
type Container struct {
	mu        sync.Mutex
	values    map[reflect.Type]any
	factories map[reflect.Type]func(*Container) (any, error)
}

// NewContainer returns an empty Container.
func NewContainer() *Container {
	return &Container{
		values:    make(map[reflect.Type]any),
		factories: make(map[reflect.Type]func(*Container) (any, error)),
	}
}

// Provide registers value as the capability T, replacing any earlier
// value or factory.
func Provide[T any](c *Container, value T) {
	key := reflect.TypeFor[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.factories, key)
	c.values[key] = value
}

// ProvideFunc registers a factory for T. It runs at most once; a
// successful result is cached, an error is returned to every caller
// that asks until the factory succeeds.
func ProvideFunc[T any](c *Container, factory func(*Container) (T, error)) {
	key := reflect.TypeFor[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	c.factories[key] = func(c *Container) (any, error) {
		return factory(c)
	}
}

// Resolve returns the capability T.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	key := reflect.TypeFor[T]()
	value, err := c.resolve(key)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("capability %s holds %T", key, value)
	}
	return typed, nil
}

// Has reports whether a value or factory is registered for key.
func (c *Container) Has(key reflect.Type) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, value := c.values[key]
	_, factory := c.factories[key]
	return value || factory
}

func (c *Container) resolve(key reflect.Type) (any, error) {
	c.mu.Lock()
	if value, ok := c.values[key]; ok {
		c.mu.Unlock()
		return value, nil
	}
	factory, ok := c.factories[key]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no capability registered for %s", key)
	}

	// The factory may resolve other capabilities, so it runs unlocked.
	value, err := factory(c)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, stillFactory := c.factories[key]; stillFactory {
		delete(c.factories, key)
		c.values[key] = value
	}
	return value, nil
}
