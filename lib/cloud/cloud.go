// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cloud defines what fnhost needs from a cloud account: the
// app settings of a deployed function app. The remote API itself is
// outside fnhost; deployments plug a real Manager into the CLI's
// container and everything else goes through this interface.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNotConfigured is returned by Unconfigured for every request.
var ErrNotConfigured = errors.New("no cloud account is configured")

// ErrAppNotFound is returned when the account has no app with the
// requested name.
var ErrAppNotFound = errors.New("function app not found")

// Manager reads configuration from a cloud account.
type Manager interface {
	// RemoteAppSettings returns the app settings of the named
	// function app.
	RemoteAppSettings(ctx context.Context, app string) (map[string]string, error)
}

// Unconfigured is the Manager used when no account has been linked.
type Unconfigured struct{}

func (Unconfigured) RemoteAppSettings(_ context.Context, app string) (map[string]string, error) {
	return nil, fmt.Errorf("fetching settings for %q: %w", app, ErrNotConfigured)
}

// Static serves app settings from memory, keyed by app name. It backs
// offline use and tests.
type Static map[string]map[string]string

func (s Static) RemoteAppSettings(ctx context.Context, app string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	settings, ok := s[app]
	if !ok {
		return nil, fmt.Errorf("%q: %w (known: %v)", app, ErrAppNotFound, s.apps())
	}
	copied := make(map[string]string, len(settings))
	for key, value := range settings {
		copied[key] = value
	}
	return copied, nil
}

func (s Static) apps() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
