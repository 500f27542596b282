// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Environment is the process context every action sees: where it was
// invoked, which binary to re-invoke, and where user-facing output goes.
// Actions write to Stdout and Stderr rather than os.Stdout so tests can
// capture them.
type Environment struct {
	// WorkingDirectory is the project directory, absolute and cleaned.
	WorkingDirectory string

	// Executable is the running fnhost binary, re-invoked to spawn
	// hosts and elevated operations.
	Executable string

	Stdout io.Writer
	Stderr io.Writer
}

// CurrentEnvironment describes this process.
func CurrentEnvironment() (Environment, error) {
	directory, err := os.Getwd()
	if err != nil {
		return Environment{}, fmt.Errorf("resolving working directory: %w", err)
	}
	executable, err := os.Executable()
	if err != nil {
		return Environment{}, fmt.Errorf("resolving executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(executable); err == nil {
		executable = resolved
	}
	return Environment{
		WorkingDirectory: filepath.Clean(directory),
		Executable:       executable,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
	}, nil
}
