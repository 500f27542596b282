// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package elevation runs a single CLI operation with administrator
// rights. When the current process already has them the operation runs
// in-process. Otherwise the broker relaunches the same executable
// through the OS elevation mechanism (sudo, UAC) with a replay of the
// operation's command line, blocks until that process exits, and
// returns its exit status together with everything it printed.
//
// The relaunched process writes its combined output to a temporary log
// file named fnhost-elevate-<uuid>.log. The broker reads the file once
// the process exits and removes it.
//
// There is exactly one relaunch per Ensure call and no retry. The wait
// has no timeout: a hung elevated process hangs the caller.
package elevation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrElevationUnavailable is returned when no elevated process could be
// started at all: consent was denied, or the elevation command is
// missing. Callers exit with the must-run-as-admin code.
var ErrElevationUnavailable = errors.New("administrator privileges are required and could not be obtained")

// PrivilegeProbe reports whether the current process already holds
// administrator rights.
type PrivilegeProbe interface {
	Privileged() bool
}

// ProbeFunc adapts a function to PrivilegeProbe.
type ProbeFunc func() bool

func (f ProbeFunc) Privileged() bool { return f() }

// LaunchSpec describes one elevated relaunch.
type LaunchSpec struct {
	Executable string
	Args       []string

	// Dir is the working directory of the elevated process.
	Dir string

	// LogPath receives the process's stdout and stderr, appended.
	LogPath string
}

// Launcher starts an elevated process and waits for it to exit. It
// returns the exit code, or an error when the process could not be
// started (in which case the code is meaningless).
type Launcher interface {
	Launch(spec LaunchSpec) (int, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(spec LaunchSpec) (int, error)

func (f LauncherFunc) Launch(spec LaunchSpec) (int, error) { return f(spec) }

// Operation is the unit of work Ensure makes privileged.
type Operation struct {
	// Name labels the operation in logs and errors.
	Name string

	// Args is the command line, without the executable, that makes a
	// fresh fnhost process perform exactly this operation.
	Args []string

	// Available reports whether the operation's effect is already in
	// place. Nil means "never". An error is logged and treated as
	// "not available".
	Available func() (bool, error)

	// Run performs the operation in-process. It is used when the
	// current process is already privileged.
	Run func(ctx context.Context) error
}

// Request is one relaunch: the replayed command line and the log file
// that collects its output. It exists for a single Launch.
type Request struct {
	ID        string
	Operation string
	Args      []string
	LogPath   string
}

// Outcome reports what Ensure did.
type Outcome struct {
	// Skipped is set when Available reported the effect already in
	// place and nothing ran.
	Skipped bool

	// Elevated is set when a relaunch happened.
	Elevated bool

	Succeeded bool
	ExitCode  int

	// Log is the relaunched process's output, or the in-process error
	// text. It is surfaced to the user verbatim on failure.
	Log string
}

// Broker performs privileged operations.
type Broker struct {
	Probe    PrivilegeProbe
	Launcher Launcher

	// Executable is the binary to relaunch, normally os.Executable().
	Executable string

	// Dir is the working directory for the relaunch.
	Dir string

	// TempDir holds request log files. Empty means os.TempDir().
	TempDir string

	Logger *slog.Logger
}

// Ensure makes operation take effect, elevating if needed.
func (b *Broker) Ensure(ctx context.Context, operation Operation) (Outcome, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if operation.Available != nil {
		available, err := operation.Available()
		if err != nil {
			logger.Warn("availability check failed, assuming unavailable",
				"operation", operation.Name, "error", err)
		} else if available {
			return Outcome{Skipped: true, Succeeded: true}, nil
		}
	}

	if b.Probe.Privileged() {
		if operation.Run == nil {
			return Outcome{}, fmt.Errorf("operation %q cannot run in-process", operation.Name)
		}
		logger.Debug("already privileged, running in-process", "operation", operation.Name)
		if err := operation.Run(ctx); err != nil {
			return Outcome{ExitCode: 1, Log: err.Error()}, nil
		}
		return Outcome{Succeeded: true}, nil
	}

	request, err := b.newRequest(operation)
	if err != nil {
		return Outcome{}, err
	}
	defer os.Remove(request.LogPath)

	logger.Info("relaunching with administrator privileges",
		"operation", operation.Name,
		"request", request.ID,
		"args", strings.Join(request.Args, " "))

	exitCode, err := b.Launcher.Launch(LaunchSpec{
		Executable: b.Executable,
		Args:       request.Args,
		Dir:        b.Dir,
		LogPath:    request.LogPath,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", ErrElevationUnavailable, operation.Name, err)
	}

	output, err := os.ReadFile(request.LogPath)
	if err != nil {
		logger.Warn("reading elevation log failed", "path", request.LogPath, "error", err)
	}
	return Outcome{
		Elevated:  true,
		Succeeded: exitCode == 0,
		ExitCode:  exitCode,
		Log:       string(output),
	}, nil
}

// newRequest creates the request's log file. The file is created
// empty and exclusively so the elevated process only ever appends to a
// file this process owns.
func (b *Broker) newRequest(operation Operation) (*Request, error) {
	directory := b.TempDir
	if directory == "" {
		directory = os.TempDir()
	}
	id := uuid.NewString()
	path := filepath.Join(directory, "fnhost-elevate-"+id+".log")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating elevation log: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("closing elevation log: %w", err)
	}

	args := make([]string, len(operation.Args))
	copy(args, operation.Args)
	return &Request{ID: id, Operation: operation.Name, Args: args, LogPath: path}, nil
}
