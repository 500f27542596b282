// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bureau-foundation/fnhost/lib/exitcode"
)

func runApp(t *testing.T, router *Router, debug bool, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr strings.Builder
	app := &App{Router: router, Stdout: &stdout, Stderr: &stderr, Debug: debug}
	err := app.Run(context.Background(), args)
	if err == nil {
		return exitcode.Success, stdout.String(), stderr.String()
	}
	var exit *exitcode.Error
	if !errors.As(err, &exit) {
		t.Fatalf("Run() error %v carries no exit code", err)
	}
	return exit.Code, stdout.String(), stderr.String()
}

func TestApp_Help(t *testing.T) {
	code, stdout, _ := runApp(t, testRouter(), false)
	if code != exitcode.Success {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "fnhost test") || !strings.Contains(stdout, "host start") {
		t.Errorf("help output:\n%s", stdout)
	}
}

func TestApp_UnknownActionExitsParseError(t *testing.T) {
	code, _, stderr := runApp(t, testRouter(), false, "host", "strat")
	if code != exitcode.ParseError {
		t.Errorf("exit code = %d, want %d", code, exitcode.ParseError)
	}
	if !strings.Contains(stderr, `unknown action "host strat"`) || !strings.Contains(stderr, `"host start"`) {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestApp_RunsAction(t *testing.T) {
	code, stdout, stderr := runApp(t, testRouter(), false, "host", "start")
	if code != exitcode.Success || stdout != "" || stderr != "" {
		t.Errorf("Run = %d, %q, %q", code, stdout, stderr)
	}
}

func TestApp_ActionExitCodePassesThrough(t *testing.T) {
	container := NewContainer()
	Provide[greeter](container, englishGreeter{})
	registry := NewRegistry(Descriptor{
		Name: "admin-only",
		New: func(*Container) (Action, error) {
			return &fetchAction{runError: exitcode.With(exitcode.MustRunAsAdmin)}, nil
		},
	})
	code, _, stderr := runApp(t, NewRouter(registry, container, "test"), false, "admin-only", "app")
	if code != exitcode.MustRunAsAdmin {
		t.Errorf("exit code = %d, want %d", code, exitcode.MustRunAsAdmin)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want nothing extra", stderr)
	}
}

func TestApp_ActionErrorIsReported(t *testing.T) {
	wrapped := errors.New("connection refused")
	registry := NewRegistry(Descriptor{
		Name: "fail",
		New: func(*Container) (Action, error) {
			return &fetchAction{runError: &wrapError{"contacting host", wrapped}}, nil
		},
	})
	router := NewRouter(registry, NewContainer(), "test")

	code, _, stderr := runApp(t, router, false, "fail", "app")
	if code != exitcode.GeneralError {
		t.Errorf("exit code = %d, want %d", code, exitcode.GeneralError)
	}
	if strings.Count(stderr, "\n") != 1 || strings.Contains(stderr, "caused by") {
		t.Errorf("normal mode stderr should be one line:\n%s", stderr)
	}

	_, _, stderr = runApp(t, router, true, "fail", "app")
	if !strings.Contains(stderr, "caused by") {
		t.Errorf("debug mode stderr missing cause chain:\n%s", stderr)
	}
}

func TestApp_ForeignExitCodeIsReported(t *testing.T) {
	// A child process failure has an ExitCode method too; its status is
	// not ours to pass through.
	failed := &childExitError{code: 7}
	registry := NewRegistry(Descriptor{
		Name: "spawn",
		New: func(*Container) (Action, error) {
			return &fetchAction{runError: &wrapError{"running worker", failed}}, nil
		},
	})

	code, _, stderr := runApp(t, NewRouter(registry, NewContainer(), "test"), false, "spawn", "app")
	if code != exitcode.GeneralError {
		t.Errorf("exit code = %d, want %d", code, exitcode.GeneralError)
	}
	if !strings.Contains(stderr, "error: running worker: child exited with status 7") {
		t.Errorf("stderr = %q, want the child failure reported", stderr)
	}
}

func TestApp_PanicIsRecovered(t *testing.T) {
	code, _, stderr := runApp(t, testRouter(), false, "explode")
	if code != exitcode.GeneralError {
		t.Errorf("exit code = %d, want %d", code, exitcode.GeneralError)
	}
	if !strings.Contains(stderr, "boom") || strings.Contains(stderr, "goroutine") {
		t.Errorf("normal mode stderr:\n%s", stderr)
	}

	_, _, stderr = runApp(t, testRouter(), true, "explode")
	if !strings.Contains(stderr, "goroutine") {
		t.Errorf("debug mode stderr missing stack:\n%s", stderr)
	}
}

func TestApp_ConstructionErrorIsReported(t *testing.T) {
	code, _, stderr := runApp(t, testRouter(), false, "broken")
	if code != exitcode.GeneralError {
		t.Errorf("exit code = %d, want %d", code, exitcode.GeneralError)
	}
	if !strings.Contains(stderr, "constructor failed") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

type wrapError struct {
	message string
	cause   error
}

func (e *wrapError) Error() string { return e.message + ": " + e.cause.Error() }
func (e *wrapError) Unwrap() error { return e.cause }

type childExitError struct{ code int }

func (e *childExitError) Error() string { return fmt.Sprintf("child exited with status %d", e.code) }
func (e *childExitError) ExitCode() int { return e.code }
