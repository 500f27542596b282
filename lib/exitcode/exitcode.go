// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package exitcode defines the process exit codes fnhost uses as a
// protocol between cooperating processes. The elevation broker decides
// success by comparing a relaunched process's exit status against
// [Success], and scripts wrapping the CLI match on [MustRunAsAdmin].
// The numeric values are part of the external contract and must not
// change.
package exitcode

import "fmt"

const (
	// Success is the only code the elevation broker treats as a
	// successful privileged sub-operation.
	Success = 0

	// GeneralError covers unexpected failures during an action.
	GeneralError = 1

	// MustRunAsAdmin is returned when an operation requires OS
	// privilege and an elevated relaunch could not be obtained.
	MustRunAsAdmin = 2

	// ParseError is returned when the router fell back to help output
	// because an action's flags failed to parse.
	ParseError = 3
)

// Error signals a specific exit code to main without printing an
// additional error line. The code that returns it is expected to have
// already written its own output.
type Error struct {
	Code int
}

func (e *Error) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this method on
// returned errors to distinguish a handled non-zero exit from an
// unexpected error.
func (e *Error) ExitCode() int {
	return e.Code
}

// With returns an *Error carrying code.
func With(code int) *Error {
	return &Error{Code: code}
}
