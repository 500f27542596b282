// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package supervisor

import (
	"os/exec"
	"syscall"
)

// detach puts the host in its own session so it outlives the invoking
// shell and its terminal.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
