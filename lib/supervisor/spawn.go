// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
)

// ProcessSpawner starts real detached processes.
type ProcessSpawner struct{}

func (ProcessSpawner) Spawn(spec SpawnSpec) (int, error) {
	cmd := exec.Command(spec.Executable, spec.Args...)
	cmd.Dir = spec.Dir
	detach(cmd)

	if spec.LogPath != "" {
		logFile, err := os.OpenFile(spec.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return 0, fmt.Errorf("opening host log: %w", err)
		}
		// The child holds its own descriptor after Start.
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %w", spec.Executable, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("releasing host process %d: %w", pid, err)
	}
	return pid, nil
}
