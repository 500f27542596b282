// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package elevation

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// DefaultProbe reports root as privileged.
func DefaultProbe() PrivilegeProbe {
	return ProbeFunc(func() bool { return unix.Geteuid() == 0 })
}

// commandLauncher prefixes the relaunch with an elevation command such
// as sudo or doas. The command keeps the terminal's stdin so it can
// prompt for a password.
type commandLauncher struct {
	elevator []string
}

// DefaultLauncher returns a Launcher that runs elevator (for example
// ["sudo"]) in front of the executable.
func DefaultLauncher(elevator []string) Launcher {
	return &commandLauncher{elevator: elevator}
}

func (l *commandLauncher) Launch(spec LaunchSpec) (int, error) {
	if len(l.elevator) == 0 {
		return -1, errors.New("no elevation command configured")
	}

	logFile, err := os.OpenFile(spec.LogPath, os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return -1, fmt.Errorf("opening elevation log: %w", err)
	}
	defer logFile.Close()

	argv := append([]string{}, l.elevator[1:]...)
	argv = append(argv, spec.Executable)
	argv = append(argv, spec.Args...)

	cmd := exec.Command(l.elevator[0], argv...)
	cmd.Dir = spec.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode(), nil
	}
	return -1, err
}
