// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procscan

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// list walks /proc. The exe link names the full image but is only
// readable for the caller's own processes; for the rest the truncated
// comm name is used.
func list() ([]Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("reading /proc: %w", err)
	}

	var processes []Process
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		directory := filepath.Join("/proc", entry.Name())

		if target, err := os.Readlink(filepath.Join(directory, "exe")); err == nil {
			target = strings.TrimSuffix(target, " (deleted)")
			processes = append(processes, Process{PID: pid, Image: filepath.Base(target)})
			continue
		}

		comm, err := os.ReadFile(filepath.Join(directory, "comm"))
		if err != nil {
			// Exited between ReadDir and here, or a kernel thread
			// we cannot inspect.
			continue
		}
		processes = append(processes, Process{
			PID:       pid,
			Image:     strings.TrimSpace(string(comm)),
			Truncated: true,
		})
	}
	return processes, nil
}
