// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procscan

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
)

// parsePS parses "ps -axo pid=,comm=" output. Lines that do not start
// with a PID are skipped. comm may be a full path on BSD-derived
// systems, so only its base name is kept.
func parsePS(output []byte) []Process {
	var processes []Process
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		pidField, command, found := strings.Cut(line, " ")
		if !found {
			continue
		}
		pid, err := strconv.Atoi(pidField)
		if err != nil {
			continue
		}
		command = strings.TrimSpace(command)
		if command == "" {
			continue
		}
		processes = append(processes, Process{PID: pid, Image: filepath.Base(command)})
	}
	return processes
}
