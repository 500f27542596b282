// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux && !windows

package procscan

import (
	"fmt"
	"os/exec"
)

func list() ([]Process, error) {
	output, err := exec.Command("ps", "-axo", "pid=,comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("running ps: %w", err)
	}
	return parsePS(output), nil
}
