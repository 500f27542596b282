// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package procscan enumerates running processes by executable image
// name. The supervisor uses it to decide whether any other fnhost
// process exists before probing ports: with no peer at all there is no
// host to find and it can spawn immediately.
//
// Linux reads /proc, Windows takes a Toolhelp snapshot, and other
// platforms parse ps(1) output.
package procscan

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// commLength is the Linux TASK_COMM_LEN minus the terminator. Names
// read from /proc/<pid>/comm are truncated to this many bytes.
const commLength = 15

// Process is one entry of the process table.
type Process struct {
	PID   int
	Image string

	// Truncated is set when Image came from a source that clips long
	// names (Linux comm), so comparisons use only the kept prefix.
	Truncated bool
}

// List returns every process visible to the caller. Processes that
// exit during the scan are skipped.
func List() ([]Process, error) {
	return list()
}

// ImageName reduces an executable path to the name processes are
// matched on: the base name, and on Windows without ".exe" and folded
// to lower case.
func ImageName(path string) string {
	name := filepath.Base(path)
	if runtime.GOOS == "windows" {
		name = strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(name, ".exe"), ".EXE"))
	}
	return name
}

// Matches reports whether the process runs the image named image.
func (p Process) Matches(image string) bool {
	own := ImageName(p.Image)
	if p.Truncated && len(image) > commLength {
		image = image[:commLength]
	}
	if runtime.GOOS == "windows" {
		return strings.EqualFold(own, image)
	}
	return own == image
}

// Scanner finds the processes running the same executable as a given
// process.
type Scanner struct {
	// Image is the image name to look for (see ImageName).
	Image string

	// Self is excluded from results.
	Self int

	// list defaults to List; tests replace it.
	list func() ([]Process, error)
}

// ForSelf returns a Scanner for the current executable that excludes
// the current process.
func ForSelf() (*Scanner, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving own executable: %w", err)
	}
	return &Scanner{Image: ImageName(executable), Self: os.Getpid()}, nil
}

// Peers returns the other processes running the scanner's image.
func (s *Scanner) Peers() ([]Process, error) {
	lister := s.list
	if lister == nil {
		lister = List
	}
	processes, err := lister()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	var peers []Process
	for _, process := range processes {
		if process.PID == s.Self {
			continue
		}
		if process.Matches(s.Image) {
			peers = append(peers, process)
		}
	}
	return peers, nil
}
