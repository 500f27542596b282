// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package listener

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// linuxFloorPath holds the lowest port unprivileged users may bind.
const linuxFloorPath = "/proc/sys/net/ipv4/ip_unprivileged_port_start"

// traditionalFloor applies where the floor is not configurable.
const traditionalFloor = 1024

// PortFloor treats every port at or above a floor as reserved for
// everyone and lowers the floor to reserve. The floor is shared by all
// users, so Reserve widens access for the whole machine.
type PortFloor struct {
	// Path is the sysctl file holding the floor. Empty means the floor
	// is fixed at Fallback and Reserve always fails.
	Path string

	// Fallback is used when Path is empty or unreadable.
	Fallback int

	// Privileged reports whether the caller may bind any port.
	Privileged func() bool
}

// Default returns the Reservation for this system.
func Default() Reservation {
	floor := &PortFloor{
		Fallback:   traditionalFloor,
		Privileged: func() bool { return unix.Geteuid() == 0 },
	}
	if runtime.GOOS == "linux" {
		floor.Path = linuxFloorPath
	}
	return floor
}

func (f *PortFloor) floor() int {
	if f.Path == "" {
		return f.Fallback
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return f.Fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return f.Fallback
	}
	return value
}

func (f *PortFloor) Reserved(port int) (bool, error) {
	if err := checkPort(port); err != nil {
		return false, err
	}
	if f.Privileged != nil && f.Privileged() {
		return true, nil
	}
	return port >= f.floor(), nil
}

// Reserve lowers the floor to port, never raising it. Every port
// between the new floor and the old one becomes bindable by any user.
func (f *PortFloor) Reserve(port int) error {
	if err := checkPort(port); err != nil {
		return err
	}
	if f.Path == "" {
		return fmt.Errorf("port %d: %w", port, ErrCannotReserve)
	}
	if port >= f.floor() {
		return nil
	}
	err := os.WriteFile(f.Path, []byte(strconv.Itoa(port)+"\n"), 0644)
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("lowering %s to %d needs root: %w", f.Path, port, err)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", f.Path, err)
	}
	return nil
}
