// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package listener decides whether the current OS user may bind the
// host's HTTP port, and reserves it when not. Reserving is the one
// privileged step of starting a host: it runs in an elevated relaunch
// of fnhost, after which the unprivileged host binds normally.
//
// On Linux the reservation is the net.ipv4.ip_unprivileged_port_start
// sysctl. It is system-wide and not per user: lowering it to the host's
// port lets every local user bind every port from there up to 1023,
// and it stays lowered after the host exits. Other Unix systems only
// allow root below port 1024 and cannot reserve. Windows registers an
// http.sys URL ACL that names the current user and one port.
package listener

import (
	"errors"
	"fmt"
)

// ErrCannotReserve is returned by Reserve on platforms with no way to
// grant an unprivileged user a port.
var ErrCannotReserve = errors.New("port reservation is not supported on this platform")

// Reservation answers and changes whether the user may listen on a port.
type Reservation interface {
	// Reserved reports whether the current user can bind port now.
	Reserved(port int) (bool, error)

	// Reserve grants the current user port. It needs elevated
	// privilege.
	Reserve(port int) error
}

// URLPrefix is the wildcard prefix the host listens under.
func URLPrefix(port int) string {
	return fmt.Sprintf("http://+:%d/", port)
}

func checkPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", port)
	}
	return nil
}
