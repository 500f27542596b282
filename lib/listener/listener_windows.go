// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package listener

import (
	"fmt"
	"os/exec"
	"os/user"
	"strings"
)

// URLACL manages http.sys URL reservations through netsh.
type URLACL struct {
	// User is the DOMAIN\name the reservation is granted to.
	User string

	run func(args ...string) ([]byte, error)
}

// Default returns the Reservation for this system.
func Default() Reservation {
	acl := &URLACL{run: netsh}
	if current, err := user.Current(); err == nil {
		acl.User = current.Username
	}
	return acl
}

func netsh(args ...string) ([]byte, error) {
	return exec.Command("netsh", args...).CombinedOutput()
}

func (a *URLACL) Reserved(port int) (bool, error) {
	if err := checkPort(port); err != nil {
		return false, err
	}
	prefix := URLPrefix(port)
	output, err := a.run("http", "show", "urlacl", "url="+prefix)
	if err != nil {
		return false, fmt.Errorf("netsh http show urlacl: %w: %s", err, output)
	}
	return strings.Contains(strings.ToLower(string(output)), strings.ToLower(prefix)), nil
}

func (a *URLACL) Reserve(port int) error {
	if err := checkPort(port); err != nil {
		return err
	}
	if a.User == "" {
		return fmt.Errorf("reserving %s: current user unknown", URLPrefix(port))
	}
	output, err := a.run("http", "add", "urlacl", "url="+URLPrefix(port), "user="+a.User)
	if err != nil {
		return fmt.Errorf("netsh http add urlacl: %w: %s", err, output)
	}
	return nil
}
