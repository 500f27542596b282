// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostcmd implements the "host" context: starting a host in the
// foreground, and locating or starting the host that serves the current
// directory.
package hostcmd

import (
	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
)

// Descriptors returns the host actions.
func Descriptors() []cli.Descriptor {
	return []cli.Descriptor{
		startDescriptor(),
		statusDescriptor(),
		ensureDescriptor(),
	}
}
