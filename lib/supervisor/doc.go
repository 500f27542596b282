// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor finds the host serving the caller's project
// directory, starting one when none exists, and waits until it answers.
//
// Discovery walks ports upward from a base port (7071 by default). For
// each port it asks: is any other fnhost process running at all, and
// does this port answer with a running status? If either answer is no,
// it spawns a detached "fnhost host start --port N" in the working
// directory and uses that port. If the port answers for this directory
// (compared case-insensitively) it is reused. If it answers for some
// other directory, discovery moves to the next port. The walk is
// bounded; running out of ports is ErrNoPortAvailable.
//
// Connect then polls the chosen port until it is live or the timeout
// passes. A host that was just spawned and never came up is
// ErrHostNeverLive; a host that matched but stopped answering is
// ErrHostUnreachable. Concurrent invocations in one directory are not
// serialized and can start two hosts on two ports.
package supervisor
