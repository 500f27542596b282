// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package host is the long-running side of fnhost: the process started
// by "fnhost host start" that serves one project directory.
//
// A Host moves through a fixed sequence of states:
//
//	Initializing -> AwaitingPrivilege -> ListenerBound -> Serving -> ShuttingDown -> Exited
//
// Initializing loads the project's local settings (best effort: a
// missing or broken file is logged and the host starts without it).
// AwaitingPrivilege runs only when a listener hook is configured and
// makes sure the user may bind the port. The host then binds, serves
// the admin surface from package hostapi plus the function surface
// under /api, and watches the settings file. Any change to that file
// ends Run with ErrSettingsChanged so the next CLI invocation starts a
// host with fresh settings. Shutdown closes the listener without
// draining in-flight requests.
//
// Settings are never written into this process's environment. They are
// held on the Host and handed to child processes through Environ.
package host
