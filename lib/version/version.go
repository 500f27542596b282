// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the fnhost build. Release builds set the
// variables with -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/fnhost/lib/version.Version=1.2.0" ./cmd/fnhost
//
// Development builds fall back to the VCS stamp the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release version.
	Version = "0.1.0-dev"

	// GitCommit is the short commit of the build. Empty means read it
	// from the embedded build info.
	GitCommit = ""
)

// Short returns the release version, which the host reports in its
// status endpoint.
func Short() string {
	return Version
}

// Info returns the version with its commit, for help output.
func Info() string {
	commit, dirty := vcs()
	if commit == "" {
		return Version
	}
	if dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", Version, commit)
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func vcs() (commit string, dirty bool) {
	if GitCommit != "" {
		return GitCommit, false
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return commit, dirty
}
