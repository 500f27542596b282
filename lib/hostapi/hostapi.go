// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostapi is the HTTP contract between a running host and the
// CLI invocations that look for it. The host serves these paths; the
// supervisor and the "host status" action consume them through Client.
//
// Response reads are bounded at MaxResponseSize. The admin surface only
// ever returns small JSON documents, so anything larger is treated as a
// misbehaving peer rather than read into memory.
package hostapi

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	// StatusPath reports the host's Status as JSON.
	StatusPath = "/admin/host/status"

	// PingPath answers 204 with no body once the listener is bound.
	PingPath = "/admin/host/ping"

	// MetricsPath exposes Prometheus metrics.
	MetricsPath = "/metrics"

	// FunctionsPrefix is the root of the function-execution surface.
	FunctionsPrefix = "/api"
)

// MaxResponseSize bounds reads of admin response bodies: 1 MB.
const MaxResponseSize int64 = 1 << 20

// Host states as reported in Status.State.
const (
	StateRunning  = "Running"
	StateStopping = "Stopping"
)

// Status is the body of GET StatusPath.
type Status struct {
	// ScriptPath is the absolute project directory the host serves.
	ScriptPath string `json:"scriptPath"`

	IsRunning bool   `json:"isRunning"`
	State     string `json:"state,omitempty"`

	// InstanceID is a fresh UUID per host process, so two status
	// reads can tell a restarted host from the same one.
	InstanceID string `json:"instanceId,omitempty"`

	Port      int    `json:"port,omitempty"`
	ProcessID int    `json:"processId,omitempty"`
	Version   string `json:"version,omitempty"`
}

// Serves reports whether the status belongs to a host for directory.
// Paths compare case-insensitively after cleaning, matching how hosts
// on case-insensitive filesystems report their working directory.
func (s Status) Serves(directory string) bool {
	if s.ScriptPath == "" || directory == "" {
		return false
	}
	return strings.EqualFold(filepath.Clean(s.ScriptPath), filepath.Clean(directory))
}

// Candidate is one port a host for this project might be listening on.
// Candidates are recomputed on every discovery pass.
type Candidate struct {
	Port    int
	BaseURL *url.URL

	// OwnerPID is the process reported by the host's status, or 0 when
	// the candidate has not been queried.
	OwnerPID int

	// ScriptPath is the project directory reported by the host, empty
	// until queried.
	ScriptPath string
}

// NewCandidate returns the candidate for http://localhost:port.
func NewCandidate(port int) Candidate {
	return Candidate{
		Port:    port,
		BaseURL: &url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", port)},
	}
}

func (c Candidate) String() string {
	return c.BaseURL.String()
}
