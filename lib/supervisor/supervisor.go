// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bureau-foundation/fnhost/lib/clock"
	"github.com/bureau-foundation/fnhost/lib/hostapi"
	"github.com/bureau-foundation/fnhost/lib/procscan"
)

var (
	// ErrNoPortAvailable means every port in the search range is owned
	// by a host for a different directory.
	ErrNoPortAvailable = errors.New("no port available for a new host")

	// ErrHostNeverLive means a host was spawned but did not answer
	// before the timeout.
	ErrHostNeverLive = errors.New("spawned host never became live")

	// ErrHostUnreachable means a matching host was found but stopped
	// answering before the timeout.
	ErrHostUnreachable = errors.New("host is unreachable")
)

// PeerFinder lists the other running fnhost processes.
type PeerFinder interface {
	Peers() ([]procscan.Process, error)
}

// SpawnSpec describes a detached host process.
type SpawnSpec struct {
	Executable string
	Args       []string
	Dir        string

	// LogPath receives the process's output. Empty discards it.
	LogPath string
}

// Spawner starts a detached process and returns without waiting for it.
type Spawner interface {
	Spawn(spec SpawnSpec) (pid int, err error)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(spec SpawnSpec) (int, error)

func (f SpawnerFunc) Spawn(spec SpawnSpec) (int, error) { return f(spec) }

// Config configures a Supervisor.
type Config struct {
	// WorkingDirectory is the project a host must serve. Required.
	WorkingDirectory string

	// Executable is re-invoked to start hosts. Required.
	Executable string

	BasePort    int
	MaxAttempts int

	// SpawnDelay is waited after spawning before the candidate is
	// returned, giving the new process time to bind.
	SpawnDelay time.Duration

	// PollInterval separates liveness probes in Connect.
	PollInterval time.Duration

	// ProbeTimeout bounds one liveness probe. Defaults to 2 seconds.
	ProbeTimeout time.Duration

	// LogDir receives spawned hosts' output as fnhost-host-<port>.log.
	// Empty discards it.
	LogDir string

	Peers   PeerFinder
	Spawner Spawner
	Clock   clock.Clock
	Logger  *slog.Logger

	// BeforeSpawn is called just before a host is spawned, for a
	// user-facing notice. Optional.
	BeforeSpawn func(port int)

	// Address maps a port to the host's base URL. Nil means
	// http://localhost:<port>.
	Address func(port int) *url.URL
}

// Supervisor locates or starts the host for one directory.
type Supervisor struct {
	config Config
	logger *slog.Logger
}

// New validates config and fills defaults.
func New(config Config) (*Supervisor, error) {
	if config.WorkingDirectory == "" {
		return nil, errors.New("supervisor: WorkingDirectory is required")
	}
	if config.Executable == "" {
		return nil, errors.New("supervisor: Executable is required")
	}
	if config.Peers == nil || config.Spawner == nil {
		return nil, errors.New("supervisor: Peers and Spawner are required")
	}
	if config.BasePort < 1 || config.BasePort > 65535 {
		return nil, fmt.Errorf("supervisor: base port %d out of range", config.BasePort)
	}
	if config.MaxAttempts < 1 {
		return nil, fmt.Errorf("supervisor: MaxAttempts must be at least 1, got %d", config.MaxAttempts)
	}
	if config.BasePort+config.MaxAttempts-1 > 65535 {
		config.MaxAttempts = 65535 - config.BasePort + 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 2 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Address == nil {
		config.Address = func(port int) *url.URL { return hostapi.NewCandidate(port).BaseURL }
	}
	return &Supervisor{config: config, logger: config.Logger}, nil
}

// Discovery is the outcome of one discovery pass.
type Discovery struct {
	Candidate hostapi.Candidate

	// Spawned is set when a new host was started for Candidate.
	Spawned bool

	// Status is the matched host's status. Zero when Spawned.
	Status hostapi.Status
}

// Connect discovers or spawns the host for the working directory and
// waits up to timeout for it to answer. The returned client's request
// timeout is timeout.
func (s *Supervisor) Connect(ctx context.Context, timeout time.Duration) (*hostapi.Client, error) {
	discovery, err := s.Discover(ctx)
	if err != nil {
		return nil, err
	}
	client := hostapi.NewClient(discovery.Candidate.BaseURL, timeout)

	deadline := s.config.Clock.Now().Add(timeout)
	for {
		if s.live(ctx, client) {
			s.logger.Debug("host is live", "address", discovery.Candidate.String())
			return client, nil
		}
		if !s.config.Clock.Now().Before(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.config.Clock.After(s.config.PollInterval):
		}
	}

	if discovery.Spawned {
		return nil, fmt.Errorf("%w: %s after %s", ErrHostNeverLive, discovery.Candidate, timeout)
	}
	return nil, fmt.Errorf("%w: %s after %s", ErrHostUnreachable, discovery.Candidate, timeout)
}

// Discover runs one discovery pass, spawning a host if needed. It does
// not wait for a spawned host beyond SpawnDelay.
func (s *Supervisor) Discover(ctx context.Context) (Discovery, error) {
	peers := s.peers()

	for offset := 0; offset < s.config.MaxAttempts; offset++ {
		candidate := s.candidate(s.config.BasePort + offset)

		var status hostapi.Status
		live := false
		if len(peers) > 0 {
			status, live = s.status(ctx, candidate)
		}
		if !live {
			if err := s.spawn(candidate.Port); err != nil {
				return Discovery{}, err
			}
			s.config.Clock.Sleep(s.config.SpawnDelay)
			return Discovery{Candidate: candidate, Spawned: true}, nil
		}

		if status.Serves(s.config.WorkingDirectory) {
			candidate.OwnerPID = status.ProcessID
			candidate.ScriptPath = status.ScriptPath
			s.logger.Debug("found host for directory",
				"address", candidate.String(), "pid", status.ProcessID)
			return Discovery{Candidate: candidate, Status: status}, nil
		}
		s.logger.Debug("port serves another directory, trying next",
			"port", candidate.Port, "script_path", status.ScriptPath)
	}

	last := s.config.BasePort + s.config.MaxAttempts - 1
	return Discovery{}, fmt.Errorf("%w: ports %d-%d all serve other directories",
		ErrNoPortAvailable, s.config.BasePort, last)
}

// Find looks for a live host for the working directory without
// spawning. The bool is false when none is running.
func (s *Supervisor) Find(ctx context.Context) (Discovery, bool) {
	if len(s.peers()) == 0 {
		return Discovery{}, false
	}
	for offset := 0; offset < s.config.MaxAttempts; offset++ {
		candidate := s.candidate(s.config.BasePort + offset)
		status, live := s.status(ctx, candidate)
		if live && status.Serves(s.config.WorkingDirectory) {
			candidate.OwnerPID = status.ProcessID
			candidate.ScriptPath = status.ScriptPath
			return Discovery{Candidate: candidate, Status: status}, true
		}
	}
	return Discovery{}, false
}

// peers lists other fnhost processes. A listing failure is treated as
// "some exist", which makes discovery rely on port probes alone.
func (s *Supervisor) peers() []procscan.Process {
	peers, err := s.config.Peers.Peers()
	if err != nil {
		s.logger.Warn("process listing failed, probing ports directly", "error", err)
		return []procscan.Process{{PID: -1}}
	}
	return peers
}

func (s *Supervisor) candidate(port int) hostapi.Candidate {
	return hostapi.Candidate{Port: port, BaseURL: s.config.Address(port)}
}

// status probes candidate once. live is false on any failure.
func (s *Supervisor) status(ctx context.Context, candidate hostapi.Candidate) (hostapi.Status, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, s.config.ProbeTimeout)
	defer cancel()
	client := hostapi.NewClient(candidate.BaseURL, s.config.ProbeTimeout)
	status, err := client.Status(probeCtx)
	if err != nil {
		s.logger.Debug("liveness probe failed", "address", candidate.String(), "error", err)
		return hostapi.Status{}, false
	}
	return status, status.IsRunning
}

func (s *Supervisor) live(ctx context.Context, client *hostapi.Client) bool {
	probeCtx, cancel := context.WithTimeout(ctx, s.config.ProbeTimeout)
	defer cancel()
	return client.Live(probeCtx)
}

// spawn starts a detached host on port. Its exit status is never
// observed; Connect's liveness poll decides whether it came up.
func (s *Supervisor) spawn(port int) error {
	if s.config.BeforeSpawn != nil {
		s.config.BeforeSpawn(port)
	}
	spec := SpawnSpec{
		Executable: s.config.Executable,
		Args:       HostStartArgs(port),
		Dir:        s.config.WorkingDirectory,
	}
	if s.config.LogDir != "" {
		spec.LogPath = filepath.Join(s.config.LogDir, "fnhost-host-"+strconv.Itoa(port)+".log")
	}
	pid, err := s.config.Spawner.Spawn(spec)
	if err != nil {
		return fmt.Errorf("spawning host on port %d: %w", port, err)
	}
	s.logger.Info("spawned host", "port", port, "pid", pid, "log", spec.LogPath)
	return nil
}

// HostStartArgs is the command line that starts a host on port.
func HostStartArgs(port int) []string {
	return []string{"host", "start", "--port=" + strconv.Itoa(port)}
}
