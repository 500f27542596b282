// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/fnhost/lib/hostapi"
)

// ErrSettingsChanged ends Run when the watched settings file changes.
// It is a normal exit: the caller reports success.
var ErrSettingsChanged = errors.New("local settings file changed")

// SettingsSource supplies the project's local settings.
type SettingsSource interface {
	GetAll() (map[string]string, error)
}

// Config configures a Host.
type Config struct {
	// Port is the TCP port to serve on. Zero picks a free port, which
	// only makes sense with an explicit Address in tests.
	Port int

	// Address overrides the listen address. Empty means ":<Port>".
	Address string

	// ScriptPath is the project directory this host serves, reported
	// verbatim in the status endpoint. Required.
	ScriptPath string

	// SettingsFile is watched for changes. A relative path is resolved
	// against ScriptPath. Empty disables the watcher.
	SettingsFile string

	// Settings is read once during Initializing. Nil means none.
	Settings SettingsSource

	// Environment holds extra variables for child processes on top of
	// the settings, for example the node debug parameters.
	Environment map[string]string

	// EnsureListener runs in the AwaitingPrivilege state and must make
	// Port bindable by this user. Nil skips the state.
	EnsureListener func(ctx context.Context, port int) error

	CORSOrigins []string

	// Functions serves the function surface under /api. Nil answers
	// every request there with 404.
	Functions http.Handler

	Version string

	Logger *slog.Logger
}

// Host serves one project directory.
type Host struct {
	config     Config
	logger     *slog.Logger
	instanceID string
	metrics    *metrics
	engine     *gin.Engine

	state atomic.Int32
	ready chan struct{}

	mu       sync.Mutex
	addr     net.Addr
	settings map[string]string
}

// New validates config and builds a Host. Nothing is bound until Run.
func New(config Config) (*Host, error) {
	if config.ScriptPath == "" {
		return nil, errors.New("host: ScriptPath is required")
	}
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("host: port %d out of range", config.Port)
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	gin.SetMode(gin.ReleaseMode)

	h := &Host{
		config:     config,
		logger:     config.Logger,
		instanceID: uuid.NewString(),
		metrics:    newMetrics(),
		ready:      make(chan struct{}),
		settings:   map[string]string{},
	}
	h.metrics.info.WithLabelValues(h.instanceID, config.Version).Set(1)
	h.engine = h.newEngine()
	return h, nil
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	return State(h.state.Load())
}

func (h *Host) setState(state State) {
	previous := State(h.state.Swap(int32(state)))
	h.logger.Debug("host state", "from", previous, "to", state)
}

// Ready is closed once the host is Serving.
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Addr returns the bound address. Only valid after Ready is closed.
func (h *Host) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

// InstanceID identifies this host process in its status.
func (h *Host) InstanceID() string {
	return h.instanceID
}

// Handler returns the host's HTTP handler, for serving it without Run.
func (h *Host) Handler() http.Handler {
	return h.engine
}

// Status is what the status endpoint reports.
func (h *Host) Status() hostapi.Status {
	state := h.State()
	status := hostapi.Status{
		ScriptPath: h.config.ScriptPath,
		InstanceID: h.instanceID,
		Port:       h.config.Port,
		ProcessID:  os.Getpid(),
		Version:    h.config.Version,
	}
	if addr, ok := h.Addr().(*net.TCPAddr); ok {
		status.Port = addr.Port
	}
	switch state {
	case Serving:
		status.IsRunning = true
		status.State = hostapi.StateRunning
	case ShuttingDown, Exited:
		status.State = hostapi.StateStopping
	default:
		status.State = state.String()
	}
	return status
}

// Settings returns a copy of the settings loaded at startup.
func (h *Host) Settings() map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	copied := make(map[string]string, len(h.settings))
	for key, value := range h.settings {
		copied[key] = value
	}
	return copied
}

// Environ returns the environment for processes the host starts: this
// process's environment, then the local settings, then the configured
// extra variables. Later entries win for duplicate names. The function
// worker launcher starts its processes with this environment; until it
// exists, "host start" logs the debug parameters workers would receive.
func (h *Host) Environ() []string {
	environment := os.Environ()
	environment = appendSorted(environment, h.Settings())
	environment = appendSorted(environment, h.config.Environment)
	return environment
}

func appendSorted(environment []string, values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		environment = append(environment, key+"="+values[key])
	}
	return environment
}

// Run walks the host through its states and serves until ctx is
// cancelled (nil error), the settings file changes (ErrSettingsChanged),
// or serving fails. Run may be called once.
func (h *Host) Run(ctx context.Context) error {
	defer h.setState(Exited)

	h.setState(Initializing)
	h.loadSettings()

	if h.config.EnsureListener != nil {
		h.setState(AwaitingPrivilege)
		if err := h.config.EnsureListener(ctx, h.config.Port); err != nil {
			return fmt.Errorf("reserving listener on port %d: %w", h.config.Port, err)
		}
	}

	address := h.config.Address
	if address == "" {
		address = fmt.Sprintf(":%d", h.config.Port)
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", address, err)
	}
	h.mu.Lock()
	h.addr = listener.Addr()
	h.mu.Unlock()
	h.setState(ListenerBound)

	server := &http.Server{
		Handler:           h.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var watcher *settingsWatcher
	if h.config.SettingsFile != "" {
		watcher, err = newSettingsWatcher(h.settingsPath(), h.logger)
		if err != nil {
			listener.Close()
			return err
		}
	}

	// Connections queue in the listen backlog until Serve picks them
	// up, so the host is reachable from here on.
	h.setState(Serving)
	close(h.ready)
	h.logger.Info("host serving",
		"address", listener.Addr().String(),
		"script_path", h.config.ScriptPath,
		"instance_id", h.instanceID)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	if watcher != nil {
		group.Go(func() error {
			return watcher.run(groupCtx)
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		h.setState(ShuttingDown)
		// No drain: in-flight requests are cut off.
		return server.Close()
	})

	err = group.Wait()
	if errors.Is(err, ErrSettingsChanged) {
		h.logger.Info("settings file changed, exiting", "path", h.settingsPath())
	}
	return err
}

func (h *Host) settingsPath() string {
	if filepath.IsAbs(h.config.SettingsFile) {
		return h.config.SettingsFile
	}
	return filepath.Join(h.config.ScriptPath, h.config.SettingsFile)
}

// loadSettings reads the settings source. Failures are logged and
// ignored: a host without settings still serves.
func (h *Host) loadSettings() {
	if h.config.Settings == nil {
		return
	}
	values, err := h.config.Settings.GetAll()
	if err != nil {
		h.logger.Warn("local settings not loaded", "error", err)
		return
	}
	h.mu.Lock()
	h.settings = values
	h.mu.Unlock()
	h.logger.Debug("local settings loaded", "count", len(values))
}
