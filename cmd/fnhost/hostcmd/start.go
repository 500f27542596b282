// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
	"github.com/bureau-foundation/fnhost/cmd/fnhost/internaluse"
	"github.com/bureau-foundation/fnhost/lib/clock"
	"github.com/bureau-foundation/fnhost/lib/config"
	"github.com/bureau-foundation/fnhost/lib/elevation"
	"github.com/bureau-foundation/fnhost/lib/exitcode"
	"github.com/bureau-foundation/fnhost/lib/host"
	"github.com/bureau-foundation/fnhost/lib/hostapi"
	"github.com/bureau-foundation/fnhost/lib/listener"
	"github.com/bureau-foundation/fnhost/lib/secrets"
	"github.com/bureau-foundation/fnhost/lib/version"
)

// NodeParamsEnv carries the node debugger flags to function workers.
const NodeParamsEnv = "EDGE_NODE_PARAMS"

const (
	selfCheckTimeout  = 20 * time.Second
	selfCheckInterval = 500 * time.Millisecond
	selfCheckProbe    = 2 * time.Second
)

type startParams struct {
	Port          int      `flag:"port,p" desc:"port to listen on (0 uses host.base_port from the config)"`
	NodeDebugPort int      `flag:"node-debug-port,n" desc:"port the node debugger listens on (0 uses host.node_debug_port from the config)"`
	DebugLevel    string   `flag:"debug-level,d" desc:"log level: trace, debug, info, warn, error or off" default:"info"`
	CORS          []string `flag:"cors" desc:"allowed cross-origin origins, comma separated (empty uses host.cors_origins)"`
}

type startAction struct {
	params startParams

	config      *config.Config
	env         cli.Environment
	logger      *slog.Logger
	level       *slog.LevelVar
	clock       clock.Clock
	store       *secrets.Store
	reservation listener.Reservation
	broker      *elevation.Broker
}

func startDescriptor() cli.Descriptor {
	return cli.Descriptor{
		Context: cli.Host,
		Name:    "start",
		Summary: "Run the function host for this directory in the foreground",
		Needs: []reflect.Type{
			cli.Need[*config.Config](),
			cli.Need[cli.Environment](),
			cli.Need[*slog.Logger](),
			cli.Need[*slog.LevelVar](),
			cli.Need[clock.Clock](),
			cli.Need[*secrets.Store](),
			cli.Need[listener.Reservation](),
			cli.Need[*elevation.Broker](),
		},
		New: newStartAction,
	}
}

func newStartAction(container *cli.Container) (cli.Action, error) {
	action := &startAction{}
	var err error
	if action.config, err = cli.Resolve[*config.Config](container); err != nil {
		return nil, err
	}
	if action.env, err = cli.Resolve[cli.Environment](container); err != nil {
		return nil, err
	}
	if action.logger, err = cli.Resolve[*slog.Logger](container); err != nil {
		return nil, err
	}
	if action.level, err = cli.Resolve[*slog.LevelVar](container); err != nil {
		return nil, err
	}
	if action.clock, err = cli.Resolve[clock.Clock](container); err != nil {
		return nil, err
	}
	if action.store, err = cli.Resolve[*secrets.Store](container); err != nil {
		return nil, err
	}
	if action.reservation, err = cli.Resolve[listener.Reservation](container); err != nil {
		return nil, err
	}
	if action.broker, err = cli.Resolve[*elevation.Broker](container); err != nil {
		return nil, err
	}
	return action, nil
}

func (a *startAction) Params() any { return &a.params }

func (a *startAction) Run(ctx context.Context) error {
	level, err := cli.ParseLevel(a.params.DebugLevel)
	if err != nil {
		return fmt.Errorf("invalid --debug-level %q: %w", a.params.DebugLevel, err)
	}
	a.level.Set(level)

	h, port, err := a.newHost()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	announced := make(chan struct{})
	go func() {
		defer close(announced)
		a.announce(runCtx, h)
	}()

	err = h.Run(runCtx)
	cancel()
	<-announced

	var denied *privilegeError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, host.ErrSettingsChanged):
		fmt.Fprintf(a.env.Stdout, "%s changed, host exiting\n", a.store.Path())
		return nil
	case errors.As(err, &denied):
		fmt.Fprintf(a.env.Stderr, "Listening on port %d requires administrator privileges: %v\n", port, denied.err)
		if denied.log != "" {
			fmt.Fprint(a.env.Stderr, denied.log)
		}
		return exitcode.With(exitcode.MustRunAsAdmin)
	default:
		return err
	}
}

// newHost applies the config fallbacks for flags left at zero and
// builds the host. It returns the port the host will listen on.
func (a *startAction) newHost() (*host.Host, int, error) {
	port := a.params.Port
	if port == 0 {
		port = a.config.Host.BasePort
	}
	origins := a.params.CORS
	if len(origins) == 0 {
		origins = a.config.Host.CORSOrigins
	}
	debugPort := a.params.NodeDebugPort
	if debugPort == 0 {
		debugPort = a.config.Host.NodeDebugPort
	}
	environment := map[string]string{
		NodeParamsEnv: "--debug=" + strconv.Itoa(debugPort),
	}
	// Nothing starts workers yet; the log records what they would get.
	a.logger.Info("function worker environment",
		"port", port,
		NodeParamsEnv, environment[NodeParamsEnv])

	h, err := host.New(host.Config{
		Port:           port,
		ScriptPath:     a.env.WorkingDirectory,
		SettingsFile:   a.store.Path(),
		Settings:       a.store,
		Environment:    environment,
		EnsureListener: a.ensureListener,
		CORSOrigins:    origins,
		Version:        version.Short(),
		Logger:         a.logger,
	})
	if err != nil {
		return nil, 0, err
	}
	return h, port, nil
}

// privilegeError is a failed or refused listener reservation. log is
// the elevated process's output.
type privilegeError struct {
	err error
	log string
}

func (e *privilegeError) Error() string { return e.err.Error() }
func (e *privilegeError) Unwrap() error { return e.err }

func (a *startAction) ensureListener(ctx context.Context, port int) error {
	operation, err := internaluse.SetupListener(port, a.env, a.reservation)
	if err != nil {
		return err
	}
	outcome, err := a.broker.Ensure(ctx, operation)
	if err != nil {
		return &privilegeError{err: err}
	}
	if !outcome.Succeeded {
		return &privilegeError{
			err: fmt.Errorf("%s exited with code %d", operation.Name, outcome.ExitCode),
			log: outcome.Log,
		}
	}
	if outcome.Elevated {
		a.logger.Info("listener reserved with elevated privileges", "port", port)
	}
	return nil
}

// announce prints the listen address once the host is serving, then
// polls the host's own status endpoint until it answers.
func (a *startAction) announce(ctx context.Context, h *host.Host) {
	select {
	case <-h.Ready():
	case <-ctx.Done():
		return
	}

	base := localURL(h.Addr())
	fmt.Fprintf(a.env.Stdout, "Listening on %s\n", base)
	fmt.Fprintln(a.env.Stdout, "Hit CTRL-C to exit...")

	client := hostapi.NewClient(base, selfCheckProbe)
	deadline := a.clock.Now().Add(selfCheckTimeout)
	for {
		probeCtx, cancel := context.WithTimeout(ctx, selfCheckProbe)
		live := client.Live(probeCtx)
		cancel()
		if live {
			a.logger.Debug("host answered its status check", "address", base.String())
			return
		}
		if ctx.Err() != nil {
			return
		}
		if !a.clock.Now().Before(deadline) {
			a.logger.Warn("host did not answer its own status check", "address", base.String())
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-a.clock.After(selfCheckInterval):
		}
	}
}

// localURL is the address users and the supervisor reach the host at.
func localURL(addr net.Addr) *url.URL {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return hostapi.NewCandidate(tcp.Port).BaseURL
	}
	return &url.URL{Scheme: "http", Host: addr.String(), Path: "/"}
}
