// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the fnhost CLI: the registry of every
// action and the container of capabilities they are built from.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/azure"
	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
	"github.com/bureau-foundation/fnhost/cmd/fnhost/hostcmd"
	"github.com/bureau-foundation/fnhost/cmd/fnhost/internaluse"
	"github.com/bureau-foundation/fnhost/cmd/fnhost/settings"
	"github.com/bureau-foundation/fnhost/lib/clock"
	"github.com/bureau-foundation/fnhost/lib/cloud"
	"github.com/bureau-foundation/fnhost/lib/config"
	"github.com/bureau-foundation/fnhost/lib/elevation"
	"github.com/bureau-foundation/fnhost/lib/listener"
	"github.com/bureau-foundation/fnhost/lib/procscan"
	"github.com/bureau-foundation/fnhost/lib/secrets"
	"github.com/bureau-foundation/fnhost/lib/supervisor"
	"github.com/bureau-foundation/fnhost/lib/version"
)

// Registry returns every fnhost action.
func Registry() *cli.Registry {
	var descriptors []cli.Descriptor
	descriptors = append(descriptors, hostcmd.Descriptors()...)
	descriptors = append(descriptors, azure.Descriptors()...)
	descriptors = append(descriptors, settings.Descriptors()...)
	descriptors = append(descriptors, internaluse.Descriptor())
	return cli.NewRegistry(descriptors...)
}

// Container provides the capabilities actions declare. Capabilities
// that touch the system beyond reading it (the elevation broker, the
// supervisor) are built on first use.
func Container(cfg *config.Config, env cli.Environment, logger *slog.Logger, level *slog.LevelVar) *cli.Container {
	container := cli.NewContainer()
	cli.Provide(container, cfg)
	cli.Provide(container, env)
	cli.Provide(container, logger)
	cli.Provide(container, level)
	cli.Provide(container, clock.Real())
	cli.Provide(container, secrets.Open(env.WorkingDirectory, cfg.Host.SettingsFile))
	cli.Provide[cloud.Manager](container, cloud.Unconfigured{})
	cli.Provide(container, listener.Default())
	cli.Provide(container, elevation.DefaultProbe())

	cli.ProvideFunc(container, func(c *cli.Container) (*elevation.Broker, error) {
		probe, err := cli.Resolve[elevation.PrivilegeProbe](c)
		if err != nil {
			return nil, err
		}
		return &elevation.Broker{
			Probe:      probe,
			Launcher:   elevation.DefaultLauncher(cfg.Elevation.Command),
			Executable: env.Executable,
			Dir:        env.WorkingDirectory,
			Logger:     logger,
		}, nil
	})

	cli.ProvideFunc(container, func(c *cli.Container) (*supervisor.Supervisor, error) {
		scanner, err := procscan.ForSelf()
		if err != nil {
			return nil, err
		}
		clk, err := cli.Resolve[clock.Clock](c)
		if err != nil {
			return nil, err
		}
		supervisorConfig := supervisor.Config{
			WorkingDirectory: env.WorkingDirectory,
			Executable:       env.Executable,
			BasePort:         cfg.Host.BasePort,
			MaxAttempts:      cfg.Host.MaxPortAttempts,
			SpawnDelay:       cfg.Supervisor.SpawnDelay,
			PollInterval:     cfg.Supervisor.PollInterval,
			LogDir:           cfg.Host.LogDir,
			Peers:            scanner,
			Spawner:          supervisor.ProcessSpawner{},
			Clock:            clk,
			Logger:           logger,
		}
		if cfg.Supervisor.DisplayLaunchWarning {
			supervisorConfig.BeforeSpawn = func(port int) {
				fmt.Fprintf(env.Stderr, "Starting a function host for %s on port %d...\n", env.WorkingDirectory, port)
			}
		}
		return supervisor.New(supervisorConfig)
	})
	return container
}

// NewApp builds the App for this process from the environment: the
// config named by FNHOST_CONFIG, the working directory, and the
// executable path.
func NewApp() (*cli.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	env, err := cli.CurrentEnvironment()
	if err != nil {
		return nil, err
	}

	debug := cli.DebugFromEnv()
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	if debug {
		level.Set(slog.LevelDebug)
	}
	logger := cli.NewLogger(os.Stderr, level)

	container := Container(cfg, env, logger, level)
	return &cli.App{
		Router: cli.NewRouter(Registry(), container, version.Info()),
		Stdout: env.Stdout,
		Stderr: env.Stderr,
		Debug:  debug,
	}, nil
}
