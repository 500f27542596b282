// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "FNHOST_CONFIG"

// DefaultCORSOrigins are the portal origins allowed to call a local
// host when no cors_origins are configured.
var DefaultCORSOrigins = []string{
	"https://functions.azure.com",
	"https://functions-staging.azure.com",
	"https://functions-next.azure.com",
}

// Config is the master configuration for fnhost.
type Config struct {
	// Host configures the long-running host process.
	Host HostConfig `yaml:"host"`

	// Supervisor configures host discovery from the CLI side.
	Supervisor SupervisorConfig `yaml:"supervisor"`

	// Elevation configures how privileged sub-operations are relaunched.
	Elevation ElevationConfig `yaml:"elevation"`
}

// HostConfig configures the host process started by "host start".
type HostConfig struct {
	// BasePort is the first port tried by discovery and the default
	// for "host start --port". Default: 7071
	BasePort int `yaml:"base_port"`

	// MaxPortAttempts bounds discovery: ports BasePort through
	// BasePort+MaxPortAttempts-1 are tried. Default: 10
	MaxPortAttempts int `yaml:"max_port_attempts"`

	// CORSOrigins lists origins allowed to call the host. "*" allows
	// any origin.
	CORSOrigins []string `yaml:"cors_origins"`

	// SettingsFile is the local settings file name, resolved against
	// the project directory. Editing it restarts the host.
	// Default: local.settings.json
	SettingsFile string `yaml:"settings_file"`

	// NodeDebugPort is the default debugger port handed to language
	// workers. Default: 5858
	NodeDebugPort int `yaml:"node_debug_port"`

	// LogDir receives the output of hosts spawned in the background.
	// Default: ${TMPDIR}
	LogDir string `yaml:"log_dir"`
}

// SupervisorConfig configures how the CLI finds or starts a host.
type SupervisorConfig struct {
	// ConnectTimeout bounds the wait for a host to become reachable.
	// Default: 20s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// PollInterval is the delay between liveness probes. Default: 500ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// SpawnDelay is the pause after spawning a host before returning
	// its address. Default: 500ms
	SpawnDelay time.Duration `yaml:"spawn_delay"`

	// DisplayLaunchWarning prints a notice before a new host is
	// launched in the background. Default: true
	DisplayLaunchWarning bool `yaml:"display_launch_warning"`
}

// ElevationConfig configures privileged relaunches.
type ElevationConfig struct {
	// Command is the elevation wrapper prefixed to the relaunched
	// command line on Unix systems. Ignored on Windows, where the
	// relaunch goes through the UAC consent prompt.
	// Default: ["sudo"]
	Command []string `yaml:"command"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Host: HostConfig{
			BasePort:        7071,
			MaxPortAttempts: 10,
			CORSOrigins:     append([]string(nil), DefaultCORSOrigins...),
			SettingsFile:    "local.settings.json",
			NodeDebugPort:   5858,
			LogDir:          "${TMPDIR}",
		},
		Supervisor: SupervisorConfig{
			ConnectTimeout:       20 * time.Second,
			PollInterval:         500 * time.Millisecond,
			SpawnDelay:           500 * time.Millisecond,
			DisplayLaunchWarning: true,
		},
	}
	if runtime.GOOS != "windows" {
		cfg.Elevation.Command = []string{"sudo"}
	}
	cfg.expandVariables()
	return cfg
}

// Load loads configuration from the file named by FNHOST_CONFIG, or
// returns [Default] when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path, overlaying it on [Default].
// Fields absent from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":   os.Getenv("HOME"),
		"TMPDIR": os.TempDir(),
	}
	c.Host.LogDir = expandVars(c.Host.LogDir, vars)
	c.Host.SettingsFile = expandVars(c.Host.SettingsFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// vars before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Host.BasePort <= 0 || c.Host.BasePort > 65535 {
		errs = append(errs, fmt.Errorf("host.base_port must be in 1..65535, got %d", c.Host.BasePort))
	}
	if c.Host.MaxPortAttempts <= 0 {
		errs = append(errs, fmt.Errorf("host.max_port_attempts must be positive, got %d", c.Host.MaxPortAttempts))
	} else if c.Host.BasePort+c.Host.MaxPortAttempts-1 > 65535 {
		errs = append(errs, fmt.Errorf("host.max_port_attempts runs past port 65535"))
	}
	if c.Host.NodeDebugPort <= 0 || c.Host.NodeDebugPort > 65535 {
		errs = append(errs, fmt.Errorf("host.node_debug_port must be in 1..65535, got %d", c.Host.NodeDebugPort))
	}
	if strings.TrimSpace(c.Host.SettingsFile) == "" {
		errs = append(errs, fmt.Errorf("host.settings_file is required"))
	}
	for _, origin := range c.Host.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("host.cors_origins: %q must be \"*\" or start with http:// or https://", origin))
		}
	}
	if c.Supervisor.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("supervisor.connect_timeout must be positive"))
	}
	if c.Supervisor.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("supervisor.poll_interval must be positive"))
	}
	if c.Supervisor.SpawnDelay < 0 {
		errs = append(errs, fmt.Errorf("supervisor.spawn_delay must not be negative"))
	}

	return errors.Join(errs...)
}
