// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewLogger returns the structured logger for actions. On a terminal it
// writes slog text; when stderr is piped (CI, a spawned host writing to
// its log file) it writes JSON.
func NewLogger(output *os.File, level slog.Leveler) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(output.Fd())) {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}
	return slog.New(handler)
}

// ParseLevel maps a --debug-level value to a slog level. Besides the
// slog names it accepts "verbose" and "trace" as debug and "off" as a
// level above error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "verbose", "trace":
		return slog.LevelDebug, nil
	case "off", "none":
		return slog.LevelError + 4, nil
	}
	var level slog.Level
	err := level.UnmarshalText([]byte(name))
	return level, err
}
