// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// settingsWatcher fires on any change to one file. It watches the
// parent directory so that atomic replacement (write temp, rename over)
// and creation of a file that did not exist yet are both seen.
type settingsWatcher struct {
	watcher *fsnotify.Watcher
	name    string
	logger  *slog.Logger
}

func newSettingsWatcher(path string, logger *slog.Logger) (*settingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating settings watcher: %w", err)
	}
	directory := filepath.Dir(path)
	if err := watcher.Add(directory); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", directory, err)
	}
	return &settingsWatcher{
		watcher: watcher,
		name:    filepath.Base(path),
		logger:  logger,
	}, nil
}

// run blocks until the file changes (ErrSettingsChanged) or ctx is
// done (nil). The watcher is closed on return.
func (w *settingsWatcher) run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != w.name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("settings file event", "op", event.Op.String(), "path", event.Name)
			return ErrSettingsChanged
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("settings watcher error", "error", err)
		}
	}
}
