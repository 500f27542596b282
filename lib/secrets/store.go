// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"
)

// ErrEncrypted is returned when the settings file is marked encrypted.
// Decryption keys are machine-bound and outside fnhost's scope.
var ErrEncrypted = errors.New("settings file is encrypted")

// document is the JSON shape of the settings file.
type document struct {
	IsEncrypted       bool              `json:"IsEncrypted"`
	Values            map[string]string `json:"Values"`
	ConnectionStrings map[string]string `json:"ConnectionStrings,omitempty"`
}

// Store is the settings file of one project directory.
type Store struct {
	path string
}

// Open returns the Store for the file name inside directory. The file
// need not exist yet.
func Open(directory, name string) *Store {
	return &Store{path: filepath.Join(directory, name)}
}

// Path returns the absolute or directory-relative settings file path.
func (s *Store) Path() string {
	return s.path
}

// GetAll returns every value in the file. A missing file yields an
// empty map and no error.
func (s *Store) GetAll() (map[string]string, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if doc.IsEncrypted {
		return nil, fmt.Errorf("%s: %w", s.path, ErrEncrypted)
	}
	values := make(map[string]string, len(doc.Values))
	for key, value := range doc.Values {
		values[key] = value
	}
	return values, nil
}

// Keys returns the setting names in sorted order.
func (s *Store) Keys() ([]string, error) {
	values, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Set stores value under key, creating the file if needed.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("setting name is empty")
	}
	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.IsEncrypted {
		return fmt.Errorf("%s: %w", s.path, ErrEncrypted)
	}
	doc.Values[key] = value
	return s.write(doc)
}

// Delete removes key. Deleting an absent key is not an error and does
// not touch the file.
func (s *Store) Delete(key string) error {
	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Values[key]; !ok {
		return nil
	}
	delete(doc.Values, key)
	return s.write(doc)
}

func (s *Store) read() (document, error) {
	doc := document{Values: map[string]string{}}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("reading settings: %w", err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return document{}, fmt.Errorf("parsing settings %s: %w", s.path, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc, nil
}

// write replaces the settings file atomically: the document is written
// to a temporary file in the same directory, fsynced, and renamed into
// place, so a watching host never observes a partial file. An existing
// file keeps its permissions; a new one is created 0600.
func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	data = append(data, '\n')

	mode := os.FileMode(0600)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	temporaryPath := s.path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary settings file: %w", err)
	}
	// Chmod is not subject to the umask, unlike the mode given to open.
	if mode != 0600 {
		if err := file.Chmod(mode); err != nil {
			file.Close()
			os.Remove(temporaryPath)
			return fmt.Errorf("setting settings file mode: %w", err)
		}
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary settings file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary settings file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary settings file: %w", err)
	}
	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming settings file into place: %w", err)
	}
	return nil
}
