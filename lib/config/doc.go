// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for fnhost.
//
// Configuration comes from a single optional file named by the
// FNHOST_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). Unlike service deployments, a developer CLI must
// work with no configuration at all, so [Load] returns [Default] when
// FNHOST_CONFIG is unset. There is no search path.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${TMPDIR} and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Host, Supervisor, Elevation
//   - [Default] -- the defaults used when no file is given
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other fnhost packages.
package config
