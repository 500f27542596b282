// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secrets reads and writes a project's local settings file
// (local.settings.json by default). The file holds the app settings a
// host exposes to the functions it runs, and is the file the host
// watches: any edit makes a running host exit so the next CLI
// invocation starts a fresh one with the new values.
//
// The on-disk shape is
//
//	{
//	  "IsEncrypted": false,
//	  "Values": { "AzureWebJobsStorage": "..." },
//	  "ConnectionStrings": { "Sql": "..." }
//	}
//
// Comments and trailing commas are tolerated on read (JSONC). Writes
// are atomic and emit plain JSON, so comments do not survive a Set.
package secrets
