// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli routes fnhost command lines to actions.
//
// An action is addressed by up to three tokens: an optional context
// ("host", "azure", "settings"), an optional subcontext ("functionapp"),
// and a name. Each action is registered once as a [Descriptor] whose
// constructor closure pulls its dependencies from a [Container]. The
// [Router] peels context tokens off the front of the command line, looks
// up the descriptor, constructs the action, and parses the remaining
// tokens into the action's flag struct. Anything it cannot route becomes
// [Help] output rather than an error.
//
// Flags are declared with struct tags on each action's params struct:
//
//	type params struct {
//	    Port int      `flag:"port,p" desc:"port to listen on" default:"7071"`
//	    CORS []string `flag:"cors" desc:"allowed origins"`
//	}
//
// [Replay] turns a populated params struct back into the command line
// that reproduces it. The elevation broker relies on this to relaunch an
// action with administrator rights.
package cli
