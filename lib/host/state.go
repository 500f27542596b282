// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import "fmt"

// State is a Host lifecycle phase.
type State int32

const (
	Initializing State = iota
	AwaitingPrivilege
	ListenerBound
	Serving
	ShuttingDown
	Exited
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case AwaitingPrivilege:
		return "AwaitingPrivilege"
	case ListenerBound:
		return "ListenerBound"
	case Serving:
		return "Serving"
	case ShuttingDown:
		return "ShuttingDown"
	case Exited:
		return "Exited"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
