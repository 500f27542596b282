// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"
)

// Context groups action names so the same name can exist in several
// places. It is used both as the first and the second routing token.
type Context int

const (
	// None means the token was absent. It never parses from input.
	None Context = iota
	Host
	Azure
	FunctionApp
	Settings
)

var contextNames = map[Context]string{
	Host:        "host",
	Azure:       "azure",
	FunctionApp: "functionapp",
	Settings:    "settings",
}

func (c Context) String() string {
	if c == None {
		return ""
	}
	if name, ok := contextNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Context(%d)", int(c))
}

// ParseContext matches token against the context names, ignoring case.
func ParseContext(token string) (Context, bool) {
	for context, name := range contextNames {
		if strings.EqualFold(token, name) {
			return context, true
		}
	}
	return None, false
}
