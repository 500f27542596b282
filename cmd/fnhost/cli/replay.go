// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/pflag"
)

// Replay returns the command line, without the executable, that makes a
// new fnhost process construct action with its current flag values and
// positional arguments. Every flag is written as --name=value in name
// order. Slice flags repeat once per element, and an empty slice is
// written as --name= so the default does not come back.
func Replay(descriptor Descriptor, action Action) ([]string, error) {
	tokens := descriptor.Tokens()

	if params := action.Params(); params != nil {
		flagSet, err := boundSnapshot(descriptor.Name, params)
		if err != nil {
			return nil, err
		}
		flagSet.VisitAll(func(flag *pflag.Flag) {
			tokens = append(tokens, replayFlag(flag)...)
		})
	}

	if positional, ok := action.(PositionalParser); ok {
		if args := positional.PositionalArgs(); len(args) > 0 {
			tokens = append(tokens, "--")
			tokens = append(tokens, args...)
		}
	}
	return tokens, nil
}

// boundSnapshot binds a flag set to params without losing the values
// params holds: binding resets fields to their defaults, so the struct
// is saved first and restored afterwards. The flags then read the
// restored values through their bound pointers.
func boundSnapshot(name string, params any) (*pflag.FlagSet, error) {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	saved := reflect.New(value.Elem().Type()).Elem()
	saved.Set(value.Elem())

	flagSet, err := newFlagSet(name, params)
	value.Elem().Set(saved)
	if err != nil {
		return nil, err
	}
	return flagSet, nil
}

func replayFlag(flag *pflag.Flag) []string {
	prefix := "--" + flag.Name + "="
	slice, ok := flag.Value.(pflag.SliceValue)
	if !ok {
		return []string{prefix + flag.Value.String()}
	}
	elements := slice.GetSlice()
	if len(elements) == 0 {
		return []string{prefix}
	}
	tokens := make([]string, 0, len(elements))
	for _, element := range elements {
		tokens = append(tokens, prefix+csvField(element))
	}
	return tokens
}

// csvField quotes element the way pflag's slice parser reads it back:
// slice flag values are CSV records.
func csvField(element string) string {
	if !strings.ContainsAny(element, ",\"\r\n") && !strings.HasPrefix(element, " ") {
		return element
	}
	return `"` + strings.ReplaceAll(element, `"`, `""`) + `"`
}
