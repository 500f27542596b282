// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// suggestion.
const maxSuggestDistance = 3

// suggestAction returns the closest action name in descriptors, or "".
func suggestAction(unknown string, descriptors []Descriptor) string {
	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, descriptor := range descriptors {
		distance := levenshtein(strings.ToLower(unknown), strings.ToLower(descriptor.Name))
		if distance < bestDistance {
			bestDistance = distance
			best = descriptor.String()
		}
	}
	return best
}

// suggestFlag finds the first undefined flag in args and returns the
// closest defined one, with its dashes, or "".
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	for _, arg := range args {
		if arg == "--" {
			return ""
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			continue
		}
		long := strings.HasPrefix(arg, "--")
		name := strings.TrimLeft(arg, "-")
		if index := strings.IndexByte(name, '='); index >= 0 {
			name = name[:index]
		}
		if long && flagSet.Lookup(name) != nil {
			continue
		}
		if !long && flagSet.ShorthandLookup(name[:min(1, len(name))]) != nil {
			continue
		}

		best := ""
		bestDistance := maxSuggestDistance + 1
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if distance := levenshtein(name, flag.Name); distance < bestDistance {
				bestDistance = distance
				best = flag.Name
			}
		})
		if best != "" {
			return "--" + best
		}
		return ""
	}
	return ""
}

// levenshtein is the edit distance between a and b.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous = current
	}
	return previous[len(a)]
}
