// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package environ provides read-only snapshots of process environment variables.
package environ

import (
	"os"
	"sort"
	"strings"
)

// Snapshot is an immutable copy of a set of environment variables.
// Readers of a Snapshot never observe later changes to the process
// environment.
type Snapshot map[string]string

// Capture copies the environment variables of the current process.
func Capture() Snapshot {
	return FromPairs(os.Environ())
}

// FromPairs builds a Snapshot from "KEY=VALUE" pairs, as returned
// by [os.Environ]. Pairs without a "=" are skipped. When a key
// repeats, the last pair wins.
func FromPairs(pairs []string) Snapshot {
	s := make(Snapshot, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}
		s[k] = v
	}
	return s
}

// Lookup returns the value of the named variable and whether it is present.
func (s Snapshot) Lookup(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// Get returns the value of the named variable or an empty string.
func (s Snapshot) Get(name string) string {
	return s[name]
}

// Pairs returns the variables as sorted "KEY=VALUE" pairs.
func (s Snapshot) Pairs() []string {
	pairs := make([]string, 0, len(s))
	for k, v := range s {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return pairs
}
