// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package key provides types for strongly typed keys in key value pairs.
package key

import (
	"strings"
)

// Delimiter separates the segments of a dotted configuration path.
const Delimiter = "."

// Keyer is a common interface all value key types must implement.
type Keyer interface {
	Key() string
}

// Chain represents nested keys.
type Chain []Keyer

// Key implements the [Keyer] interface.
func (k Chain) Key() string {
	ss := make([]string, len(k))
	for i := 0; i < len(k); i++ {
		ss[i] = k[i].Key()
	}
	return strings.Join(ss, Delimiter)
}

// Name represents a single key. Name can be used other keys.
type Name string

// Key implements the [Keyer] interface.
func (k Name) Key() string {
	return string(k)
}

// Split builds a Chain from s by cutting it at every occurrence of sep.
// It reports false if any resulting segment is empty.
func Split(s, sep string) (Chain, bool) {
	if s == "" {
		return nil, false
	}
	if sep == "" {
		return Chain{Name(s)}, true
	}

	parts := strings.Split(s, sep)
	chain := make(Chain, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, false
		}
		chain[i] = Name(part)
	}
	return chain, true
}
