// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"github.com/rubik/hydroconf/pkg/config/key"
)

// Store represents a general key value structure.
type Store interface {
	Set(key.Keyer, any) error
}

// Source defines valid config sources as those who can
// serialize themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// SourceFunc is a functional implementation of the Source interface.
type SourceFunc func(Store) error

// Apply implements the Source interface.
func (f SourceFunc) Apply(store Store) error {
	return f(store)
}

// Read applies the given sources, in order, onto a new Document.
// Subsequent sources override previous sources.
func Read(srcs ...Source) (*Document, error) {
	doc := NewDocument()
	for _, src := range srcs {
		err := src.Apply(doc)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}
