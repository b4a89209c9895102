// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"strings"

	"github.com/rubik/hydroconf/pkg/config/key"

	"github.com/knadh/koanf/v2"
)

// Document is the merged configuration tree. Keys are stored lower-cased
// and every lookup is case-insensitive.
type Document struct {
	k *koanf.Koanf
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{
		k: koanf.New(key.Delimiter),
	}
}

// UnknownKeyerError
type UnknownKeyerError struct {
	key key.Keyer
}

// Error implements the error interface.
func (e UnknownKeyerError) Error() string {
	return fmt.Sprintf("config source tried setting config value with unknown key.Keyer: %s", e.key.Key())
}

// EmptyKeyChainError
type EmptyKeyChainError struct {
	Value any
}

// Error implements the error interface.
func (e EmptyKeyChainError) Error() string {
	return fmt.Sprintf("attempted to set value to an empty key chain: %v", e.Value)
}

// Set implements the Store interface. Table values are merged into any
// existing table at the same key. Every other value replaces what was
// there before, whatever its type.
func (d *Document) Set(k key.Keyer, v any) error {
	switch x := k.(type) {
	case key.Name:
		if x == "" {
			return EmptyKeyChainError{Value: v}
		}
	case key.Chain:
		if len(x) == 0 {
			return EmptyKeyChainError{Value: v}
		}
		for _, name := range x {
			if name.Key() == "" {
				return EmptyKeyChainError{Value: v}
			}
		}
	default:
		return UnknownKeyerError{key: k}
	}
	return d.k.Set(strings.ToLower(k.Key()), lowerKeys(v))
}

func lowerKeys(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, sub := range x {
			m[strings.ToLower(k)] = lowerKeys(sub)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, sub := range x {
			m[strings.ToLower(fmt.Sprint(k))] = lowerKeys(sub)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, sub := range x {
			s[i] = lowerKeys(sub)
		}
		return s
	case []map[string]any:
		s := make([]any, len(x))
		for i, sub := range x {
			s[i] = lowerKeys(sub)
		}
		return s
	default:
		return v
	}
}

func normalizePath(path string) string {
	return strings.ToLower(path)
}

// Get returns a copy of the value at the given dotted path or nil.
func (d *Document) Get(path string) any {
	return d.k.Get(normalizePath(path))
}

// Exists reports whether a value is set at the given dotted path.
func (d *Document) Exists(path string) bool {
	return d.k.Exists(normalizePath(path))
}

// String returns the string value at path or an empty string.
func (d *Document) String(path string) string {
	return d.k.String(normalizePath(path))
}

// Int returns the int value at path or 0.
func (d *Document) Int(path string) int {
	return d.k.Int(normalizePath(path))
}

// Int64 returns the int64 value at path or 0.
func (d *Document) Int64(path string) int64 {
	return d.k.Int64(normalizePath(path))
}

// Float64 returns the float64 value at path or 0.
func (d *Document) Float64(path string) float64 {
	return d.k.Float64(normalizePath(path))
}

// Bool returns the bool value at path or false.
func (d *Document) Bool(path string) bool {
	return d.k.Bool(normalizePath(path))
}

// Strings returns the []string value at path or nil.
func (d *Document) Strings(path string) []string {
	return d.k.Strings(normalizePath(path))
}

// Slice returns the array at path or nil if path is unset or not an array.
func (d *Document) Slice(path string) []any {
	s, _ := d.Get(path).([]any)
	return s
}

// Table returns the table at path or nil if path is unset or not a table.
func (d *Document) Table(path string) map[string]any {
	p := normalizePath(path)
	if _, ok := d.k.Get(p).(map[string]any); !ok {
		return nil
	}
	return d.k.Cut(p).Raw()
}

// Keys returns the sorted, flattened dotted paths of every leaf value.
func (d *Document) Keys() []string {
	return d.k.Keys()
}

// All returns every leaf value keyed by its flattened dotted path.
func (d *Document) All() map[string]any {
	return d.k.All()
}

// Raw returns a copy of the nested tree.
func (d *Document) Raw() map[string]any {
	return d.k.Raw()
}

// Marshal serializes the document with the given Parser.
func (d *Document) Marshal(p Parser) ([]byte, error) {
	return d.k.Marshal(p)
}
