// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"sort"
	"strings"

	"github.com/rubik/hydroconf/pkg/config/key"
)

// Map is an ordinary map[string]any but implements the Source interface.
type Map map[string]any

// Apply implements the Source interface. It recursively walks the underlying
// map to find key value pairs to set on the given store. Empty tables are
// set as-is so they survive the merge.
func (m Map) Apply(store Store) error {
	return walkMap(m, store, nil)
}

func walkMap(m map[string]any, store Store, chain key.Chain) error {
	for k, v := range m {
		next := append(chain[:len(chain):len(chain)], key.Name(k))

		x, ok := v.(map[string]any)
		if !ok || len(x) == 0 {
			err := store.Set(next, v)
			if err != nil {
				return err
			}
			continue
		}

		err := walkMap(x, store, next)
		if err != nil {
			return err
		}
	}
	return nil
}

// Sections returns a Source which applies the named top level tables of m,
// one after another. Names which are missing, or whose value is not a table,
// are skipped. Exact matches are preferred over case-insensitive ones.
func Sections(m Map, names ...string) Source {
	return SourceFunc(func(store Store) error {
		applied := make(map[string]bool, len(names))
		for _, name := range names {
			k, ok := lookupSection(m, name)
			if !ok || applied[k] {
				continue
			}
			applied[k] = true

			section, ok := m[k].(map[string]any)
			if !ok {
				continue
			}
			err := Map(section).Apply(store)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func lookupSection(m Map, name string) (string, bool) {
	if _, ok := m[name]; ok {
		return name, true
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}
