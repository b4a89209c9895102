// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/rubik/hydroconf/pkg/config/key"

	"gopkg.in/ini.v1"
)

// Ini is a Parser for INI documents. Keys outside of any section are
// top level keys. Dotted section names, like [production.pg], nest.
// Every value is a string.
type Ini struct{}

// Unmarshal implements the Parser interface.
func (Ini) Unmarshal(b []byte) (map[string]any, error) {
	f, err := ini.Load(b)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, sec := range f.Sections() {
		m := out
		if sec.Name() != ini.DefaultSection {
			m = tableAt(out, strings.Split(sec.Name(), key.Delimiter))
		}
		for _, k := range sec.Keys() {
			m[k.Name()] = k.Value()
		}
	}
	return out, nil
}

func tableAt(m map[string]any, path []string) map[string]any {
	for _, name := range path {
		sub, ok := m[name].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[name] = sub
		}
		m = sub
	}
	return m
}

// Marshal implements the Parser interface. Top level scalars go to the
// default section, top level tables become sections and deeper tables
// are flattened into dotted keys.
func (Ini) Marshal(m map[string]any) ([]byte, error) {
	f := ini.Empty()

	names := sortedKeys(m)
	for _, name := range names {
		if _, ok := m[name].(map[string]any); ok {
			continue
		}
		_, err := f.Section(ini.DefaultSection).NewKey(name, fmt.Sprint(m[name]))
		if err != nil {
			return nil, err
		}
	}

	for _, name := range names {
		table, ok := m[name].(map[string]any)
		if !ok {
			continue
		}
		sec, err := f.NewSection(name)
		if err != nil {
			return nil, err
		}

		flat := make(map[string]any)
		flattenInto(flat, table, "")
		for _, k := range sortedKeys(flat) {
			_, err := sec.NewKey(k, fmt.Sprint(flat[k]))
			if err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flattenInto(out map[string]any, m map[string]any, prefix string) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + key.Delimiter + k
		}
		sub, ok := v.(map[string]any)
		if ok && len(sub) > 0 {
			flattenInto(out, sub, path)
			continue
		}
		out[path] = v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
