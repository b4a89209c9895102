// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"github.com/pelletier/go-toml/v2"
)

// Toml is a Parser for TOML documents.
type Toml struct{}

// Unmarshal implements the Parser interface.
func (Toml) Unmarshal(b []byte) (map[string]any, error) {
	m := make(map[string]any)
	err := toml.Unmarshal(b, &m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal implements the Parser interface.
func (Toml) Marshal(m map[string]any) ([]byte, error) {
	return toml.Marshal(m)
}
