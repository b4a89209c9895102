// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"github.com/hjson/hjson-go/v4"
)

// Hjson is a Parser for HJSON documents.
type Hjson struct{}

// Unmarshal implements the Parser interface.
func (Hjson) Unmarshal(b []byte) (map[string]any, error) {
	m := make(map[string]any)
	err := hjson.Unmarshal(b, &m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal implements the Parser interface.
func (Hjson) Marshal(m map[string]any) ([]byte, error) {
	return hjson.Marshal(m)
}
