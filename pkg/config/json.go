// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding/json"
)

// Json is a Parser for JSON documents.
type Json struct{}

// Unmarshal implements the Parser interface.
func (Json) Unmarshal(b []byte) (map[string]any, error) {
	m := make(map[string]any)
	err := json.Unmarshal(b, &m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal implements the Parser interface. Object keys are sorted so
// equal documents always produce identical bytes.
func (Json) Marshal(m map[string]any) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
