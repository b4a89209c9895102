// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
)

// Parser converts between raw bytes and a nested key value tree.
// Any koanf parser satisfies this interface.
type Parser interface {
	Unmarshal([]byte) (map[string]any, error)
	Marshal(map[string]any) ([]byte, error)
}

// Format pairs a file extension, without its leading dot, with the
// Parser used for files carrying that extension.
type Format struct {
	Extension string
	Parser    Parser
}

// Formats is a priority ordered list of supported file formats.
type Formats []Format

// DefaultFormats returns every built-in format in search priority order:
// toml, json, yaml, ini and hjson.
func DefaultFormats() Formats {
	return Formats{
		{Extension: "toml", Parser: Toml{}},
		{Extension: "json", Parser: Json{}},
		{Extension: "yaml", Parser: yaml.Parser()},
		{Extension: "ini", Parser: Ini{}},
		{Extension: "hjson", Parser: Hjson{}},
	}
}

// Lookup returns the Format registered for ext. The extension is
// matched case-insensitively and may carry a leading dot.
func (fs Formats) Lookup(ext string) (Format, bool) {
	ext = strings.TrimPrefix(ext, ".")
	for _, f := range fs {
		if strings.EqualFold(f.Extension, ext) {
			return f, true
		}
	}
	return Format{}, false
}

// ForFile returns the Format registered for the extension of path.
func (fs Formats) ForFile(path string) (Format, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return Format{}, false
	}
	return fs.Lookup(ext)
}

// Extensions returns the registered extensions in priority order.
func (fs Formats) Extensions() []string {
	exts := make([]string, len(fs))
	for i, f := range fs {
		exts[i] = f.Extension
	}
	return exts
}

// InvalidFormatError occurs if a Parser rejects the content it was given.
type InvalidFormatError struct {
	Format string
	Cause  error
}

// Error implements the error interface.
func (e InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Format, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidFormatError) Unwrap() error {
	return e.Cause
}
