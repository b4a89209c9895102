// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"io"
	"sort"
	"strings"

	"github.com/rubik/hydroconf/internal/try"
	"github.com/rubik/hydroconf/pkg/config/key"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// Dotenv represents a Source where its underlying values are
// KEY=VALUE entries of one or more .env files. Only entries whose
// key starts with <PREFIX>_, compared case-insensitively, are applied.
type Dotenv struct {
	fs       afero.Fs
	paths    []string
	prefix   string
	sep      string
	encoding string
}

// FromDotenv returns a Source which will apply the prefixed entries of
// the given files. Files are applied in order, so later files win.
func FromDotenv(fs afero.Fs, prefix, sep string, paths ...string) Dotenv {
	return Dotenv{
		fs:       fs,
		paths:    paths,
		prefix:   envPrefix(prefix),
		sep:      sep,
		encoding: DefaultEncoding,
	}
}

// WithEncoding returns a copy of src which decodes files from the named encoding.
func (src Dotenv) WithEncoding(name string) Dotenv {
	src.encoding = name
	return src
}

// Apply implements the Source interface. Entries with empty values
// are skipped.
func (src Dotenv) Apply(store Store) error {
	for _, path := range src.paths {
		vars, err := src.read(path)
		if err != nil {
			return FileError{Path: path, Cause: err}
		}

		names := make([]string, 0, len(vars))
		for name := range vars {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			v := vars[name]
			if v == "" {
				continue
			}
			rest, ok := cutPrefixFold(name, src.prefix)
			if !ok {
				continue
			}
			chain, ok := key.Split(rest, src.sep)
			if !ok {
				continue
			}
			err := store.Set(chain, v)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (src Dotenv) read(path string) (_ map[string]string, err error) {
	r := NewFileReader(src.fs, path, src.encoding)
	defer try.Close(&err, r)

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	vars, err := godotenv.Unmarshal(string(b))
	if err != nil {
		return nil, InvalidFormatError{Format: "dotenv", Cause: err}
	}
	return vars, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
