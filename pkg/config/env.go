// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"sort"
	"strings"

	"github.com/rubik/hydroconf/pkg/config/key"
	"github.com/rubik/hydroconf/pkg/environ"

	kenv "github.com/knadh/koanf/providers/env"
)

// Env represents a Source where its underlying values
// are extracted from environment variables named
// <PREFIX>_<PATH>, with the nested separator inside
// <PATH> marking each nesting boundary.
type Env struct {
	// environ is nil when reading the live process environment.
	environ func() []string
	prefix  string
	sep     string
}

// FromEnv returns a Source which will apply its config
// from the environment variables available to the
// current process.
func FromEnv(prefix, sep string) Env {
	return Env{
		prefix: envPrefix(prefix),
		sep:    sep,
	}
}

// FromEnviron returns a Source which will apply its config
// from the given snapshot instead of the live process environment.
func FromEnviron(s environ.Snapshot, prefix, sep string) Env {
	return Env{
		environ: s.Pairs,
		prefix:  envPrefix(prefix),
		sep:     sep,
	}
}

// envPrefix turns a configured prefix into the literal every variable
// name must start with. A single trailing underscore is tolerated.
func envPrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "_")
	if prefix == "" {
		return ""
	}
	return prefix + "_"
}

// Apply implements the Source interface. The prefix match is case-sensitive.
func (src Env) Apply(store Store) error {
	if src.environ == nil {
		return src.applyProcess(store)
	}

	pairs := src.environ()
	sort.Strings(pairs)
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		rest, ok := strings.CutPrefix(k, src.prefix)
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
	return nil
}

func (src Env) applyProcess(store Store) error {
	p := kenv.Provider(src.prefix, key.Delimiter, func(name string) string {
		chain, ok := key.Split(strings.TrimPrefix(name, src.prefix), src.sep)
		if !ok {
			return ""
		}
		return chain.Key()
	})

	m, err := p.Read()
	if err != nil {
		return err
	}
	return Map(m).Apply(store)
}
