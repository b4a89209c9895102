// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package hydroconf

import (
	"fmt"

	"github.com/rubik/hydroconf/pkg/config"
	"github.com/rubik/hydroconf/pkg/environ"

	"github.com/go-playground/validator/v10"
)

// Meta variables which override the built-in defaults of [DefaultSettings].
const (
	RootPathVar        = "ROOT_PATH_FOR_HYDRO"
	SettingsFileVar    = "SETTINGS_FILE_FOR_HYDRO"
	SecretsFileVar     = "SECRETS_FILE_FOR_HYDRO"
	EnvVar             = "ENV_FOR_HYDRO"
	EnvvarPrefixVar    = "ENVVAR_PREFIX_FOR_HYDRO"
	NestedSeparatorVar = "ENVVAR_NESTED_SEP_FOR_HYDRO"
	EncodingVar        = "ENCODING_FOR_HYDRO"
)

// Built-in defaults.
const (
	DefaultEnv             = "development"
	DefaultEnvvarPrefix    = "HYDRO"
	DefaultNestedSeparator = "__"
	DefaultSettingsFile    = "settings.toml"
	DefaultSecretsFile     = ".secrets.toml"
)

// Settings controls how configuration is resolved. The zero value of
// RootPath means the directory of the running executable. Empty file
// names search for settings.<ext> and .secrets.<ext> with every
// supported extension.
//
// Settings is a value type. Every With method returns a modified copy.
type Settings struct {
	RootPath        string
	SettingsFile    string
	SecretsFile     string
	Env             string `validate:"required"`
	EnvvarPrefix    string `validate:"required"`
	NestedSeparator string `validate:"required"`
	Encoding        string `validate:"required,encoding"`
}

// DefaultSettings returns the built-in defaults, each overridden by its
// meta variable when that is set in env.
func DefaultSettings(env environ.Snapshot) Settings {
	return Settings{
		RootPath:        env.Get(RootPathVar),
		SettingsFile:    lookupOr(env, SettingsFileVar, DefaultSettingsFile),
		SecretsFile:     lookupOr(env, SecretsFileVar, DefaultSecretsFile),
		Env:             lookupOr(env, EnvVar, DefaultEnv),
		EnvvarPrefix:    lookupOr(env, EnvvarPrefixVar, DefaultEnvvarPrefix),
		NestedSeparator: lookupOr(env, NestedSeparatorVar, DefaultNestedSeparator),
		Encoding:        lookupOr(env, EncodingVar, config.DefaultEncoding),
	}
}

func lookupOr(env environ.Snapshot, name, def string) string {
	v, ok := env.Lookup(name)
	if !ok || v == "" {
		return def
	}
	return v
}

func (s Settings) WithRootPath(path string) Settings {
	s.RootPath = path
	return s
}

func (s Settings) WithSettingsFile(name string) Settings {
	s.SettingsFile = name
	return s
}

func (s Settings) WithSecretsFile(name string) Settings {
	s.SecretsFile = name
	return s
}

func (s Settings) WithEnv(env string) Settings {
	s.Env = env
	return s
}

func (s Settings) WithEnvvarPrefix(prefix string) Settings {
	s.EnvvarPrefix = prefix
	return s
}

func (s Settings) WithNestedSeparator(sep string) Settings {
	s.NestedSeparator = sep
	return s
}

func (s Settings) WithEncoding(encoding string) Settings {
	s.Encoding = encoding
	return s
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("encoding", func(fl validator.FieldLevel) bool {
		return config.CheckEncoding(fl.Field().String()) == nil
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Validate reports an InvalidSettingsError if a required field is
// empty or the encoding is unknown.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err != nil {
		return InvalidSettingsError{Cause: err}
	}
	return nil
}

// InvalidSettingsError
type InvalidSettingsError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid settings: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidSettingsError) Unwrap() error {
	return e.Cause
}
