// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package hydroconf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rubik/hydroconf/pkg/config"
	"github.com/rubik/hydroconf/pkg/environ"
	"github.com/rubik/hydroconf/pkg/sources"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultSection is the table of every settings file applied before
// the table named after the selected environment.
const DefaultSection = "default"

type options struct {
	fs         afero.Fs
	env        environ.Snapshot
	logger     *zap.Logger
	formats    config.Formats
	executable func() (string, error)
}

// Option
type Option func(*options)

// WithFs sets the filesystem files are discovered on and read from.
//
// Default: afero.NewOsFs()
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithEnviron fixes the environment variables used by every resolution.
// Without it, each resolution captures the process environment anew.
func WithEnviron(env environ.Snapshot) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithLogger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFormats replaces the supported settings file formats. Their order
// is the extension priority used when no file name is configured.
//
// Default: config.DefaultFormats()
func WithFormats(formats config.Formats) Option {
	return func(o *options) {
		o.formats = formats
	}
}

// WithExecutable sets how the executable path is found when no root
// path is configured.
//
// Default: os.Executable
func WithExecutable(f func() (string, error)) Option {
	return func(o *options) {
		o.executable = f
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		fs:         afero.NewOsFs(),
		logger:     zap.NewNop(),
		formats:    config.DefaultFormats(),
		executable: os.Executable,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Hydroconf resolves layered configuration for a single application.
//
// Every resolution walks the filesystem and reads the environment again.
// Nothing is cached between calls.
type Hydroconf struct {
	settings   Settings
	fs         afero.Fs
	env        environ.Snapshot
	log        *zap.Logger
	formats    config.Formats
	executable func() (string, error)
}

// New returns a Hydroconf which resolves configuration as described by s.
func New(s Settings, opts ...Option) *Hydroconf {
	o := newOptions(opts...)
	return newHydroconf(s, o)
}

// Default returns a Hydroconf configured by [DefaultSettings] read from
// the environment given by [WithEnviron] or, if absent, the process environment.
func Default(opts ...Option) *Hydroconf {
	o := newOptions(opts...)
	env := o.env
	if env == nil {
		env = environ.Capture()
	}
	return newHydroconf(DefaultSettings(env), o)
}

func newHydroconf(s Settings, o *options) *Hydroconf {
	return &Hydroconf{
		settings:   s,
		fs:         o.fs,
		env:        o.env,
		log:        o.logger,
		formats:    o.formats,
		executable: o.executable,
	}
}

// Settings returns the settings used by h.
func (h *Hydroconf) Settings() Settings {
	return h.settings
}

// Sources discovers the files which would be read by [Hydroconf.Load].
func (h *Hydroconf) Sources() (sources.Discovered, error) {
	err := h.settings.Validate()
	if err != nil {
		return sources.Discovered{}, err
	}

	root := h.rootPath()
	h.log.Debug(
		"discovering configuration files",
		zap.String("root_path", root),
		zap.String("env", h.settings.Env),
	)

	locator := sources.NewLocator(
		sources.Fs(h.fs),
		sources.Formats(h.formats),
		sources.Logger(h.log),
	)
	d := locator.Locate(root, h.settings.Env, h.settings.SettingsFile, h.settings.SecretsFile)
	return d, nil
}

func (h *Hydroconf) rootPath() string {
	if h.settings.RootPath != "" {
		return h.settings.RootPath
	}

	exe, err := h.executable()
	if err != nil {
		h.log.Warn("failed to locate executable, searching from the filesystem root", zap.Error(err))
		return ""
	}
	return filepath.Dir(exe)
}

// Load resolves the configuration into a [config.Document]. Layers are
// applied in order, later ones winning:
//
//   - settings file, default then environment section
//   - local settings file, default then environment section
//   - secrets file, default then environment section
//   - dotenv files, .env then .env.<env>
//   - process environment variables
//
// Missing files or sections are skipped. A file which cannot be read
// or parsed fails the whole resolution with a [config.FileError].
func (h *Hydroconf) Load() (*config.Document, error) {
	d, err := h.Sources()
	if err != nil {
		return nil, err
	}

	s := h.settings
	var srcs []config.Source
	for _, path := range []string{d.Settings, d.LocalSettings, d.Secrets} {
		if path == "" {
			continue
		}
		format, ok := h.formats.ForFile(path)
		if !ok {
			continue
		}
		srcs = append(
			srcs,
			config.FromFile(h.fs, path, format).
				WithEncoding(s.Encoding).
				WithSections(DefaultSection, s.Env),
		)
	}
	if len(d.Dotenv) > 0 {
		srcs = append(
			srcs,
			config.FromDotenv(h.fs, s.EnvvarPrefix, s.NestedSeparator, d.Dotenv...).
				WithEncoding(s.Encoding),
		)
	}
	srcs = append(srcs, config.FromEnviron(h.environ(), s.EnvvarPrefix, s.NestedSeparator))

	doc, err := config.Read(srcs...)
	if err != nil {
		return nil, ConfigReadError{Cause: err}
	}
	return doc, nil
}

func (h *Hydroconf) environ() environ.Snapshot {
	if h.env != nil {
		return h.env
	}
	return environ.Capture()
}

// Hydrate resolves the configuration and decodes it into v, which must
// be a pointer. Struct fields are matched using the "config" tag.
func (h *Hydroconf) Hydrate(v any) error {
	doc, err := h.Load()
	if err != nil {
		return err
	}

	err = doc.Unmarshal(v)
	if err != nil {
		return ConfigUnmarshalError{Cause: err}
	}
	return nil
}

// Hydrate resolves the configuration with h and decodes it into a new T.
func Hydrate[T any](h *Hydroconf) (T, error) {
	var cfg T
	err := h.Hydrate(&cfg)
	return cfg, err
}

// ConfigReadError
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal read config source(s) into custom type: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}
