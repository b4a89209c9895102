// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sources discovers the configuration files which apply to a root path.
package sources

import (
	"path/filepath"
	"strings"

	"github.com/rubik/hydroconf/pkg/config"
	"github.com/rubik/hydroconf/pkg/pathwalk"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// SettingsStem is the file name stem searched when no settings file name is given.
	SettingsStem = "settings"

	// SecretsStem is the file name stem searched when no secrets file name is given.
	SecretsStem = ".secrets"

	// Dotenv is the name of the base dotenv file.
	Dotenv = ".env"

	localSuffix = ".local"
)

// Discovered lists the files found for a single resolution.
// Empty paths mean the file was not found.
type Discovered struct {
	Settings      string
	LocalSettings string
	Secrets       string

	// Dotenv holds at most two paths, .env and then .env.<env>.
	Dotenv []string
}

type locatorOptions struct {
	fs      afero.Fs
	formats config.Formats
	logger  *zap.Logger
	subdirs []string
}

// LocatorOption
type LocatorOption func(*locatorOptions)

// Fs sets the filesystem searched by the Locator.
//
// Default: afero.NewOsFs()
func Fs(fs afero.Fs) LocatorOption {
	return func(lo *locatorOptions) {
		lo.fs = fs
	}
}

// Formats sets the supported file formats. Their order is the
// extension priority used when no file name is given.
//
// Default: config.DefaultFormats()
func Formats(formats config.Formats) LocatorOption {
	return func(lo *locatorOptions) {
		lo.formats = formats
	}
}

// Logger
func Logger(logger *zap.Logger) LocatorOption {
	return func(lo *locatorOptions) {
		lo.logger = logger
	}
}

// Subdirs sets the subdirectories searched after each directory of the walk.
//
// Default: pathwalk.ConfigDir
func Subdirs(subdirs ...string) LocatorOption {
	return func(lo *locatorOptions) {
		lo.subdirs = subdirs
	}
}

// Locator finds settings, secrets and dotenv files by walking
// from a root directory up to the filesystem root.
type Locator struct {
	fs      afero.Fs
	formats config.Formats
	log     *zap.Logger
	subdirs []string
}

// NewLocator
func NewLocator(opts ...LocatorOption) *Locator {
	lo := &locatorOptions{
		fs:      afero.NewOsFs(),
		formats: config.DefaultFormats(),
		logger:  zap.NewNop(),
		subdirs: []string{pathwalk.ConfigDir},
	}
	for _, opt := range opts {
		opt(lo)
	}

	return &Locator{
		fs:      lo.fs,
		formats: lo.formats,
		log:     lo.logger,
		subdirs: lo.subdirs,
	}
}

// Locate discovers the files which apply to root and env.
//
// Settings and secrets are taken from the closest level of the walk
// holding either of them and never from two different levels. An empty
// file name searches for the conventional stem with every supported
// extension in priority order. A file name which is not a pure file
// name, or whose extension is not supported, is logged and treated as
// absent.
//
// The local settings file, <stem>.local.<ext>, and the two dotenv
// files are each the first match along the whole walk.
func (l *Locator) Locate(root, env, settingsFile, secretsFile string) Discovered {
	levels := pathwalk.Levels(l.fs, root, l.subdirs...)

	var d Discovered
	for _, name := range []string{Dotenv, Dotenv + "." + env} {
		path, ok := l.find(levels, name)
		if ok {
			d.Dotenv = append(d.Dotenv, path)
		}
	}

	settingsNames := l.fileNames("settings", SettingsStem, settingsFile)
	secretsNames := l.fileNames("secrets", SecretsStem, secretsFile)
	for _, level := range levels {
		settings, foundSettings := l.findAt(level, settingsNames)
		secrets, foundSecrets := l.findAt(level, secretsNames)
		if !foundSettings && !foundSecrets {
			continue
		}
		d.Settings = settings
		d.Secrets = secrets
		break
	}

	if d.Settings != "" {
		d.LocalSettings, _ = l.find(levels, localName(filepath.Base(d.Settings)))
	}
	return d
}

func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + localSuffix + ext
}

// fileNames returns the file names to search for, in priority order.
func (l *Locator) fileNames(kind, stem, name string) []string {
	if name == "" {
		exts := l.formats.Extensions()
		names := make([]string, len(exts))
		for i, ext := range exts {
			names[i] = stem + "." + ext
		}
		return names
	}

	if !isPureFileName(name) {
		l.log.Warn(
			"please pass a pure file name, not a path",
			zap.String("kind", kind),
			zap.String("file_name", name),
		)
		return nil
	}

	_, ok := l.formats.ForFile(name)
	if !ok {
		l.log.Warn(
			"unsupported file extension",
			zap.String("kind", kind),
			zap.String("file_name", name),
			zap.String("extension", filepath.Ext(name)),
		)
		return nil
	}
	return []string{name}
}

func isPureFileName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func (l *Locator) find(levels []pathwalk.Level, names ...string) (string, bool) {
	for _, level := range levels {
		path, ok := l.findAt(level, names)
		if ok {
			return path, true
		}
	}
	return "", false
}

func (l *Locator) findAt(level pathwalk.Level, names []string) (string, bool) {
	for _, dir := range level.Candidates {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if !l.isFile(path) {
				continue
			}
			l.log.Debug("collect from", zap.String("path", path))
			return path, true
		}
	}
	return "", false
}

func (l *Locator) isFile(path string) bool {
	info, err := l.fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
