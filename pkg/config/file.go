// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/rubik/hydroconf/internal/try"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is the character encoding assumed for every file.
const DefaultEncoding = "utf-8"

// UnsupportedEncodingError occurs when a character encoding name
// is not a known WHATWG encoding label.
type UnsupportedEncodingError struct {
	Encoding string
}

// Error implements the error interface.
func (e UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported character encoding: %s", e.Encoding)
}

// CheckEncoding returns an UnsupportedEncodingError if name is not a
// known encoding label. An empty name means utf-8.
func CheckEncoding(name string) error {
	if isUTF8(name) {
		return nil
	}
	_, err := htmlindex.Get(name)
	if err != nil {
		return UnsupportedEncodingError{Encoding: name}
	}
	return nil
}

func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// FileReader is an io.Reader that handles opening a file for reading automatically.
// Content is transcoded from the configured encoding into utf-8.
type FileReader struct {
	fs       afero.Fs
	path     string
	encoding string

	opened  bool
	openErr error
	file    afero.File
	r       io.Reader
}

// NewFileReader configures a FileReader.
func NewFileReader(fs afero.Fs, path, encoding string) *FileReader {
	return &FileReader{
		fs:       fs,
		path:     path,
		encoding: encoding,
	}
}

// Read implements the io.Reader interface.
func (r *FileReader) Read(b []byte) (int, error) {
	if !r.opened {
		r.opened = true
		r.openErr = r.open()
	}
	if r.openErr != nil {
		return 0, r.openErr
	}
	return r.r.Read(b)
}

func (r *FileReader) open() error {
	if isUTF8(r.encoding) {
		f, err := r.fs.Open(r.path)
		if err != nil {
			return err
		}
		r.file = f
		r.r = f
		return nil
	}

	enc, err := htmlindex.Get(r.encoding)
	if err != nil {
		return UnsupportedEncodingError{Encoding: r.encoding}
	}
	f, err := r.fs.Open(r.path)
	if err != nil {
		return err
	}
	r.file = f
	r.r = enc.NewDecoder().Reader(f)
	return nil
}

// Close implements the io.Closer interface.
func (r *FileReader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	return err
}

// FileError occurs when a discovered file cannot be read or parsed.
type FileError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e FileError) Error() string {
	return fmt.Sprintf("failed to load config file %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e FileError) Unwrap() error {
	return e.Cause
}

// File represents a Source backed by a settings file on an afero.Fs.
type File struct {
	fs       afero.Fs
	path     string
	format   Format
	encoding string
	sections []string
}

// FromFile returns a Source which will apply the content of the file at
// path, parsed with the given Format.
func FromFile(fs afero.Fs, path string, format Format) File {
	return File{
		fs:       fs,
		path:     path,
		format:   format,
		encoding: DefaultEncoding,
	}
}

// WithEncoding returns a copy of f which decodes the file from the named encoding.
func (f File) WithEncoding(name string) File {
	f.encoding = name
	return f
}

// WithSections returns a copy of f which only applies the named top level
// tables, in the given order. See Sections.
func (f File) WithSections(names ...string) File {
	f.sections = append([]string(nil), names...)
	return f
}

// Path returns the location of the file.
func (f File) Path() string {
	return f.path
}

// Load reads and parses the whole file, ignoring any section selection.
func (f File) Load() (Map, error) {
	m, err := f.load()
	if err != nil {
		return nil, FileError{Path: f.path, Cause: err}
	}
	return m, nil
}

func (f File) load() (_ Map, err error) {
	defer try.Recover(&err)

	r := NewFileReader(f.fs, f.path, f.encoding)
	defer try.Close(&err, r)

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m, err := f.format.Parser.Unmarshal(b)
	if err != nil {
		return nil, InvalidFormatError{Format: f.format.Extension, Cause: err}
	}
	if m == nil {
		m = make(map[string]any)
	}
	return Map(m), nil
}

// Apply implements the Source interface.
func (f File) Apply(store Store) error {
	m, err := f.Load()
	if err != nil {
		return err
	}
	if len(f.sections) == 0 {
		return m.Apply(store)
	}
	return Sections(m, f.sections...).Apply(store)
}
