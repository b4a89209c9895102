// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rubik/hydroconf"
	"github.com/rubik/hydroconf/internal/try"
	"github.com/rubik/hydroconf/pkg/config"
	"github.com/rubik/hydroconf/pkg/environ"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func run(args ...string) error {
	cmd := buildCmd(afero.NewOsFs(), environ.Capture(), os.Stdout)
	cmd.SetArgs(args)
	return cmd.Execute()
}

type flags struct {
	root         string
	env          string
	prefix       string
	nestedSep    string
	settingsFile string
	secretsFile  string
	encoding     string
	output       string
	verbose      bool
}

// apply overrides s with every flag set on the command line.
func (f flags) apply(cmd *cobra.Command, s hydroconf.Settings) hydroconf.Settings {
	set := cmd.Flags().Changed
	if set("root") {
		s = s.WithRootPath(f.root)
	}
	if set("env") {
		s = s.WithEnv(f.env)
	}
	if set("prefix") {
		s = s.WithEnvvarPrefix(f.prefix)
	}
	if set("nested-sep") {
		s = s.WithNestedSeparator(f.nestedSep)
	}
	if set("settings-file") {
		s = s.WithSettingsFile(f.settingsFile)
	}
	if set("secrets-file") {
		s = s.WithSecretsFile(f.secretsFile)
	}
	if set("encoding") {
		s = s.WithEncoding(f.encoding)
	}
	return s
}

func (f flags) logger() (*zap.Logger, error) {
	if !f.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func buildCmd(fs afero.Fs, env environ.Snapshot, out io.Writer) *cobra.Command {
	var f flags

	newHydroconf := func(cmd *cobra.Command) (*hydroconf.Hydroconf, error) {
		logger, err := f.logger()
		if err != nil {
			return nil, err
		}
		s := f.apply(cmd, hydroconf.DefaultSettings(env))
		return hydroconf.New(
			s,
			hydroconf.WithFs(fs),
			hydroconf.WithEnviron(env),
			hydroconf.WithLogger(logger),
		), nil
	}

	cmd := &cobra.Command{
		Use:   "hydroconf",
		Short: "Print the resolved configuration",
		Long: `Resolve the configuration exactly like an application using hydroconf
would and print the merged document.

Settings are read from the *_FOR_HYDRO environment variables and can be
overridden with flags.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			format, ok := config.DefaultFormats().Lookup(f.output)
			if !ok {
				return UnknownOutputFormatError{Format: f.output}
			}

			h, err := newHydroconf(cmd)
			if err != nil {
				return err
			}
			doc, err := h.Load()
			if err != nil {
				return err
			}

			b, err := doc.Marshal(format.Parser)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.root, "root", "", "directory the search starts from (default: ROOT_PATH_FOR_HYDRO or the executable directory)")
	pf.StringVar(&f.env, "env", "", "environment section applied on top of default (default: ENV_FOR_HYDRO or development)")
	pf.StringVar(&f.prefix, "prefix", "", "prefix of overriding environment variables (default: ENVVAR_PREFIX_FOR_HYDRO or HYDRO)")
	pf.StringVar(&f.nestedSep, "nested-sep", "", "nesting separator of overriding environment variables (default: ENVVAR_NESTED_SEP_FOR_HYDRO or __)")
	pf.StringVar(&f.settingsFile, "settings-file", "", "settings file name, empty searches every supported extension")
	pf.StringVar(&f.secretsFile, "secrets-file", "", "secrets file name, empty searches every supported extension")
	pf.StringVar(&f.encoding, "encoding", "", "character encoding of every file (default: ENCODING_FOR_HYDRO or utf-8)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log discovery to stderr")

	cmd.Flags().StringVarP(
		&f.output,
		"output",
		"o",
		"toml",
		"output format: "+strings.Join(config.DefaultFormats().Extensions(), ", "),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "sources",
		Short: "Print the discovered configuration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHydroconf(cmd)
			if err != nil {
				return err
			}
			d, err := h.Sources()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "settings: %s\n", orNone(d.Settings))
			fmt.Fprintf(w, "local settings: %s\n", orNone(d.LocalSettings))
			fmt.Fprintf(w, "secrets: %s\n", orNone(d.Secrets))
			if len(d.Dotenv) == 0 {
				fmt.Fprintln(w, "dotenv: -")
			}
			for _, path := range d.Dotenv {
				fmt.Fprintf(w, "dotenv: %s\n", path)
			}
			return nil
		},
	})

	cmd.SetOut(out)
	return cmd
}

func orNone(path string) string {
	if path == "" {
		return "-"
	}
	return path
}

// UnknownOutputFormatError
type UnknownOutputFormatError struct {
	Format string
}

// Error implements the [builtin.error] interface.
func (e UnknownOutputFormatError) Error() string {
	return fmt.Sprintf("unknown output format: %s", e.Format)
}
