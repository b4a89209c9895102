// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package hydroconf resolves an application's configuration from layered
// settings files, secrets files, dotenv files and environment variables.
//
// # Quickstart
//
// Given the following layout next to your executable:
//
//	├── config
//	│   ├── .secrets.toml
//	│   └── settings.toml
//	└── your-executable
//
// where settings.toml is:
//
//	[default]
//	pg.port = 5432
//	pg.host = 'localhost'
//
//	[production]
//	pg.host = 'db-0'
//
// and .secrets.toml is:
//
//	[default]
//	pg.password = 'a password'
//
//	[production]
//	pg.password = 'a strong password'
//
// the configuration is hydrated into a struct:
//
//	type Config struct {
//	    Pg struct {
//	        Host     string `config:"host"`
//	        Port     uint16 `config:"port"`
//	        Password string `config:"password"`
//	    } `config:"pg"`
//	}
//
//	cfg, err := hydroconf.Hydrate[Config](hydroconf.Default())
//
// The [default] table is always applied first and the table named by
// ENV_FOR_HYDRO, "development" unless set, is applied on top of it.
//
// # Environment variables
//
// Variables of the form *_FOR_HYDRO control the resolution itself, see
// [DefaultSettings]. Variables of the form HYDRO_* override values, with
// "__" marking each nesting boundary. HYDRO_PG__PASSWORD overrides
// pg.password. The prefix and separator are configurable through
// ENVVAR_PREFIX_FOR_HYDRO and ENVVAR_NESTED_SEP_FOR_HYDRO.
//
// # File discovery
//
// The search starts at [Settings.RootPath], or the directory holding the
// executable, and walks up to the filesystem root. At every level the
// directory itself is searched before its config subdirectory. The search
// for settings and secrets stops at the first level holding either of
// them. A settings.local.<ext> file, usually not tracked by version
// control, overrides the settings file. .env and .env.<env> files are
// each taken from the closest level holding them.
package hydroconf
