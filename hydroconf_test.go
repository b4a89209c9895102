// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package hydroconf

import (
	"errors"
	"os"
	"testing"

	"github.com/rubik/hydroconf/pkg/config"
	"github.com/rubik/hydroconf/pkg/environ"
	"github.com/rubik/hydroconf/pkg/sources"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	settingsToml = `[default]
pg.port = 5432
pg.host = 'localhost'
redis_url = 'redis://'

[production]
pg.host = 'db-0'
`

	secretsToml = `[default]
pg.password = 'a password'

[production]
pg.password = 'a strong password'
`
)

type postgresConfig struct {
	Host     string `config:"host"`
	Port     uint16 `config:"port"`
	Password string `config:"password"`
}

type appConfig struct {
	Pg       postgresConfig `config:"pg"`
	RedisURL string         `config:"redis_url"`
}

type dbConfig struct {
	RedisURL string `config:"REDIS_URL"`
}

func fixtures(t *testing.T) afero.Fs {
	t.Helper()

	files := map[string]string{
		"/data/config/settings.toml": settingsToml,
		"/data/config/.secrets.toml": secretsToml,
		"/data/.env":                 "HYDRO_REDIS_URL=redis://\n",

		"/data2/config/settings.toml": settingsToml,
		"/data2/config/.secrets.toml": secretsToml,
		"/data2/.env":                 "HYDRO_REDIS_URL=redis://\nHYDRO_PG__PORT=12329\n",
		"/data2/.env.development":     "HYDRO_PG__PORT=15330\n",

		"/data3/settings.toml":    settingsToml,
		"/data3/.secrets.toml":    secretsToml,
		"/data3/.env":             "HYDRO_PG__PORT=12329\n",
		"/data3/.env.production":  "HYDRO_PG__PORT=9999\n",

		"/data4/settings.toml":       settingsToml,
		"/data4/settings.local.toml": "[production]\npg.port = 5555\n",
		"/data4/.secrets.toml":       secretsToml,

		"/custom_filename/config/base_settings.toml": "[default]\nname = 'hatthoc'\n",
		"/custom_filename/base_settings.local.toml":  "[default]\nname = 'local'\n",
	}

	fs := afero.NewMemMapFs()
	for path, content := range files {
		err := afero.WriteFile(fs, path, []byte(content), 0o644)
		if err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func noExecutable() (string, error) {
	return "", errors.New("no executable")
}

func TestHydrate(t *testing.T) {
	fs := fixtures(t)

	testCases := []struct {
		Name   string
		Env    environ.Snapshot
		Config appConfig
	}{
		{
			Name: "default environment",
			Env: environ.Snapshot{
				RootPathVar: "/data",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "localhost", Port: 5432, Password: "a password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "selected environment",
			Env: environ.Snapshot{
				RootPathVar: "/data",
				EnvVar:      "production",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "db-0", Port: 5432, Password: "a strong password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "environment variable override",
			Env: environ.Snapshot{
				RootPathVar:      "/data",
				"HYDRO_PG__PORT": "1234",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "localhost", Port: 1234, Password: "a password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "selected environment and environment variable overrides",
			Env: environ.Snapshot{
				RootPathVar:       "/data",
				EnvVar:            "production",
				"HYDRO_PG__PORT":  "1234",
				"HYDRO_REDIS_URL": "redis://?db=1",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "db-0", Port: 1234, Password: "a strong password"},
				RedisURL: "redis://?db=1",
			},
		},
		{
			Name: "environment variables only",
			Env: environ.Snapshot{
				EnvVar:               "production",
				"HYDRO_PG__HOST":     "staging-db-23",
				"HYDRO_PG__PORT":     "29378",
				"HYDRO_PG__PASSWORD": "a super strong password",
				"HYDRO_REDIS_URL":    "redis://",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "staging-db-23", Port: 29378, Password: "a super strong password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "environment specific dotenv file",
			Env: environ.Snapshot{
				RootPathVar: "/data2",
				EnvVar:      "development",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "localhost", Port: 15330, Password: "a password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "base dotenv file only",
			Env: environ.Snapshot{
				RootPathVar: "/data2",
				EnvVar:      "production",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "db-0", Port: 12329, Password: "a strong password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "files in the root directory",
			Env: environ.Snapshot{
				RootPathVar: "/data3",
				EnvVar:      "development",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "localhost", Port: 12329, Password: "a password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "files in the root directory with an environment specific dotenv file",
			Env: environ.Snapshot{
				RootPathVar: "/data3",
				EnvVar:      "production",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "db-0", Port: 9999, Password: "a strong password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "dotenv entries with another prefix",
			Env: environ.Snapshot{
				RootPathVar:     "/data3",
				EnvVar:          "development",
				EnvvarPrefixVar: "APP_",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "localhost", Port: 5432, Password: "a password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "dotenv entries with another prefix in another environment",
			Env: environ.Snapshot{
				RootPathVar:     "/data3",
				EnvVar:          "production",
				EnvvarPrefixVar: "APP_",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "db-0", Port: 5432, Password: "a strong password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "local settings file without a matching section",
			Env: environ.Snapshot{
				RootPathVar: "/data4",
				EnvVar:      "development",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "localhost", Port: 5432, Password: "a password"},
				RedisURL: "redis://",
			},
		},
		{
			Name: "local settings file",
			Env: environ.Snapshot{
				RootPathVar: "/data4",
				EnvVar:      "production",
			},
			Config: appConfig{
				Pg:       postgresConfig{Host: "db-0", Port: 5555, Password: "a strong password"},
				RedisURL: "redis://",
			},
		},
	}

	for _, testCase := range testCases {
		t.Run("will hydrate with "+testCase.Name, func(t *testing.T) {
			h := Default(
				WithFs(fs),
				WithEnviron(testCase.Env),
				WithExecutable(noExecutable),
			)

			cfg, err := Hydrate[appConfig](h)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, testCase.Config, cfg) {
				return
			}
		})
	}
}

func TestHydroconf_Hydrate(t *testing.T) {
	fs := fixtures(t)

	t.Run("will hydrate with custom settings", func(t *testing.T) {
		env := environ.Snapshot{
			"HYDRO_PG__PORT":  "2378",
			"MYAPP_PG___PORT": "29378",
		}
		s := DefaultSettings(env).
			WithRootPath("/data").
			WithEnv("production").
			WithEnvvarPrefix("MYAPP").
			WithNestedSeparator("___")

		var cfg appConfig
		err := New(s, WithFs(fs), WithEnviron(env)).Hydrate(&cfg)
		if !assert.Nil(t, err) {
			return
		}

		expected := appConfig{
			Pg:       postgresConfig{Host: "db-0", Port: 29378, Password: "a strong password"},
			RedisURL: "redis://",
		}
		if !assert.Equal(t, expected, cfg) {
			return
		}
	})

	t.Run("will match keys case-insensitively", func(t *testing.T) {
		env := environ.Snapshot{"HATTHOC_REDIS_URL": "redis://?db=1"}
		s := Settings{
			RootPath:        "/custom_filename",
			SettingsFile:    "base_settings.toml",
			SecretsFile:     ".secrets.toml",
			Env:             "development",
			EnvvarPrefix:    "HATTHOC",
			NestedSeparator: "__",
			Encoding:        "utf-8",
		}

		cfg, err := Hydrate[dbConfig](New(s, WithFs(fs), WithEnviron(env)))
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, dbConfig{RedisURL: "redis://?db=1"}, cfg) {
			return
		}
	})

	t.Run("will return a ConfigUnmarshalError", func(t *testing.T) {
		t.Run("if a value cannot be coerced", func(t *testing.T) {
			env := environ.Snapshot{
				RootPathVar:      "/data",
				"HYDRO_PG__PORT": "not a port",
			}

			_, err := Hydrate[appConfig](Default(WithFs(fs), WithEnviron(env)))

			var uerr ConfigUnmarshalError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}

			var derr config.DecodeError
			if !assert.ErrorAs(t, err, &derr) {
				return
			}
			if !assert.Equal(t, "pg.port", derr.Key) {
				return
			}
		})
	})
}

func TestHydroconf_Load(t *testing.T) {
	t.Run("will let environment variables win over every file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		files := map[string]string{
			"/app/settings.toml":       "[default]\npg.port = 1\n",
			"/app/settings.local.toml": "[default]\npg.port = 2\n",
			"/app/.secrets.toml":       "[default]\npg.port = 3\n",
			"/app/.env":                "HYDRO_PG__PORT=4\n",
			"/app/.env.development":    "HYDRO_PG__PORT=5\n",
		}
		for path, content := range files {
			err := afero.WriteFile(fs, path, []byte(content), 0o644)
			if !assert.Nil(t, err) {
				return
			}
		}

		testCases := []struct {
			Name   string
			Remove []string
			Env    environ.Snapshot
			Port   any
		}{
			{Name: "process environment", Env: environ.Snapshot{"HYDRO_PG__PORT": "6"}, Port: "6"},
			{Name: "environment specific dotenv file", Port: "5"},
			{Name: "base dotenv file", Remove: []string{"/app/.env.development"}, Port: "4"},
			{Name: "secrets file", Remove: []string{"/app/.env"}, Port: int64(3)},
			{Name: "local settings file", Remove: []string{"/app/.secrets.toml"}, Port: int64(2)},
			{Name: "settings file", Remove: []string{"/app/settings.local.toml"}, Port: int64(1)},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				for _, path := range testCase.Remove {
					err := fs.Remove(path)
					if !assert.Nil(t, err) {
						return
					}
				}

				env := testCase.Env
				if env == nil {
					env = environ.Snapshot{}
				}
				s := DefaultSettings(env).WithRootPath("/app")

				doc, err := New(s, WithFs(fs), WithEnviron(env)).Load()
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, testCase.Port, doc.Get("pg.port")) {
					return
				}
			})
		}
	})

	t.Run("will produce identical documents", func(t *testing.T) {
		t.Run("if run twice with the same inputs", func(t *testing.T) {
			fs := fixtures(t)
			env := environ.Snapshot{
				RootPathVar:      "/data2",
				EnvVar:           "production",
				"HYDRO_PG__HOST": "db-1",
			}
			h := Default(WithFs(fs), WithEnviron(env))

			first, err := h.Load()
			if !assert.Nil(t, err) {
				return
			}
			second, err := h.Load()
			if !assert.Nil(t, err) {
				return
			}

			a, err := first.Marshal(config.Json{})
			if !assert.Nil(t, err) {
				return
			}
			b, err := second.Marshal(config.Json{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, a, b) {
				return
			}
		})
	})

	t.Run("will resolve the production scenario", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		err := afero.WriteFile(fs, "/srv/settings.toml", []byte("[default]\npg.port = 5432\n\n[production]\npg.host = 'db-0'\n"), 0o644)
		if !assert.Nil(t, err) {
			return
		}

		env := environ.Snapshot{"HYDRO_PG__PORT": "1234"}
		s := DefaultSettings(env).WithRootPath("/srv").WithEnv("production")

		var cfg postgresConfig
		doc, err := New(s, WithFs(fs), WithEnviron(env)).Load()
		if !assert.Nil(t, err) {
			return
		}
		err = doc.UnmarshalAt("pg", &cfg)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, postgresConfig{Host: "db-0", Port: 1234}, cfg) {
			return
		}
	})

	t.Run("will only contain environment variables", func(t *testing.T) {
		t.Run("if no files exist", func(t *testing.T) {
			env := environ.Snapshot{
				"HYDRO_PG__HOST": "x",
				"OTHER":          "y",
			}

			doc, err := Default(WithFs(afero.NewMemMapFs()), WithEnviron(env)).Load()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"pg.host"}, doc.Keys()) {
				return
			}
			if !assert.Equal(t, "x", doc.String("pg.host")) {
				return
			}
		})
	})

	t.Run("will search from the directory of the executable", func(t *testing.T) {
		t.Run("if no root path is set", func(t *testing.T) {
			fs := afero.NewMemMapFs()
			err := afero.WriteFile(fs, "/opt/app/config/settings.toml", []byte("[default]\nname = 'api'\n"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			h := Default(
				WithFs(fs),
				WithEnviron(environ.Snapshot{}),
				WithExecutable(func() (string, error) {
					return "/opt/app/bin/api", nil
				}),
			)

			doc, err := h.Load()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "api", doc.String("name")) {
				return
			}
		})
	})

	t.Run("will warn and skip the settings file", func(t *testing.T) {
		t.Run("if its extension is not supported", func(t *testing.T) {
			fs := fixtures(t)
			core, logs := observer.New(zapcore.WarnLevel)
			env := environ.Snapshot{"HYDRO_PG__PORT": "1234"}
			s := DefaultSettings(env).WithRootPath("/data").WithSettingsFile("settings.xml")

			h := New(s, WithFs(fs), WithEnviron(env), WithLogger(zap.New(core)))

			d, err := h.Sources()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Empty(t, d.Settings) {
				return
			}

			doc, err := h.Load()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "1234", doc.Get("pg.port")) {
				return
			}
			if !assert.Equal(t, "a password", doc.Get("pg.password")) {
				return
			}
			if !assert.Equal(t, 2, logs.FilterMessage("unsupported file extension").Len()) {
				return
			}
		})
	})

	t.Run("will decode files with the configured encoding", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		err := afero.WriteFile(fs, "/app/settings.toml", []byte("[default]\nname = 'caf\xe9'\n"), 0o644)
		if !assert.Nil(t, err) {
			return
		}

		env := environ.Snapshot{EncodingVar: "latin1", RootPathVar: "/app"}
		doc, err := Default(WithFs(fs), WithEnviron(env)).Load()
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "café", doc.String("name")) {
			return
		}
	})

	t.Run("will return a ConfigReadError", func(t *testing.T) {
		t.Run("if a discovered file is malformed", func(t *testing.T) {
			fs := afero.NewMemMapFs()
			err := afero.WriteFile(fs, "/app/config/settings.toml", []byte("[default\n"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			env := environ.Snapshot{RootPathVar: "/app"}
			_, err = Default(WithFs(fs), WithEnviron(env)).Load()

			var rerr ConfigReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}

			var ferr config.FileError
			if !assert.ErrorAs(t, err, &ferr) {
				return
			}
			if !assert.Equal(t, "/app/config/settings.toml", ferr.Path) {
				return
			}
		})

		t.Run("if a discovered dotenv file is malformed", func(t *testing.T) {
			fs := afero.NewMemMapFs()
			err := afero.WriteFile(fs, "/app/.env", []byte("HYDRO-PG=1\n"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			env := environ.Snapshot{RootPathVar: "/app"}
			_, err = Default(WithFs(fs), WithEnviron(env)).Load()

			var ferr config.FileError
			if !assert.ErrorAs(t, err, &ferr) {
				return
			}
			if !assert.Equal(t, "/app/.env", ferr.Path) {
				return
			}
		})
	})

	t.Run("will return an InvalidSettingsError", func(t *testing.T) {
		t.Run("if the encoding is unknown", func(t *testing.T) {
			env := environ.Snapshot{EncodingVar: "klingon"}

			_, err := Default(WithFs(afero.NewMemMapFs()), WithEnviron(env)).Load()

			var serr InvalidSettingsError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
		})
	})
}

func TestHydroconf_Sources(t *testing.T) {
	fs := fixtures(t)
	env := environ.Snapshot{RootPathVar: "/data2", EnvVar: "development"}

	d, err := Default(WithFs(fs), WithEnviron(env)).Sources()
	if !assert.Nil(t, err) {
		return
	}

	expected := sources.Discovered{
		Settings: "/data2/config/settings.toml",
		Secrets:  "/data2/config/.secrets.toml",
		Dotenv:   []string{"/data2/.env", "/data2/.env.development"},
	}
	if !assert.Equal(t, expected, d) {
		return
	}
}

func TestDefault(t *testing.T) {
	t.Run("will capture the process environment", func(t *testing.T) {
		t.Run("if no environment is given", func(t *testing.T) {
			t.Setenv(EnvVar, "staging")

			h := Default(WithFs(afero.NewMemMapFs()), WithExecutable(os.Executable))
			if !assert.Equal(t, "staging", h.Settings().Env) {
				return
			}
		})
	})
}
