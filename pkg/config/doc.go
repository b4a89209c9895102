// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides layered configuration sources and the document they merge into.
//
// A [Source] writes key value pairs into a [Store]. [Read] applies sources
// in order onto a fresh [Document], so later sources override earlier ones
// key by key. Tables merge recursively while scalars and arrays are replaced
// wholesale by the later layer.
//
// # Sources
//
// [File] parses a settings file with a registered [Format] and can restrict
// itself to named environment sections:
//
//	settings := config.FromFile(fs, "/srv/app/config/settings.toml", toml).
//	    WithSections("default", "production")
//
// [Dotenv] overlays prefixed entries of .env files and [Env] overlays
// prefixed process environment variables:
//
//	doc, err := config.Read(
//	    settings,
//	    config.FromDotenv(fs, "HYDRO", "__", "/srv/app/.env"),
//	    config.FromEnv("HYDRO", "__"),
//	)
//
// # Decoding
//
// [Document.Unmarshal] decodes the merged document into a struct using the
// "config" struct tag. Strings are coerced into numbers, booleans,
// [time.Duration] and [encoding.TextUnmarshaler] implementations.
package config
