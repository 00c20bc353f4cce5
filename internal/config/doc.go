// Package config loads and validates logship configuration.
//
// Configuration lives in a single TOML file. Load searches the default
// location when no explicit path is given, applies defaults for missing
// values, and validates the result. A commented sample config is embedded
// for `logship config init`.
package config
