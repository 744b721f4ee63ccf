// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. The resolved settings are checked with
// struct tag validation before the server or solver sees them.
package config
