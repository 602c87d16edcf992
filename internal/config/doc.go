// Package config loads and validates the audioservice TOML configuration.
package config
