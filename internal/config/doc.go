// Package config loads and validates application settings from config.yaml,
// environment variables and command-line flags.
package config
