// Package config loads runtime configuration from TOML files and builds
// the logger the rest of the packages share.
package config
