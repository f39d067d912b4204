// Package config loads generation settings from a YAML file with
// TDGEN_-prefixed environment overrides layered on top.
package config
