// Package config loads the tesoro client configuration from a YAML file and
// environment overrides.
package config
