// Package config loads, defaults and validates the collector configuration.
//
// Configuration is a YAML file with ${VAR} environment expansion; everything
// is fixed at process start, there is no hot-reload.
package config
