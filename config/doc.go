// Package config loads and persists the application's YAML configuration.
package config
