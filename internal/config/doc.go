// Package config loads, normalizes, and validates sublingo configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, loads a .env file, and honours the legacy GEMINI_* environment
// variables when no [[providers]] are declared. The Config type centralizes
// every knob the dispatcher, project tracker, and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, resolved API keys, and errors that wrap
// services.ErrConfiguration.
package config
