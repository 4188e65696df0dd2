// Package config loads, normalizes, and validates curator configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CURATOR_TRANSCRIPT_API_KEY. The Config type centralizes every knob the CLI
// needs: archive and state directories, the creator sources to scan, the
// subtitle ladder languages, and credentials for the external services.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical platform names, and clear validation errors.
package config
