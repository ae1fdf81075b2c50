// Package config loads, normalizes, and validates podium configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PODIUM_BACKEND_URL. The Config type centralizes every knob the CLI needs:
// the analysis backend, the polling budget, capture device settings, playback
// timing, and optional archive and notification integrations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
