// Package config loads, normalizes, and validates barcoded configuration data.
//
// It supplies repository defaults (the well-known socket path, the fixed
// canvas geometry, the JPEG quality), expands user paths including tilde
// shortcuts, reads TOML files, and honours environment overrides such as
// BARCODED_SOCKET and BARCODED_FONT. The Config type centralizes every knob
// the daemon and CLI need so socket, render, and journal settings are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
