// Package config loads, normalizes, and validates autocollect configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PLEX_URL, PLEX_TOKEN, and DEBUG (optionally seeded from a .env file in the
// working directory). The Config type centralizes every knob the CLI needs,
// so Plex credentials, rule file locations, and logging settings are
// discovered in one pass and then passed down explicitly.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
