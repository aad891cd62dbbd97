// Package config loads, normalizes, and validates quark's TOML configuration.
//
// Configuration lives at ~/.config/quark/config.toml by default. Load applies
// repository defaults first, then the file, then normalization (path
// expansion, environment fallbacks) and validation, so callers always receive
// a usable Config or an error explaining what to fix.
package config
