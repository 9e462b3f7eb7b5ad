// Package config loads, validates, and normalizes clipsmith configuration.
//
// Configuration comes from a TOML file resolved in order: an explicit --config
// path, ~/.config/clipsmith/config.toml, then ./clipsmith.toml. Missing files
// fall back to repository defaults. All path fields are tilde-expanded and made
// absolute during normalization so downstream code never handles relative
// paths.
package config
