// Package config loads and validates the application configuration.
//
// Configuration comes from three layers with a fixed precedence:
//
//  1. built-in defaults (Default)
//  2. an optional config.yaml in the working directory
//  3. environment variables prefixed with MARKETPULSE
//     (e.g. MARKETPULSE_PATHS_DATA_DIR, MARKETPULSE_LOGGING_LEVEL)
//
// The package also resolves the configured directories into absolute Paths
// used by the loader, exporter, and CLIs.
package config
