// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// The config file is looked up in this order: an explicit --config path,
// ./modgraph.cue in the working directory, then config.cue in the user
// config directory ($XDG_CONFIG_HOME/modgraph on Linux,
// ~/Library/Application Support/modgraph on macOS, %APPDATA%\modgraph on
// Windows). Without a file the defaults apply. Every key can be overridden
// from the environment with the MODGRAPH_ prefix, e.g. MODGRAPH_LOG_LEVEL or
// MODGRAPH_OUTPUT_FORMAT.
//
// Files are validated against the embedded CUE schema (config_schema.cue)
// before they reach Viper, so type errors carry the offending field path.
package config
