// SPDX-License-Identifier: MPL-2.0

// Package config handles ytdl configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/ytdl/config.cue on Linux,
// ~/Library/Application Support/ytdl/config.cue on macOS and %APPDATA%\ytdl\config.cue
// on Windows, validated against the embedded schema (config_schema.cue) and merged over
// the built-in defaults. Environment variables prefixed with YTDL_ override both, e.g.
// YTDL_UPDATE_BASE_URL overrides update.base_url.
package config
