// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the ytdl CLI commands.
//
// The root command carries the global --verbose and --config flags; the
// upgrade, version and config subcommands drive the self-update flow in
// internal/selfupdate and the configuration in internal/config.
package cmd
