// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/ytdl-org/ytdl/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `ytdl config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect ytdl configuration",
		Long: `Inspect ytdl configuration.

Configuration is stored in:
  - Linux: ~/.config/ytdl/config.cue
  - macOS: ~/Library/Application Support/ytdl/config.cue
  - Windows: %APPDATA%\ytdl\config.cue

Every value can be overridden with a YTDL_ environment variable, for example
YTDL_UPDATE_BASE_URL or YTDL_UI_VERBOSE.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.OutOrStdout(), loadOptions(), appConfig)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfigPath(cmd.OutOrStdout(), loadOptions())
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, opts config.LoadOptions, cfg *config.Config) error {
	path, exists, err := config.FilePath(opts)
	if err != nil {
		return err
	}

	source := SubtitleStyle.Render("(using defaults)")
	if exists {
		source = path
	}
	fmt.Fprintf(w, "// Config file: %s\n", source)
	fmt.Fprint(w, config.GenerateCUE(cfg))
	return nil
}

func showConfigPath(w io.Writer, opts config.LoadOptions) error {
	path, exists, err := config.FilePath(opts)
	if err != nil {
		return err
	}

	if exists {
		fmt.Fprintln(w, path)
	} else {
		fmt.Fprintf(w, "%s %s\n", path, SubtitleStyle.Render("(not found, using defaults)"))
	}
	return nil
}
