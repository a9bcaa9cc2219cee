// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ytdl-org/ytdl/internal/config"
	"github.com/ytdl-org/ytdl/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the release version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging and full error diagnostics
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// configProvider loads the configuration; tests replace it.
	configProvider = config.NewProvider()
	// appConfig is the effective configuration, set by initRootConfig.
	appConfig = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "ytdl",
		Short: "Download videos from YouTube and other sites",
		Long: TitleStyle.Render("ytdl") + SubtitleStyle.Render(" - download videos from YouTube and other sites") + `

ytdl keeps itself current: 'ytdl upgrade' fetches the signed versions file
from the update server, verifies it, downloads the new release, checks its
SHA-256 hash and replaces the running executable.

` + SubtitleStyle.Render("Examples:") + `
  ytdl upgrade --check      Report whether a newer version exists
  ytdl upgrade              Install the latest version
  ytdl version              Show build information
  ytdl config show          Show the effective configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/ytdl/config.cue)")

	rootCmd.AddCommand(newUpgradeCommand())
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newConfigCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// loadOptions returns the config sources selected by the global flags.
func loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: cfgFile}
}

// initRootConfig loads the configuration file and YTDL_ environment overrides.
// A broken configuration is reported and the defaults are used instead.
func initRootConfig() {
	cfg, _, err := configProvider.Load(context.Background(), loadOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		cfg = config.DefaultConfig()
	}

	// The flag wins over the config file.
	if !verbose {
		verbose = cfg.UI.Verbose
	}
	appConfig = cfg
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
