// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ytdl-org/ytdl/internal/config"
	"github.com/ytdl-org/ytdl/internal/selfupdate"

	"github.com/spf13/cobra"
)

// osExecutable is a test seam for os.Executable.
//
//nolint:gochecknoglobals // Test seam requires a package-level variable.
var osExecutable = os.Executable

// newVersionCommand creates the `ytdl version` command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Long: `Show the version, commit and build date of this ytdl binary, and how it
was installed. The install kind decides how 'ytdl upgrade' replaces it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printVersion(cmd.OutOrStdout(), appConfig)
			return nil
		},
	}
}

func printVersion(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("ytdl"), Version)
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("commit"), Commit)
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("built"), BuildDate)
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("install"), deploymentDescription(cfg))
}

// deploymentDescription names the deployment kind, noting when it was
// forced by configuration rather than detected.
func deploymentDescription(cfg *config.Config) string {
	if cfg.Update.Deployment != config.DeploymentDetect {
		kind, err := selfupdate.ParseDeploymentKind(string(cfg.Update.Deployment))
		if err == nil {
			return kind.String() + " " + SubtitleStyle.Render("(from configuration)")
		}
	}

	execPath, err := osExecutable()
	if err != nil {
		return selfupdate.DeploymentUnknown.String()
	}
	return selfupdate.DetectDeploymentKind(execPath).String()
}
