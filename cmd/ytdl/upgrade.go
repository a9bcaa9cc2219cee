// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ytdl-org/ytdl/internal/config"
	"github.com/ytdl-org/ytdl/internal/issue"
	"github.com/ytdl-org/ytdl/internal/selfupdate"
	"github.com/ytdl-org/ytdl/pkg/types"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal; tests replace it.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// upgradeParams bundles the dependencies and flags for the upgrade command,
// so runUpgrade can be tested without a real Cobra command or update server.
type upgradeParams struct {
	stdout  io.Writer
	stderr  io.Writer
	updater *selfupdate.Updater
	check   bool   // --check mode: report availability without installing
	verbose bool   // full diagnostics on failure
	style   string // glamour style for guidance
}

// newUpgradeCommand creates the `ytdl upgrade` command.
func newUpgradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "upgrade",
		Aliases: []string{"update"},
		Short:   "Update ytdl to the latest version",
		Long: `Update ytdl to the latest version.

The upgrade command reads LATEST_VERSION from the update server, then fetches
versions.json and verifies its RSA signature against the key built into ytdl.
It downloads the release for this kind of install, checks its SHA-256 hash
against the signed file and replaces the running executable.

Single-file Windows builds cannot replace themselves while running; a small
helper script finishes the replacement a few seconds after ytdl exits.

If ytdl was installed by a package manager (Homebrew, go install), the command
names the package manager command to use instead.`,
		Example: `  # Install the latest version
  ytdl upgrade

  # Check for updates without installing
  ytdl upgrade --check

  # Show every step and full error details
  ytdl upgrade --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			checkFlag, _ := cmd.Flags().GetBool("check")
			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

			updater, err := newUpdater(appConfig, stdout, stderr, verbose)
			if err != nil {
				fmt.Fprintln(stderr, formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitUserError, Err: err}
			}

			p := upgradeParams{
				stdout:  stdout,
				stderr:  stderr,
				updater: updater,
				check:   checkFlag,
				verbose: verbose,
				style:   glamourStyle(appConfig.UI.ColorScheme),
			}

			if err := runUpgrade(cmd.Context(), p); err != nil {
				fmt.Fprintln(p.stderr, formatUpgradeError(err, p.verbose, p.style))
				return &ExitError{Code: classifyUpgradeExitCode(err), Err: err}
			}

			return nil
		},
	}

	cmd.Flags().Bool("check", false, "Check for a newer version without installing it")

	return cmd
}

// runUpgrade is the core upgrade logic, separated from Cobra for testability.
// Progress messages reach p.stdout through the updater's reporter. A
// package-managed install is not a failure; verbose mode adds the guidance.
func runUpgrade(ctx context.Context, p upgradeParams) error {
	run := p.updater.Run
	if p.check {
		run = p.updater.Check
	}

	res, err := run(ctx)
	if err != nil {
		return err
	}
	if res.Outcome == selfupdate.OutcomeExternallyManaged && p.verbose {
		if guidance, gerr := issue.Get(issue.ManagedInstallId).Render(p.style); gerr == nil {
			fmt.Fprintln(p.stdout, strings.TrimRight(guidance, "\n"))
		}
	}
	return nil
}

// selfupdateConfig folds the loaded configuration into the immutable
// configuration of one update attempt. The signing key is not configurable.
func selfupdateConfig(cfg *config.Config) (selfupdate.Config, error) {
	kind, err := selfupdate.ParseDeploymentKind(string(cfg.Update.Deployment))
	if err != nil {
		return selfupdate.Config{}, issue.NewErrorContext().
			WithOperation("configure update").
			WithResource("update.deployment").
			WithSuggestion("Use one of: frozen, archive, managed, or leave it empty").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	sc := selfupdate.DefaultConfig()
	sc.BaseURL = cfg.Update.BaseURL
	sc.Deployment = kind
	sc.HelperDelay = cfg.Update.HelperDelay
	return sc, nil
}

// newUpdater builds the updater for the running binary: HTTP client, logger,
// progress reporter and release-notes renderer.
func newUpdater(cfg *config.Config, stdout, stderr io.Writer, verboseMode bool) (*selfupdate.Updater, error) {
	sc, err := selfupdateConfig(cfg)
	if err != nil {
		return nil, err
	}

	userAgent := cfg.Update.UserAgent
	if userAgent == "" {
		userAgent = "ytdl/" + Version
	}
	client := selfupdate.NewClient(
		selfupdate.WithHTTPClient(&http.Client{Timeout: cfg.Update.Timeout}),
		selfupdate.WithUserAgent(userAgent),
	)

	level := log.WarnLevel
	if verboseMode {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "upgrade", Level: level})

	return selfupdate.NewUpdater(Version, sc,
		selfupdate.WithOpener(client),
		selfupdate.WithLogger(logger),
		selfupdate.WithReporter(func(msg string) { fmt.Fprintln(stdout, msg) }),
		selfupdate.WithNotesFormatter(notesFormatter(stdout, glamourStyle(cfg.UI.ColorScheme))),
	), nil
}

// glamourStyle maps the configured color scheme to a glamour style name.
func glamourStyle(cs config.ColorScheme) string {
	switch cs {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return string(cs)
	default:
		return "auto"
	}
}

// notesFormatter renders release notes as Markdown on terminals and as the
// plain "PLEASE NOTE:" block everywhere else.
func notesFormatter(w io.Writer, style string) selfupdate.NotesFormatter {
	if !isTerminal(w) {
		return selfupdate.FormatNotes
	}
	return func(notes []string) string {
		if len(notes) == 0 {
			return ""
		}
		out, err := renderNotesMarkdown(notes, style)
		if err != nil {
			return selfupdate.FormatNotes(notes)
		}
		return out
	}
}

func renderNotesMarkdown(notes []string, style string) (string, error) {
	var md strings.Builder
	md.WriteString("**PLEASE NOTE:**\n\n")
	for _, note := range notes {
		md.WriteString("- " + note + "\n")
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(80))
	if err != nil {
		return "", err
	}
	out, err := renderer.Render(md.String())
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// classifyUpgradeExitCode maps an upgrade error to the process exit code.
// Permission errors are user-correctable (1); everything else is 2.
func classifyUpgradeExitCode(err error) types.ExitCode {
	switch {
	case errors.Is(err, selfupdate.ErrPermission), errors.Is(err, os.ErrPermission):
		return types.ExitUserError
	default:
		return types.ExitFailure
	}
}

// formatUpgradeError produces the "ERROR: <message>" line for a failed update.
// Verbose mode adds the error chain, the stack trace and the matching guidance.
func formatUpgradeError(err error, verboseMode bool, style string) string {
	var ue *selfupdate.UpdateError
	if !errors.As(err, &ue) {
		return ErrorStyle.Render("ERROR:") + " " + formatErrorForDisplay(err, verboseMode)
	}

	var b strings.Builder
	b.WriteString(ErrorStyle.Render("ERROR:") + " " + ue.Message())
	if !verboseMode {
		return b.String()
	}

	ae := describeUpdateError(ue)
	b.WriteString("\n\n" + ae.Format(true))
	b.WriteString("\n\n" + VerboseStyle.Render("Stack trace:") + fmt.Sprintf("%+v", err))
	if guidance, gerr := ae.Guidance(style); gerr == nil && guidance != "" {
		b.WriteString("\n" + strings.TrimRight(guidance, "\n"))
	}
	return b.String()
}

// describeUpdateError attaches the resource, suggestions and catalog
// guidance that fit the failing stage.
func describeUpdateError(ue *selfupdate.UpdateError) *issue.ActionableError {
	ec := issue.NewErrorContext().WithOperation("update ytdl").Wrap(ue.Err)

	var (
		perr *selfupdate.PermissionError
		cerr *selfupdate.ChecksumError
	)
	switch ue.Stage {
	case selfupdate.StageLocate:
		ec.WithIssue(issue.InstallFailedId)
	case selfupdate.StageCurrentVersion:
		ec.WithIssue(issue.NotAReleaseBuildId)
	case selfupdate.StageCheck:
		ec.WithIssue(issue.VersionCheckFailedId).
			WithSuggestion("Check your network connection and try again")
	case selfupdate.StageCatalog:
		if errors.Is(ue.Err, selfupdate.ErrInvalidSignature) || errors.Is(ue.Err, selfupdate.ErrMalformedData) {
			ec.WithIssue(issue.CatalogSignatureInvalidId)
		} else {
			ec.WithIssue(issue.CatalogUnavailableId)
		}
	case selfupdate.StageDownload:
		if errors.As(ue.Err, &cerr) {
			ec.WithIssue(issue.IntegrityMismatchId).
				WithResource(cerr.Filename).
				WithSuggestion(fmt.Sprintf("Expected SHA-256 %s, got %s", cerr.Expected, cerr.Got))
		} else {
			ec.WithIssue(issue.DownloadFailedId)
		}
	case selfupdate.StageInstall:
		if errors.As(ue.Err, &perr) {
			ec.WithIssue(issue.PermissionDeniedId).
				WithResource(perr.Path).
				WithSuggestion("Run 'sudo ytdl upgrade' or reinstall ytdl into a directory you own")
		} else {
			ec.WithIssue(issue.InstallFailedId)
		}
	}
	return ec.Build()
}
