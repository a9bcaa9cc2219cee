// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	pkgerrors "github.com/pkg/errors"
)

const (
	// OutcomeAborted is the zero Outcome, returned alongside an error.
	OutcomeAborted Outcome = iota
	// OutcomeExternallyManaged means a package manager owns the install and
	// nothing was fetched.
	OutcomeExternallyManaged
	// OutcomeUpToDate means the running version is at or beyond the latest.
	OutcomeUpToDate
	// OutcomeAvailable means a newer version exists; only Check returns it.
	OutcomeAvailable
	// OutcomeScheduled means the frozen helper was launched and replaces the
	// executable after this process exits.
	OutcomeScheduled
	// OutcomeInstalled means the executable was replaced in place.
	OutcomeInstalled
)

const (
	// StageLocate resolves the running executable.
	StageLocate Stage = iota
	// StageCurrentVersion parses the running version.
	StageCurrentVersion
	// StageCheck fetches and compares LATEST_VERSION.
	StageCheck
	// StageCatalog fetches, verifies and parses versions.json.
	StageCatalog
	// StageDownload fetches and hashes the artifact.
	StageDownload
	// StageInstall replaces the executable.
	StageInstall
)

var (
	//nolint:gochecknoglobals // Test seam for os.Executable().
	osExecutable = os.Executable

	//nolint:gochecknoglobals // Test seam for filepath.EvalSymlinks().
	evalSymlinks = filepath.EvalSymlinks
)

type (
	// Outcome is the terminal state of an update attempt.
	Outcome int

	// Stage names the step of the update flow an error came from.
	Stage int

	// Result describes a finished Run or Check.
	Result struct {
		Outcome  Outcome
		Kind     DeploymentKind
		Current  Version
		Latest   Version
		Notes    []string // Notes of every version newer than Current, oldest first
		ExecPath string   // Symlink-resolved path of the running executable
	}

	// UpdateError attaches the failing stage to an update error so callers
	// can print the matching user message.
	UpdateError struct {
		Stage Stage
		Err   error
	}

	// ReportFunc receives the user-facing progress messages of an update.
	ReportFunc func(msg string)

	// NotesFormatter renders collected release notes for the reporter.
	NotesFormatter func(notes []string) string

	// Updater runs the update flow for one running version. It is the
	// primary facade of the package.
	Updater struct {
		current   string
		cfg       Config
		opener    Opener
		logger    *log.Logger
		report    ReportFunc
		notes     NotesFormatter
		execPath  string
		installer Installer
	}

	// UpdaterOption configures an Updater during construction.
	UpdaterOption func(*Updater)
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAborted:
		return "aborted"
	case OutcomeExternallyManaged:
		return "externally-managed"
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeAvailable:
		return "available"
	case OutcomeScheduled:
		return "scheduled"
	case OutcomeInstalled:
		return "installed"
	}
	return "unknown"
}

// String returns a short name for the stage.
func (s Stage) String() string {
	switch s {
	case StageLocate:
		return "locate"
	case StageCurrentVersion:
		return "current-version"
	case StageCheck:
		return "check"
	case StageCatalog:
		return "catalog"
	case StageDownload:
		return "download"
	case StageInstall:
		return "install"
	}
	return "unknown"
}

func (e *UpdateError) Error() string { return e.Message() + ": " + e.Err.Error() }

func (e *UpdateError) Unwrap() error { return e.Err }

// Message returns the one-line user message for the failure, without the
// underlying cause.
func (e *UpdateError) Message() string {
	switch e.Stage {
	case StageLocate:
		return "unable to locate the running executable"
	case StageCurrentVersion:
		return "the running version is not a release version"
	case StageCheck:
		return "can't find the current version. Please try again later."
	case StageCatalog:
		switch {
		case errors.Is(e.Err, ErrInvalidSignature):
			return "the versions file signature is invalid. Aborting."
		case errors.Is(e.Err, errUnsigned):
			return "the versions file is not signed or corrupted. Aborting."
		}
		return "can't obtain versions info. Please try again later."
	case StageDownload:
		if errors.Is(e.Err, ErrIntegrity) {
			return "the downloaded file hash does not match. Aborting."
		}
		return "unable to download latest version"
	case StageInstall:
		var perr *PermissionError
		switch {
		case errors.As(e.Err, &perr):
			return "no write permissions on " + perr.Path
		case errors.Is(e.Err, errWriteNew):
			return errWriteNew.Error()
		}
		return errOverwrite.Error()
	}
	return "update failed"
}

// WithOpener sets the HTTP capability used for every fetch.
func WithOpener(o Opener) UpdaterOption {
	return func(u *Updater) {
		u.opener = o
	}
}

// WithLogger sets the diagnostic logger. The default discards.
func WithLogger(l *log.Logger) UpdaterOption {
	return func(u *Updater) {
		u.logger = l
	}
}

// WithReporter sets the sink for user-facing messages. The default discards.
func WithReporter(r ReportFunc) UpdaterOption {
	return func(u *Updater) {
		u.report = r
	}
}

// WithNotesFormatter replaces FormatNotes as the release notes renderer.
func WithNotesFormatter(f NotesFormatter) UpdaterOption {
	return func(u *Updater) {
		u.notes = f
	}
}

// WithExecutablePath updates path instead of the running executable.
func WithExecutablePath(path string) UpdaterOption {
	return func(u *Updater) {
		u.execPath = path
	}
}

// WithInstaller overrides the installer chosen from the deployment kind.
func WithInstaller(i Installer) UpdaterOption {
	return func(u *Updater) {
		u.installer = i
	}
}

// NewUpdater creates an Updater for the running version current.
func NewUpdater(current string, cfg Config, opts ...UpdaterOption) *Updater {
	u := &Updater{
		current: current,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.opener == nil {
		u.opener = NewClient()
	}
	if u.logger == nil {
		u.logger = log.New(io.Discard)
	}
	if u.report == nil {
		u.report = func(string) {}
	}
	if u.notes == nil {
		u.notes = FormatNotes
	}
	return u
}

// Check reports whether a newer version exists without fetching the catalog
// or anything else.
func (u *Updater) Check(ctx context.Context) (*Result, error) {
	res, current, err := u.prepare()
	if err != nil || res.Outcome == OutcomeExternallyManaged {
		return res, err
	}

	check, err := u.checkVersion(ctx, current)
	if err != nil {
		return nil, err
	}
	res.Latest = check.Latest
	if check.Status == StatusUpToDate {
		res.Outcome = OutcomeUpToDate
		u.report(fmt.Sprintf("ytdl is up-to-date (%s)", u.current))
		return res, nil
	}

	res.Outcome = OutcomeAvailable
	u.report(fmt.Sprintf("Version %s is available (running %s). Run 'ytdl upgrade' to install it.", check.LatestRaw, u.current))
	return res, nil
}

// Run performs a complete update attempt. Each step runs only after the
// previous one succeeded:
//
//	detect deployment -> check LATEST_VERSION -> fetch and verify versions.json
//	-> report notes -> download and hash artifact -> check permissions -> install
//
// Externally managed installs stop after detection without network access.
// Failures are *UpdateError values carrying a stack trace; no failure leaves
// the executable modified.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	res, current, err := u.prepare()
	if err != nil || res.Outcome == OutcomeExternallyManaged {
		return res, err
	}

	check, err := u.checkVersion(ctx, current)
	if err != nil {
		return nil, err
	}
	res.Latest = check.Latest
	if check.Status == StatusUpToDate {
		res.Outcome = OutcomeUpToDate
		u.report(fmt.Sprintf("ytdl is up-to-date (%s)", u.current))
		return res, nil
	}

	u.report(fmt.Sprintf("Updating to version %s ...", check.LatestRaw))

	u.logger.Debug("fetching versions catalog", "url", redactURL(u.cfg.CatalogURL()))
	signed, err := FetchAndVerifyCatalog(ctx, u.cfg, u.opener, check.Latest)
	if err != nil {
		return nil, u.fail(StageCatalog, err)
	}
	u.logger.Debug("verified versions catalog", "versions", len(signed.Catalog.Entries), "latest", signed.Catalog.LatestRaw)

	res.Notes = CollectNotes(signed.Catalog, current)
	if text := u.notes(res.Notes); text != "" {
		u.report(text)
	}

	key := res.Kind.PlatformKey()
	artifact, ok := signed.Target.Record.Artifact(key)
	if !ok {
		return nil, u.fail(StageCatalog, fmt.Errorf("%w: version %s has no %q artifact", ErrMalformedData, signed.Target.Key, key))
	}

	u.logger.Debug("downloading artifact", "url", redactURL(artifact.URL), "platform", key)
	content, err := FetchArtifact(ctx, u.opener, artifact)
	if err != nil {
		return nil, u.fail(StageDownload, err)
	}
	u.logger.Debug("artifact hash verified", "bytes", len(content), "sha256", artifact.ExpectedHashHex)

	installer := u.installer
	if installer == nil {
		installer, err = NewInstaller(res.Kind, InstallOptions{
			HelperDelay: u.cfg.HelperDelay,
			Version:     check.LatestRaw,
			Logger:      u.logger,
		})
		if err != nil {
			return nil, u.fail(StageInstall, err)
		}
	}

	outcome, err := installer.Install(ctx, res.ExecPath, content)
	if err != nil {
		return nil, u.fail(StageInstall, err)
	}
	res.Outcome = outcome

	switch outcome {
	case OutcomeInstalled:
		u.report("Updated ytdl. Restart ytdl to use the new version.")
	case OutcomeScheduled:
		u.report("The update will be completed after ytdl exits.")
	case OutcomeAborted, OutcomeExternallyManaged, OutcomeUpToDate, OutcomeAvailable:
	}
	return res, nil
}

// prepare resolves the executable and its deployment kind. For managed
// installs it reports the package-manager guidance and returns a final
// result; otherwise it also parses the running version.
func (u *Updater) prepare() (*Result, Version, error) {
	execPath, err := u.resolveExecPath()
	if err != nil {
		return nil, nil, u.fail(StageLocate, err)
	}

	kind := u.cfg.Deployment
	if kind == DeploymentUnknown {
		kind = DetectDeploymentKind(execPath)
	}
	u.logger.Debug("resolved deployment", "path", execPath, "kind", kind)

	res := &Result{Kind: kind, ExecPath: execPath}
	if kind == DeploymentExternallyManaged {
		res.Outcome = OutcomeExternallyManaged
		u.report(managedInstallMessage(execPath))
		return res, nil, nil
	}

	current, err := ParseVersion(u.current)
	if err != nil {
		return nil, nil, u.fail(StageCurrentVersion, err)
	}
	res.Current = current
	return res, current, nil
}

func (u *Updater) checkVersion(ctx context.Context, current Version) (*VersionCheck, error) {
	u.logger.Debug("checking latest version", "url", redactURL(u.cfg.LatestVersionURL()), "version", current)
	check, err := CheckForUpdate(ctx, u.cfg, u.opener, current)
	if err != nil {
		return nil, u.fail(StageCheck, err)
	}
	u.logger.Debug("latest version", "version", check.LatestRaw, "status", check.Status)
	return check, nil
}

// resolveExecPath returns the absolute, symlink-resolved path of the
// executable to update.
func (u *Updater) resolveExecPath() (string, error) {
	p := u.execPath
	if p == "" {
		var err error
		if p, err = osExecutable(); err != nil {
			return "", fmt.Errorf("determining executable path: %w", err)
		}
	}

	resolved, err := evalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", p, err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", resolved, err)
	}
	return abs, nil
}

func (u *Updater) fail(stage Stage, err error) error {
	u.logger.Debug("update failed", "stage", stage, "err", err)
	return pkgerrors.WithStack(&UpdateError{Stage: stage, Err: err})
}
