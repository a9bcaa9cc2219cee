// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inconshreveable/go-update"
)

// newSuffix is appended to the executable path for the staged frozen update.
const newSuffix = ".new"

// errManagedInstall is returned by the installer of an externally managed
// deployment, which must never be asked to install.
var errManagedInstall = errors.New("externally managed installs are updated by their package manager")

var (
	// errWriteNew marks failures to stage the new version or its helper.
	errWriteNew = errors.New("unable to write the new version")

	// errOverwrite marks failures to put the new version in place.
	errOverwrite = errors.New("unable to overwrite current version")
)

//nolint:gochecknoglobals // Test seam for launching the detached helper.
var startDetached = func(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	// Fire and forget: the helper outlives this process and reports nothing back.
	return cmd.Process.Release()
}

type (
	// Installer replaces the running executable with verified content.
	Installer interface {
		Install(ctx context.Context, execPath string, content []byte) (Outcome, error)
	}

	// InstallOptions configures the installer strategies.
	InstallOptions struct {
		HelperDelay time.Duration // Frozen only: wait before the helper moves the file
		Version     string        // Version label echoed by the helper
		Logger      *log.Logger
	}

	frozenInstaller struct {
		opts InstallOptions
	}

	archiveInstaller struct {
		opts InstallOptions
	}

	managedInstaller struct{}
)

// NewInstaller returns the replacement strategy for kind. DeploymentUnknown
// must be resolved with DetectDeploymentKind first.
func NewInstaller(kind DeploymentKind, opts InstallOptions) (Installer, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.HelperDelay <= 0 {
		opts.HelperDelay = DefaultHelperDelay
	}

	switch kind {
	case DeploymentFrozen:
		return &frozenInstaller{opts: opts}, nil
	case DeploymentArchive:
		return &archiveInstaller{opts: opts}, nil
	case DeploymentExternallyManaged:
		return managedInstaller{}, nil
	case DeploymentUnknown:
	}
	return nil, fmt.Errorf("no installer for deployment kind %s", kind)
}

// Install stages content at <execPath>.new, writes a helper script next to
// the executable, and launches it as a detached process that waits, moves
// the staged file over execPath, and deletes itself. It returns as soon as
// the helper has been started; the replacement itself is not observed.
func (f *frozenInstaller) Install(ctx context.Context, execPath string, content []byte) (_ Outcome, err error) {
	dir := filepath.Dir(execPath)
	if err := CheckWritable(dir); err != nil {
		return OutcomeAborted, err
	}
	if err := CheckWritable(execPath); err != nil {
		return OutcomeAborted, err
	}
	if err := ctx.Err(); err != nil {
		return OutcomeAborted, err
	}

	helperName, script, err := renderHelper(goos, execPath, f.opts.HelperDelay, f.opts.Version)
	if err != nil {
		return OutcomeAborted, fmt.Errorf("%w: generating update helper: %w", errWriteNew, err)
	}

	newPath := execPath + newSuffix
	helperPath := filepath.Join(dir, helperName)

	// A failed attempt leaves the pre-update state behind.
	defer func() {
		if err != nil {
			_ = os.Remove(newPath)
			_ = os.Remove(helperPath)
		}
	}()

	if err := writeFileMode(newPath, content, executableMode(execPath)); err != nil {
		return OutcomeAborted, fmt.Errorf("%w: %w", errWriteNew, err)
	}
	f.opts.Logger.Debug("staged new executable", "path", newPath, "bytes", len(content))

	if err := writeFileMode(helperPath, []byte(script), 0o755); err != nil {
		return OutcomeAborted, fmt.Errorf("%w: writing update helper: %w", errWriteNew, err)
	}

	if err := startDetached(helperCommand(goos, helperPath)); err != nil {
		return OutcomeAborted, fmt.Errorf("%w: launching %s: %w", errOverwrite, helperPath, err)
	}
	f.opts.Logger.Debug("launched update helper", "path", helperPath, "delay", f.opts.HelperDelay)

	return OutcomeScheduled, nil
}

// Install replaces execPath synchronously. The new content is written beside
// the executable and renamed over it, so a running binary can be replaced on
// platforms that allow renaming open files. The installed file is re-hashed
// before success is reported.
func (a *archiveInstaller) Install(ctx context.Context, execPath string, content []byte) (Outcome, error) {
	if err := CheckWritable(execPath); err != nil {
		return OutcomeAborted, err
	}

	sum := sha256.Sum256(content)
	opts := update.Options{
		TargetPath: execPath,
		TargetMode: executableMode(execPath),
		Checksum:   sum[:],
		Hash:       crypto.SHA256,
	}
	// Probes the directory with a throwaway file; the rename needs it writable.
	if err := opts.CheckPermissions(); err != nil {
		return OutcomeAborted, &PermissionError{Path: filepath.Dir(execPath), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return OutcomeAborted, err
	}

	if err := update.Apply(bytes.NewReader(content), opts); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return OutcomeAborted, fmt.Errorf("%w: %w (restoring the previous version also failed: %v)", errOverwrite, err, rerr)
		}
		return OutcomeAborted, fmt.Errorf("%w: %w", errOverwrite, err)
	}

	got, err := ComputeFileHash(execPath)
	if err != nil {
		return OutcomeAborted, fmt.Errorf("%w: confirming installed version: %w", errOverwrite, err)
	}
	if want := hex.EncodeToString(sum[:]); got != want {
		return OutcomeAborted, &ChecksumError{Filename: execPath, Expected: want, Got: got}
	}
	a.opts.Logger.Debug("replaced executable", "path", execPath, "bytes", len(content))

	return OutcomeInstalled, nil
}

// Install always fails: managed installs are stopped before any network
// activity, so reaching this is a programming error.
func (managedInstaller) Install(context.Context, string, []byte) (Outcome, error) {
	return OutcomeAborted, errManagedInstall
}

// executableMode returns the permission bits of path, or 0755 if it cannot
// be inspected.
func executableMode(path string) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return 0o755
	}
	return info.Mode().Perm()
}

// writeFileMode writes data to path and forces mode, which os.WriteFile only
// applies when it creates the file.
func writeFileMode(path string, data []byte, mode fs.FileMode) error {
	if err := os.WriteFile(path, data, mode); err != nil {
		return err
	}
	return os.Chmod(path, mode)
}
