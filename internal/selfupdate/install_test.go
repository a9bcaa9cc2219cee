// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/ytdl-org/ytdl/pkg/platform"
)

// writeExecutable creates a fake installed executable in a fresh directory.
func writeExecutable(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ytdl")
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("writing executable: %v", err)
	}
	return path
}

// recordDetached replaces startDetached for one test and returns the
// commands it was asked to launch.
func recordDetached(t *testing.T, launchErr error) *[]*exec.Cmd {
	t.Helper()

	saved := startDetached
	t.Cleanup(func() { startDetached = saved })

	var launched []*exec.Cmd
	startDetached = func(cmd *exec.Cmd) error {
		launched = append(launched, cmd)
		return launchErr
	}
	return &launched
}

// makeReadOnly removes write permission from dir for the rest of the test.
func makeReadOnly(t *testing.T, dir string) {
	t.Helper()

	if runtime.GOOS == platform.Windows {
		t.Skip("POSIX permission bits are not enforced on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission checks")
	}
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

func TestNewInstaller(t *testing.T) {
	t.Parallel()

	for _, kind := range []DeploymentKind{DeploymentFrozen, DeploymentArchive, DeploymentExternallyManaged} {
		if _, err := NewInstaller(kind, InstallOptions{}); err != nil {
			t.Errorf("NewInstaller(%v) unexpected error: %v", kind, err)
		}
	}
	if _, err := NewInstaller(DeploymentUnknown, InstallOptions{}); err == nil {
		t.Error("NewInstaller(unknown) = nil error, want error")
	}
}

func TestManagedInstaller_Refuses(t *testing.T) {
	t.Parallel()

	inst, err := NewInstaller(DeploymentExternallyManaged, InstallOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inst.Install(context.Background(), "/usr/bin/ytdl", []byte("x")); !errors.Is(err, errManagedInstall) {
		t.Errorf("Install() error = %v, want errManagedInstall", err)
	}
}

func TestFrozenInstaller_SchedulesHelper(t *testing.T) {
	// Not parallel: mutates package-level goos and startDetached.
	overrideDetectSeams(t, "", platform.Linux)
	launched := recordDetached(t, nil)

	execPath := writeExecutable(t, "old")
	inst, err := NewInstaller(DeploymentFrozen, InstallOptions{Version: "2021.01.08"})
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := inst.Install(context.Background(), execPath, []byte("new"))
	if err != nil {
		t.Fatalf("Install() unexpected error: %v", err)
	}
	if outcome != OutcomeScheduled {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeScheduled)
	}

	// The running executable is untouched; exactly one staged file and one
	// helper sit next to it.
	if got := readFile(t, execPath); got != "old" {
		t.Errorf("executable content = %q, want it unchanged", got)
	}
	if got := readFile(t, execPath+newSuffix); got != "new" {
		t.Errorf("staged content = %q, want %q", got, "new")
	}
	want := []string{"ytdl", "ytdl" + newSuffix, "ytdl-updater.sh"}
	slices.Sort(want)
	if got := dirEntries(t, filepath.Dir(execPath)); !slices.Equal(got, want) {
		t.Errorf("directory = %q, want %q", got, want)
	}

	if len(*launched) != 1 {
		t.Fatalf("launched %d helpers, want 1", len(*launched))
	}
	helperPath := filepath.Join(filepath.Dir(execPath), "ytdl-updater.sh")
	if args := (*launched)[0].Args; !slices.Equal(args, []string{"/bin/sh", helperPath}) {
		t.Errorf("helper command = %q", args)
	}
}

func TestFrozenInstaller_LaunchFailureCleansUp(t *testing.T) {
	// Not parallel: mutates package-level goos and startDetached.
	overrideDetectSeams(t, "", platform.Linux)
	recordDetached(t, errors.New("exec format error"))

	execPath := writeExecutable(t, "old")
	inst, err := NewInstaller(DeploymentFrozen, InstallOptions{Version: "1.1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := inst.Install(context.Background(), execPath, []byte("new")); !errors.Is(err, errOverwrite) {
		t.Fatalf("Install() error = %v, want errOverwrite", err)
	}
	if got := dirEntries(t, filepath.Dir(execPath)); !slices.Equal(got, []string{"ytdl"}) {
		t.Errorf("directory after failure = %q, want only the executable", got)
	}
}

func TestFrozenInstaller_ReadOnlyDirectory(t *testing.T) {
	// Not parallel: mutates package-level goos and startDetached.
	overrideDetectSeams(t, "", platform.Linux)
	launched := recordDetached(t, nil)

	execPath := writeExecutable(t, "old")
	makeReadOnly(t, filepath.Dir(execPath))

	inst, err := NewInstaller(DeploymentFrozen, InstallOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = inst.Install(context.Background(), execPath, []byte("new"))

	var perr *PermissionError
	if !errors.As(err, &perr) || !errors.Is(err, ErrPermission) {
		t.Fatalf("Install() error = %v, want *PermissionError", err)
	}
	if perr.Path != filepath.Dir(execPath) {
		t.Errorf("PermissionError.Path = %q, want the directory", perr.Path)
	}
	if len(*launched) != 0 {
		t.Error("helper launched despite missing permissions")
	}
}

func TestArchiveInstaller_ReplacesInPlace(t *testing.T) {
	t.Parallel()

	execPath := writeExecutable(t, "old")
	inst, err := NewInstaller(DeploymentArchive, InstallOptions{})
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := inst.Install(context.Background(), execPath, []byte("new"))
	if err != nil {
		t.Fatalf("Install() unexpected error: %v", err)
	}
	if outcome != OutcomeInstalled {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeInstalled)
	}
	if got := readFile(t, execPath); got != "new" {
		t.Errorf("executable content = %q, want %q", got, "new")
	}

	info, err := os.Stat(execPath)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != platform.Windows && info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755 preserved", info.Mode().Perm())
	}
	if got := dirEntries(t, filepath.Dir(execPath)); !slices.Equal(got, []string{"ytdl"}) {
		t.Errorf("directory = %q, want only the executable", got)
	}
}

func TestArchiveInstaller_ReadOnlyDirectory(t *testing.T) {
	t.Parallel()

	execPath := writeExecutable(t, "old")
	makeReadOnly(t, filepath.Dir(execPath))

	inst, err := NewInstaller(DeploymentArchive, InstallOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inst.Install(context.Background(), execPath, []byte("new")); !errors.Is(err, ErrPermission) {
		t.Fatalf("Install() error = %v, want ErrPermission", err)
	}
	if got := readFile(t, execPath); got != "old" {
		t.Errorf("executable content = %q, want it unchanged", got)
	}
}

func TestCheckWritable(t *testing.T) {
	t.Parallel()

	execPath := writeExecutable(t, "x")
	if err := CheckWritable(execPath); err != nil {
		t.Errorf("CheckWritable(writable file) = %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing")
	err := CheckWritable(missing)
	var perr *PermissionError
	if !errors.As(err, &perr) || perr.Path != missing {
		t.Errorf("CheckWritable(missing) = %v, want *PermissionError for %s", err, missing)
	}
}

func TestPermissionError_Unwrap(t *testing.T) {
	t.Parallel()

	err := error(&PermissionError{Path: "/usr/bin/ytdl", Err: os.ErrPermission})
	if !errors.Is(err, ErrPermission) || !errors.Is(err, os.ErrPermission) {
		t.Errorf("errors.Is chain broken for %v", err)
	}
	if got := (&PermissionError{Path: "/usr/bin/ytdl"}).Error(); got != "no write permissions on /usr/bin/ytdl" {
		t.Errorf("Error() = %q", got)
	}
}
