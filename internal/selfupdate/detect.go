// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ytdl-org/ytdl/pkg/platform"
)

const (
	// homebrewMacARM is the Homebrew prefix on macOS ARM (Apple Silicon).
	homebrewMacARM = "/opt/homebrew/"

	// homebrewMacIntel is the Homebrew Cellar path on macOS Intel.
	homebrewMacIntel = "/usr/local/Cellar/"

	// homebrewLinux is the Linuxbrew prefix.
	homebrewLinux = "/home/linuxbrew/.linuxbrew/"

	// modulePath is the expected Go module path used to confirm go-install origin.
	modulePath = "github.com/ytdl-org/ytdl"

	// DeploymentUnknown means no kind was supplied; DetectDeploymentKind
	// resolves it.
	DeploymentUnknown DeploymentKind = 0

	// DeploymentFrozen is a self-contained executable that cannot overwrite
	// itself while running. Updates are staged next to it and moved into place
	// by a detached helper after the process exits.
	DeploymentFrozen DeploymentKind = 1

	// DeploymentArchive is an executable shipped as a single self-contained
	// package file that may be replaced in place.
	DeploymentArchive DeploymentKind = 2

	// DeploymentExternallyManaged is an install owned by a package manager.
	// Updates must go through that package manager.
	DeploymentExternallyManaged DeploymentKind = 3
)

var (
	// deploymentHint is set via -ldflags at build time, e.g.
	// -X github.com/ytdl-org/ytdl/internal/selfupdate.deploymentHint=frozen.
	// When non-empty, it takes priority over all path heuristics.
	//
	//nolint:gochecknoglobals // Build-time ldflags injection requires a package-level variable.
	deploymentHint string

	// readBuildInfo is a test seam for debug.ReadBuildInfo. Production code uses the
	// real implementation; tests replace it to simulate different build info scenarios.
	//
	//nolint:gochecknoglobals // Test seam requires a package-level variable.
	readBuildInfo = debug.ReadBuildInfo

	// goos is a test seam for runtime.GOOS.
	//
	//nolint:gochecknoglobals // Test seam requires a package-level variable.
	goos = runtime.GOOS

	// detectSandbox is a test seam for platform.DetectSandbox.
	//
	//nolint:gochecknoglobals // Test seam requires a package-level variable.
	detectSandbox = platform.DetectSandbox
)

// DeploymentKind classifies how the running executable was packaged, which
// selects the installer strategy.
type DeploymentKind int

// String returns the configuration name of the deployment kind.
func (k DeploymentKind) String() string {
	switch k {
	case DeploymentUnknown:
		return "unknown"
	case DeploymentFrozen:
		return "frozen"
	case DeploymentArchive:
		return "archive"
	case DeploymentExternallyManaged:
		return "managed"
	}
	return "unknown"
}

// ParseDeploymentKind converts a configuration or ldflags value to a
// DeploymentKind. The empty string maps to DeploymentUnknown.
func ParseDeploymentKind(s string) (DeploymentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DeploymentUnknown, nil
	case "frozen", "exe":
		return DeploymentFrozen, nil
	case "archive", "bin", "zip":
		return DeploymentArchive, nil
	case "managed", "external", "package-manager":
		return DeploymentExternallyManaged, nil
	default:
		return DeploymentUnknown, fmt.Errorf("unknown deployment kind %q", s)
	}
}

// PlatformKey returns the catalog key of the artifact this kind installs.
func (k DeploymentKind) PlatformKey() string {
	if k == DeploymentFrozen {
		return PlatformKeyExe
	}
	return PlatformKeyBin
}

// DetectDeploymentKind resolves the deployment kind for execPath.
// Resolution priority:
//  1. Build-time ldflags hint (deploymentHint)
//  2. Package managers -- Flatpak or Snap sandboxes, Homebrew prefixes, or
//     GOPATH/bin confirmed by build info
//  3. Platform default -- Windows executables are frozen, everything else is archive
func DetectDeploymentKind(execPath string) DeploymentKind {
	// 1. Build-time ldflags hint takes absolute priority. Unknown values fall
	// through to detection.
	if kind, err := ParseDeploymentKind(deploymentHint); err == nil && kind != DeploymentUnknown {
		return kind
	}

	// 2. Sandboxes, Homebrew and go install own their binaries.
	if detectSandbox() != platform.SandboxNone {
		return DeploymentExternallyManaged
	}
	if isHomebrewPath(execPath) {
		return DeploymentExternallyManaged
	}
	if isInGOPATHBin(execPath) && hasModulePath() {
		return DeploymentExternallyManaged
	}

	// 3. Windows locks running executables; replacement must wait for exit.
	if goos == platform.Windows {
		return DeploymentFrozen
	}
	return DeploymentArchive
}

// managedInstallMessage returns the guidance printed for externally managed
// installs, naming the package manager when it can be recognized.
func managedInstallMessage(execPath string) string {
	if sb := detectSandbox(); sb != platform.SandboxNone {
		return fmt.Sprintf("Detected %s installation at %s\n\nTo update, run:\n  %s", sb, execPath, platform.UpdateCommandFor(sb, "ytdl"))
	}
	switch {
	case isHomebrewPath(execPath):
		return fmt.Sprintf("Detected Homebrew installation at %s\n\nTo update, run:\n  brew upgrade ytdl", execPath)
	case isInGOPATHBin(execPath) && hasModulePath():
		return fmt.Sprintf("Detected go install at %s\n\nTo update, run:\n  go install %s@latest", execPath, modulePath)
	}
	return "It looks like you installed ytdl with a package manager. Please use that to update."
}

func isHomebrewPath(execPath string) bool {
	return strings.Contains(execPath, homebrewMacARM) ||
		strings.Contains(execPath, homebrewMacIntel) ||
		strings.Contains(execPath, homebrewLinux)
}

// isInGOPATHBin checks whether the given path is inside $GOPATH/bin.
// It uses the GOPATH environment variable, falling back to ~/go if unset
// (matching the Go toolchain's default behavior).
func isInGOPATHBin(execPath string) bool {
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		gopath = filepath.Join(home, "go")
	}

	gopathBin := filepath.Clean(filepath.Join(gopath, "bin"))
	cleanExec := filepath.Clean(execPath)

	// The trailing separator ensures we match the directory boundary, not
	// a prefix like /home/user/gobin vs /home/user/go/bin.
	return strings.HasPrefix(cleanExec, gopathBin+string(filepath.Separator))
}

// hasModulePath checks whether the current binary's build info names the ytdl
// module, confirming it was built by `go install` rather than copied into
// GOPATH/bin by hand.
func hasModulePath() bool {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return false
	}
	return strings.Contains(info.Path, modulePath)
}
