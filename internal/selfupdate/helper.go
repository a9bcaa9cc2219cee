// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/ytdl-org/ytdl/pkg/platform"
)

// helperSuffix names the helper script written next to the executable.
const helperSuffix = "-updater"

// renderHelper builds the detached helper script for targetOS. The script
// waits delay for this process to release execPath, moves <execPath>.new over
// it, and deletes itself. It returns the helper file name and its content.
//
// The wait is a best-effort delay, not a handshake: if this process still
// holds the executable when it elapses, the move fails and the staged file
// is left in place for the next attempt to overwrite.
func renderHelper(targetOS, execPath string, delay time.Duration, version string) (name, script string, err error) {
	file := filepath.Base(execPath)
	if targetOS == platform.Windows {
		file = execPath[strings.LastIndexAny(execPath, `\/`)+1:]
	}
	base := strings.TrimSuffix(file, filepath.Ext(file))
	seconds := int(math.Ceil(delay.Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	if targetOS == platform.Windows {
		script, err = renderBatchHelper(execPath, seconds, version)
		return base + helperSuffix + ".bat", script, err
	}
	script, err = renderShellHelper(execPath, seconds, version)
	return base + helperSuffix + ".sh", script, err
}

// renderBatchHelper renders the cmd.exe helper. ping is used as a portable
// sleep; the first echo request returns immediately, hence seconds+1.
func renderBatchHelper(execPath string, seconds int, version string) (string, error) {
	for _, s := range []string{execPath, version} {
		if strings.ContainsAny(s, "\"%\r\n") {
			return "", fmt.Errorf("cannot embed %q in a batch script", s)
		}
	}

	var sb strings.Builder
	sb.WriteString("@echo off\r\n")
	sb.WriteString("echo Waiting for file handle to be closed ...\r\n")
	fmt.Fprintf(&sb, "ping 127.0.0.1 -n %d -w 1000 > NUL\r\n", seconds+1)
	fmt.Fprintf(&sb, "move /Y \"%s%s\" \"%s\" > NUL\r\n", execPath, newSuffix, execPath)
	fmt.Fprintf(&sb, "echo Updated ytdl to version %s.\r\n", version)
	sb.WriteString("start /b \"\" cmd /c del \"%~f0\"&exit /b\r\n")
	return sb.String(), nil
}

// renderShellHelper renders the POSIX sh helper. Every interpolated value is
// quoted for the POSIX dialect and the result is parsed back to make sure the
// script is well formed before it is ever executed.
func renderShellHelper(execPath string, seconds int, version string) (string, error) {
	target, err := syntax.Quote(execPath, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("quoting executable path: %w", err)
	}
	staged, err := syntax.Quote(execPath+newSuffix, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("quoting staged path: %w", err)
	}
	done, err := syntax.Quote("Updated ytdl to version "+version+".", syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("quoting version: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString("echo 'Waiting for file handle to be closed ...'\n")
	fmt.Fprintf(&sb, "sleep %d\n", seconds)
	fmt.Fprintf(&sb, "mv -f %s %s && echo %s\n", staged, target, done)
	sb.WriteString("rm -f -- \"$0\"\n")
	script := sb.String()

	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err := parser.Parse(strings.NewReader(script), "updater.sh"); err != nil {
		return "", fmt.Errorf("generated helper does not parse: %w", err)
	}
	return script, nil
}

// helperCommand returns the command that runs the helper script detached
// from this process.
func helperCommand(targetOS, helperPath string) *exec.Cmd {
	var cmd *exec.Cmd
	if targetOS == platform.Windows {
		cmd = exec.Command("cmd.exe", "/C", helperPath)
	} else {
		cmd = exec.Command("/bin/sh", helperPath)
	}
	cmd.Dir = filepath.Dir(helperPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = detachedProcAttr()
	return cmd
}
