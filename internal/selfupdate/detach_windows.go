// SPDX-License-Identifier: MPL-2.0

//go:build windows

package selfupdate

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachedProcAttr starts the helper in a new process group so Ctrl+C in the
// parent console does not reach it.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}
