// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package selfupdate

import "syscall"

// detachedProcAttr starts the helper in its own session so it survives the
// parent's exit and terminal hangups.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
