// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package selfupdate

import "golang.org/x/sys/unix"

// CheckWritable reports whether the current user may write path. It asks the
// kernel with access(2), so ACLs and read-only mounts are honored.
func CheckWritable(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return &PermissionError{Path: path, Err: err}
	}
	return nil
}
