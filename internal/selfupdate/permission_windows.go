// SPDX-License-Identifier: MPL-2.0

//go:build windows

package selfupdate

import (
	"os"

	"golang.org/x/sys/windows"
)

// CheckWritable reports whether the current user may write path. Files are
// checked for the read-only attribute; directories are probed by creating
// and removing a temporary file, since their attributes say nothing about
// the ACL.
func CheckWritable(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return &PermissionError{Path: path, Err: err}
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return &PermissionError{Path: path, Err: err}
	}

	if attrs&windows.FILE_ATTRIBUTE_DIRECTORY == 0 {
		if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
			return &PermissionError{Path: path, Err: os.ErrPermission}
		}
		return nil
	}

	probe, err := os.CreateTemp(path, ".ytdl-write-probe-*")
	if err != nil {
		return &PermissionError{Path: path, Err: err}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
