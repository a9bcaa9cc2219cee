// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork indicates an update endpoint was unreachable, answered with an
	// error status, or returned a body that could not be decoded.
	ErrNetwork = errors.New("network error")

	// ErrMalformedData indicates the versions catalog is unsigned, unparsable,
	// or missing required fields.
	ErrMalformedData = errors.New("malformed update data")

	// ErrInvalidSignature indicates the catalog signature did not verify
	// against the update public key. It is never downgraded to a warning.
	ErrInvalidSignature = errors.New("invalid catalog signature")

	// ErrIntegrity indicates a downloaded artifact did not match its expected
	// SHA256 hash.
	ErrIntegrity = errors.New("artifact integrity check failed")

	// ErrPermission indicates the executable or its directory is not writable.
	ErrPermission = errors.New("insufficient write permission")

	// ErrInvalidVersion indicates a string is not a dot-separated integer version.
	ErrInvalidVersion = errors.New("invalid version")
)

type (
	// ChecksumError provides details about an artifact hash mismatch.
	// It wraps ErrIntegrity so callers can use errors.Is for classification.
	ChecksumError struct {
		Filename string
		Expected string
		Got      string
	}

	// PermissionError reports the path that failed the write-permission check.
	// It unwraps to both ErrPermission and the underlying OS error, so
	// errors.Is(err, os.ErrPermission) also holds when the OS reported it.
	PermissionError struct {
		Path string
		Err  error
	}
)

// Error returns a human-readable description of the checksum mismatch,
// showing both expected and actual hash values for debugging.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrIntegrity so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrIntegrity }

// Error names the path that is not writable.
func (e *PermissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no write permissions on %s: %v", e.Path, e.Err)
	}
	return "no write permissions on " + e.Path
}

// Unwrap exposes ErrPermission and the OS-level cause.
func (e *PermissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPermission}
	}
	return []error{ErrPermission, e.Err}
}
