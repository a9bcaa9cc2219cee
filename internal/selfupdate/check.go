// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"fmt"
	"strings"
)

const (
	// StatusUpToDate means the running version is at or beyond the latest release.
	StatusUpToDate UpdateStatus = iota
	// StatusUpdateAvailable means the server advertises a newer release.
	StatusUpdateAvailable
)

type (
	// UpdateStatus is the outcome of the latest-version check.
	UpdateStatus int

	// VersionCheck holds the result of comparing the running version against
	// the server's LATEST_VERSION marker.
	VersionCheck struct {
		Status    UpdateStatus
		Current   Version
		Latest    Version
		LatestRaw string // Marker text as served, e.g. "2021.01.08"
	}
)

// String returns a human-readable name for the status.
func (s UpdateStatus) String() string {
	switch s {
	case StatusUpToDate:
		return "up-to-date"
	case StatusUpdateAvailable:
		return "update-available"
	}
	return "unknown"
}

// CheckForUpdate fetches the plain-text latest version marker and compares it
// with current. It performs exactly one network read. A fetch failure or an
// unparsable marker is reported as ErrNetwork.
func CheckForUpdate(ctx context.Context, cfg Config, opener Opener, current Version) (*VersionCheck, error) {
	data, err := readAll(ctx, opener, cfg.LatestVersionURL(), maxMetadataBytes)
	if err != nil {
		return nil, fmt.Errorf("fetching latest version: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	latest, err := ParseVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding latest version: %w", ErrNetwork, err)
	}

	check := &VersionCheck{
		Status:    StatusUpdateAvailable,
		Current:   current,
		Latest:    latest,
		LatestRaw: raw,
	}
	if current.Compare(latest) >= 0 {
		check.Status = StatusUpToDate
	}
	return check, nil
}
