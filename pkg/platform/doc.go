// SPDX-License-Identifier: MPL-2.0

// Package platform names the operating systems ytdl distinguishes and detects
// application sandboxes (Flatpak, Snap) whose package manager owns the
// executable.
package platform
