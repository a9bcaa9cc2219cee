// SPDX-License-Identifier: MPL-2.0

// Package selfupdate implements self-update for the ytdl CLI.
// It checks the update server for a newer release, fetches and verifies the
// signed versions catalog, downloads the artifact for the running deployment
// kind, checks its SHA256 hash, and replaces the running executable.
//
// The package is organized into these concerns:
//   - version.go: dot-separated integer version identifiers and their ordering
//   - client.go: HTTP client for the update endpoints (the Opener capability)
//   - check.go: the LATEST_VERSION marker check
//   - canonical.go, signature.go: catalog canonicalization and RSA signature verification
//   - catalog.go: catalog fetching, verification, and parsing
//   - notes.go: aggregation of release notes newer than the running version
//   - checksum.go: artifact download and SHA256 integrity checks
//   - detect.go: DeploymentKind selection (frozen, archive, externally managed)
//   - install.go, helper.go: the replacement strategies for each deployment kind
//   - selfupdate.go: Updater, which composes the above into the end-to-end flow
//
// Every stage either succeeds or aborts the attempt. Nothing after a failed
// stage runs, and no file is written before the signature, the artifact hash,
// and the target permissions have all been checked.
package selfupdate
