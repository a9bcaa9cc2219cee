// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// maxArtifactBytes is the upper bound on a downloaded artifact (500 MB).
const maxArtifactBytes = 500 << 20

// FetchArtifact downloads artifact.URL in full while hashing the stream, and
// returns the content only if its SHA256 matches artifact.ExpectedHashHex.
// On a mismatch the bytes are discarded and a *ChecksumError (wrapping
// ErrIntegrity) is returned; nothing is written to disk either way.
func FetchArtifact(ctx context.Context, opener Opener, artifact Artifact) ([]byte, error) {
	body, err := opener.Open(ctx, artifact.URL)
	if err != nil {
		return nil, fmt.Errorf("downloading artifact: %w", err)
	}
	defer func() { _ = body.Close() }() // read-only response body

	var buf bytes.Buffer
	h := sha256.New()
	n, err := io.Copy(&buf, io.TeeReader(io.LimitReader(body, maxArtifactBytes+1), h))
	if err != nil {
		return nil, fmt.Errorf("%w: downloading %s: %w", ErrNetwork, redactURL(artifact.URL), err)
	}
	if n > maxArtifactBytes {
		return nil, fmt.Errorf("%w: artifact %s exceeds %d bytes", ErrNetwork, redactURL(artifact.URL), maxArtifactBytes)
	}

	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, artifact.ExpectedHashHex) {
		return nil, &ChecksumError{
			Filename: artifactName(artifact.URL),
			Expected: strings.ToLower(artifact.ExpectedHashHex),
			Got:      got,
		}
	}

	return buf.Bytes(), nil
}

// ComputeFileHash computes and returns the lowercase hex-encoded SHA256 digest
// of the file at path. It streams the file through the hash function to avoid
// loading the entire file into memory.
func ComputeFileHash(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		// Read-only file handle; close errors are exotic (NFS edge cases).
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// artifactName returns the last path element of an artifact URL for messages.
func artifactName(rawURL string) string {
	redacted := redactURL(rawURL)
	if i := strings.Index(redacted, "://"); i >= 0 {
		if name := path.Base(redacted[i+3:]); name != "." && name != "/" {
			return name
		}
	}
	return redacted
}

// isValidHexHash checks if s is a valid 64-character hex-encoded SHA256 hash.
func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
