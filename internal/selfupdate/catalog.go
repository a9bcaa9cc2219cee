// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const (
	// PlatformKeyExe is the catalog key of the frozen (self-contained) executable.
	PlatformKeyExe = "exe"
	// PlatformKeyBin is the catalog key of the archive-packaged executable.
	PlatformKeyBin = "bin"

	notesField = "notes"
)

type (
	// Artifact is a downloadable file and its expected lowercase SHA256 hash.
	Artifact struct {
		URL             string
		ExpectedHashHex string
	}

	// VersionRecord holds the release notes and per-platform artifacts of one
	// catalog version.
	VersionRecord struct {
		Notes     []string
		Artifacts map[string]Artifact // Keyed by platform key ("exe", "bin")
	}

	// CatalogEntry is one version of the catalog with its record.
	CatalogEntry struct {
		Key     string // Version key as written in the catalog
		Version Version
		Record  VersionRecord
	}

	// Catalog is the verified versions catalog. Entries are sorted by
	// ascending version.
	Catalog struct {
		Latest    Version
		LatestRaw string
		Entries   []CatalogEntry
	}

	// SignedCatalog is a catalog whose signature has been verified, plus the
	// record of the version selected as the update target.
	SignedCatalog struct {
		Catalog *Catalog
		Target  CatalogEntry
	}

	// catalogWire is the JSON shape of versions.json after the signature has
	// been removed.
	catalogWire struct {
		Latest   *string                               `json:"latest"`
		Versions map[string]map[string]json.RawMessage `json:"versions"`
	}
)

// Lookup returns the entry for v, if present.
func (c *Catalog) Lookup(v Version) (CatalogEntry, bool) {
	i, found := slices.BinarySearchFunc(c.Entries, v, func(e CatalogEntry, target Version) int {
		return e.Version.Compare(target)
	})
	if !found {
		return CatalogEntry{}, false
	}
	return c.Entries[i], true
}

// Artifact returns the artifact for platformKey, if the record has one.
func (r VersionRecord) Artifact(platformKey string) (Artifact, bool) {
	a, ok := r.Artifacts[platformKey]
	return a, ok
}

// FetchAndVerifyCatalog downloads versions.json, verifies its signature with
// cfg.PublicKey, and parses it. The record for target must be present.
//
// Fetch failures are ErrNetwork; a missing signature or unparsable content is
// ErrMalformedData; a signature that does not verify is ErrInvalidSignature.
// The catalog is never interpreted before verification succeeds.
func FetchAndVerifyCatalog(ctx context.Context, cfg Config, opener Opener, target Version) (*SignedCatalog, error) {
	data, err := readAll(ctx, opener, cfg.CatalogURL(), maxMetadataBytes)
	if err != nil {
		return nil, fmt.Errorf("fetching versions catalog: %w", err)
	}
	return ParseSignedCatalog(data, cfg.PublicKey, target)
}

// ParseSignedCatalog verifies and parses a versions.json payload. See
// FetchAndVerifyCatalog for the error contract.
func ParseSignedCatalog(payload []byte, key PublicKey, target Version) (*SignedCatalog, error) {
	canonical, sig, err := Canonicalize(payload)
	if err != nil {
		return nil, err
	}

	if !key.Verify(canonical, sig) {
		return nil, fmt.Errorf("the versions file signature is invalid: %w", ErrInvalidSignature)
	}

	catalog, err := parseCatalog(canonical)
	if err != nil {
		return nil, err
	}

	entry, ok := catalog.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("%w: version %s is not listed in the catalog", ErrMalformedData, target)
	}

	return &SignedCatalog{Catalog: catalog, Target: entry}, nil
}

// parseCatalog decodes verified canonical bytes into a Catalog.
func parseCatalog(canonical []byte) (*Catalog, error) {
	var wire catalogWire
	if err := json.Unmarshal(canonical, &wire); err != nil {
		return nil, fmt.Errorf("%w: decoding catalog: %w", ErrMalformedData, err)
	}
	if wire.Latest == nil {
		return nil, fmt.Errorf("%w: catalog has no latest field", ErrMalformedData)
	}
	if wire.Versions == nil {
		return nil, fmt.Errorf("%w: catalog has no versions field", ErrMalformedData)
	}

	latest, err := ParseVersion(*wire.Latest)
	if err != nil {
		return nil, fmt.Errorf("%w: latest: %w", ErrMalformedData, err)
	}

	catalog := &Catalog{
		Latest:    latest,
		LatestRaw: strings.TrimSpace(*wire.Latest),
		Entries:   make([]CatalogEntry, 0, len(wire.Versions)),
	}
	for key, fields := range wire.Versions {
		v, err := ParseVersion(key)
		if err != nil {
			return nil, fmt.Errorf("%w: versions: %w", ErrMalformedData, err)
		}
		record, err := parseVersionRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: version %s: %w", ErrMalformedData, key, err)
		}
		catalog.Entries = append(catalog.Entries, CatalogEntry{Key: key, Version: v, Record: record})
	}

	slices.SortFunc(catalog.Entries, func(a, b CatalogEntry) int {
		return a.Version.Compare(b.Version)
	})
	for i := 1; i < len(catalog.Entries); i++ {
		if catalog.Entries[i-1].Version.Equal(catalog.Entries[i].Version) {
			return nil, fmt.Errorf("%w: versions %q and %q are the same version",
				ErrMalformedData, catalog.Entries[i-1].Key, catalog.Entries[i].Key)
		}
	}

	return catalog, nil
}

// parseVersionRecord splits one version object into its notes and its
// platform artifacts. Every key except "notes" is a platform key whose value
// is a [url, sha256] pair.
func parseVersionRecord(fields map[string]json.RawMessage) (VersionRecord, error) {
	record := VersionRecord{Artifacts: make(map[string]Artifact)}

	for key, raw := range fields {
		if key == notesField {
			if err := json.Unmarshal(raw, &record.Notes); err != nil {
				return VersionRecord{}, fmt.Errorf("notes: %w", err)
			}
			continue
		}

		var pair []string
		if err := json.Unmarshal(raw, &pair); err != nil {
			return VersionRecord{}, fmt.Errorf("artifact %q: %w", key, err)
		}
		if len(pair) != 2 {
			return VersionRecord{}, fmt.Errorf("artifact %q: want [url, sha256], got %d elements", key, len(pair))
		}
		if pair[0] == "" || !isValidHexHash(pair[1]) {
			return VersionRecord{}, fmt.Errorf("artifact %q: empty url or malformed sha256", key)
		}
		record.Artifacts[key] = Artifact{URL: pair[0], ExpectedHashHex: strings.ToLower(pair[1])}
	}

	return record, nil
}
