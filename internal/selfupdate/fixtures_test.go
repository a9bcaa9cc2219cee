// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"
)

const testBaseURL = "https://updates.test/update/"

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	errTestKey  error
)

type (
	// fakeOpener serves fixed bodies by URL and records every request.
	fakeOpener struct {
		mu       sync.Mutex
		files    map[string][]byte
		requests []string
	}

	// fixtureVersion describes one catalog version. A nil artifact content
	// leaves that platform key out of the record.
	fixtureVersion struct {
		version string
		notes   []string
		exe     []byte
		bin     []byte
	}

	// updateFixture is a signed update channel served by a fakeOpener.
	updateFixture struct {
		cfg    Config
		opener *fakeOpener
		doc    map[string]any
	}
)

func newFakeOpener() *fakeOpener {
	return &fakeOpener{files: make(map[string][]byte)}
}

func (f *fakeOpener) Open(_ context.Context, rawURL string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, rawURL)
	data, ok := f.files[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: fetching %s: unexpected status 404", ErrNetwork, rawURL)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeOpener) count(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if r == rawURL {
			n++
		}
	}
	return n
}

func (f *fakeOpener) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

// testSigningKey returns a 2048-bit RSA key shared by the package tests.
func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	testKeyOnce.Do(func() {
		testKey, errTestKey = rsa.GenerateKey(rand.Reader, 2048)
	})
	if errTestKey != nil {
		t.Fatalf("generating RSA key: %v", errTestKey)
	}
	return testKey
}

func testPublicKey(t *testing.T) PublicKey {
	t.Helper()

	priv := testSigningKey(t)
	return PublicKey{N: priv.N, E: priv.E}
}

// signDoc signs the canonical form of doc with the standard library signer
// and returns the serialized payload with the signature field added.
func signDoc(t *testing.T, doc map[string]any) []byte {
	t.Helper()

	canonical, err := encodeCanonical(doc)
	if err != nil {
		t.Fatalf("encoding canonical form: %v", err)
	}
	digest := sha256.Sum256(canonical)
	sig, err := rsa.SignPKCS1v15(nil, testSigningKey(t), crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	signed := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		signed[k] = v
	}
	signed[signatureField] = hex.EncodeToString(sig)

	payload, err := json.MarshalIndent(signed, "", "    ")
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	return payload
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func artifactURL(version, key string) string {
	return "https://downloads.updates.test/" + version + "/ytdl." + key
}

// newUpdateFixture publishes latest as LATEST_VERSION and a catalog signed
// with the test key holding versions.
func newUpdateFixture(t *testing.T, latest string, versions ...fixtureVersion) *updateFixture {
	t.Helper()

	fx := &updateFixture{
		cfg: Config{
			BaseURL:     testBaseURL,
			PublicKey:   testPublicKey(t),
			Deployment:  DeploymentArchive,
			HelperDelay: DefaultHelperDelay,
		},
		opener: newFakeOpener(),
	}

	entries := make(map[string]any, len(versions))
	for _, v := range versions {
		record := map[string]any{}
		if v.notes != nil {
			record[notesField] = v.notes
		}
		for key, content := range map[string][]byte{PlatformKeyExe: v.exe, PlatformKeyBin: v.bin} {
			if content == nil {
				continue
			}
			u := artifactURL(v.version, key)
			record[key] = []string{u, sha256Hex(content)}
			fx.opener.files[u] = content
		}
		entries[v.version] = record
	}
	fx.doc = map[string]any{"latest": latest, "versions": entries}

	fx.opener.files[fx.cfg.LatestVersionURL()] = []byte(latest + "\n")
	fx.opener.files[fx.cfg.CatalogURL()] = signDoc(t, fx.doc)
	return fx
}
