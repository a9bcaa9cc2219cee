// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// signatureField is the top-level catalog key carrying the hex signature.
const signatureField = "signature"

// errUnsigned is wrapped into ErrMalformedData when the catalog has no
// signature field.
var errUnsigned = errors.New("the versions file is not signed or corrupted")

// Canonicalize decodes a signed catalog payload, removes its signature field,
// and re-encodes the remainder canonically: object keys sorted
// lexicographically, no insignificant whitespace, no HTML escaping, and
// numbers kept in their original textual form. It returns the canonical bytes
// together with the removed signature.
//
// The result depends only on the logical content of the payload, so
// re-canonicalizing the same document always yields identical bytes.
func Canonicalize(payload []byte) (canonical []byte, signatureHex string, err error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, "", fmt.Errorf("%w: decoding catalog: %w", ErrMalformedData, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("%w: trailing data after catalog", ErrMalformedData)
	}
	if doc == nil {
		return nil, "", fmt.Errorf("%w: catalog is not an object", ErrMalformedData)
	}

	rawSig, ok := doc[signatureField]
	if !ok {
		return nil, "", fmt.Errorf("%w: %w", ErrMalformedData, errUnsigned)
	}
	sig, ok := rawSig.(string)
	if !ok {
		return nil, "", fmt.Errorf("%w: signature is not a string", ErrMalformedData)
	}
	delete(doc, signatureField)

	canonical, err = encodeCanonical(doc)
	if err != nil {
		return nil, "", fmt.Errorf("%w: encoding catalog: %w", ErrMalformedData, err)
	}
	return canonical, sig, nil
}

// encodeCanonical serializes v compactly. encoding/json already emits map
// keys in sorted order; the encoder's trailing newline is stripped.
func encodeCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
