// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// updateKeyModulus is the RSA modulus of the key that signs versions.json.
	updateKeyModulus = "9d60ee4d8f805312fdb15a62f87b95bd66177b91df176765d13514a0f1754bcd" +
		"2057295c5b6f1d35daa6742c3ffc9a82d3e118861c207995a8031e151d863c99" +
		"27e304576bc80692bc8e094896fcf11b66f3e29e04e3a71e9a11558558acea18" +
		"40aec37fc396fb6b65dc81a1c4144e03bd1c011de62e3f1357b327d08426fe93"

	// updateKeyExponent is the public exponent of the update signing key.
	updateKeyExponent = 65537
)

// sha256DigestInfo is the DER prefix of a DigestInfo structure carrying a
// SHA-256 digest (RFC 8017, section 9.2, note 1).
var sha256DigestInfo = []byte{
	0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
	0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
}

// PublicKey is an RSA public key used to verify the catalog signature.
// N must not be modified after construction; PublicKey values are shared by
// every Config copy.
type PublicKey struct {
	N *big.Int
	E int
}

// UpdatePublicKey returns the fixed key that signs the official catalog.
func UpdatePublicKey() PublicKey {
	key, err := ParsePublicKey(updateKeyModulus, updateKeyExponent)
	if err != nil {
		// The modulus is a compile-time constant.
		panic(err)
	}
	return key
}

// ParsePublicKey builds a PublicKey from a hex-encoded modulus and exponent.
func ParsePublicKey(modulusHex string, e int) (PublicKey, error) {
	n, ok := new(big.Int).SetString(modulusHex, 16)
	if !ok || n.Sign() <= 0 {
		return PublicKey{}, fmt.Errorf("invalid RSA modulus %q", modulusHex)
	}
	if e < 3 {
		return PublicKey{}, errors.New("invalid RSA public exponent")
	}
	return PublicKey{N: n, E: e}, nil
}

// Size returns the modulus length in bytes.
func (k PublicKey) Size() int {
	if k.N == nil {
		return 0
	}
	return (k.N.BitLen() + 7) / 8
}

// Verify reports whether signatureHex is a valid PKCS#1 v1.5 SHA-256
// signature of message under k. The signature is decoded as a big-endian
// integer s, raised to e modulo n, and rendered at the modulus width; the
// result must equal 0x00 0x01 FF..FF 0x00 DigestInfo(SHA-256) digest byte for
// byte. Any decoding problem yields false.
func (k PublicKey) Verify(message []byte, signatureHex string) bool {
	size := k.Size()
	if size == 0 || k.E < 3 {
		return false
	}

	// Keys too small to hold the padding and DigestInfo never verify.
	if size < len(sha256DigestInfo)+sha256.Size+11 {
		return false
	}

	signatureHex = strings.TrimSpace(signatureHex)
	if signatureHex == "" {
		return false
	}
	s, ok := new(big.Int).SetString(signatureHex, 16)
	if !ok || s.Sign() < 0 {
		return false
	}

	r := new(big.Int).Exp(s, big.NewInt(int64(k.E)), k.N)
	got := r.FillBytes(make([]byte, size))

	return bytes.Equal(got, expectedEncoding(message, size))
}

// expectedEncoding builds the EMSA-PKCS1-v1_5 encoding of message's SHA-256
// digest at the given width.
func expectedEncoding(message []byte, size int) []byte {
	digest := sha256.Sum256(message)

	tLen := len(sha256DigestInfo) + len(digest)
	em := make([]byte, size)
	em[1] = 0x01
	for i := 2; i < size-tLen-1; i++ {
		em[i] = 0xff
	}
	copy(em[size-tLen:], sha256DigestInfo)
	copy(em[size-len(digest):], digest[:])
	return em
}
