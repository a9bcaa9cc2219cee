// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a release identifier parsed from a dot-separated string of
// non-negative integers, e.g. "2021.12.17" -> [2021 12 17]. Values are treated
// as immutable once parsed.
type Version []uint64

// ParseVersion parses s (surrounding whitespace is ignored) into a Version.
// Every dot-separated component must be a non-empty decimal number.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty version", ErrInvalidVersion)
	}

	parts := strings.Split(s, ".")
	v := make(Version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		v = append(v, n)
	}
	return v, nil
}

// MustParseVersion is like ParseVersion but panics on error. Intended for
// constants and tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0, or +1 depending on whether v sorts before, equal to,
// or after other. Components are compared left to right; when one version is
// a strict prefix of the other, the shorter one is smaller.
func (v Version) Compare(other Version) int {
	for i := 0; i < len(v) && i < len(other); i++ {
		switch {
		case v[i] < other[i]:
			return -1
		case v[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(v) < len(other):
		return -1
	case len(v) > len(other):
		return 1
	}
	return 0
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other are the same version.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// String renders v back into dot-separated form. Leading zeros present in the
// original input are not preserved.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(parts, ".")
}
