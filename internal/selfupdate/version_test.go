// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"cmp"
	"errors"
	"slices"
	"testing"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{in: "2021.12.17", want: Version{2021, 12, 17}},
		{in: "2021.01.08", want: Version{2021, 1, 8}},
		{in: " 1.0\n", want: Version{1, 0}},
		{in: "7", want: Version{7}},
		{in: "", wantErr: true},
		{in: "1..2", wantErr: true},
		{in: "1.2.", wantErr: true},
		{in: "v1.2", wantErr: true},
		{in: "1.-2", wantErr: true},
		{in: "1.+2", wantErr: true},
		{in: "dev", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseVersion(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidVersion) {
					t.Fatalf("ParseVersion(%q) error = %v, want ErrInvalidVersion", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.in, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{a: "2.9.0", b: "2.10.0", want: -1},
		{a: "2.10", b: "2.10.1", want: -1},
		{a: "1.0.0", b: "1.0.0", want: 0},
		{a: "2021.01.08", b: "2021.1.8", want: 0},
		{a: "100.0.0", b: "2.0.1", want: 1},
		{a: "1.0.0", b: "1.0", want: 1},
	}

	for _, tt := range tests {
		a, b := MustParseVersion(tt.a), MustParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := b.Compare(a); got != -tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
		if got := a.Less(b); got != (tt.want < 0) {
			t.Errorf("Less(%s, %s) = %v", tt.a, tt.b, got)
		}
		if got := a.Equal(b); got != (tt.want == 0) {
			t.Errorf("Equal(%s, %s) = %v", tt.a, tt.b, got)
		}
	}
}

func TestVersion_TotalOrder(t *testing.T) {
	t.Parallel()

	sorted := []Version{
		{1}, {1, 0}, {1, 0, 0}, {1, 0, 1}, {1, 2}, {1, 10}, {2}, {2, 0, 1}, {100, 0, 0},
	}
	shuffled := []Version{sorted[5], sorted[0], sorted[8], sorted[3], sorted[1], sorted[7], sorted[2], sorted[6], sorted[4]}

	slices.SortFunc(shuffled, Version.Compare)
	for i := range sorted {
		if !shuffled[i].Equal(sorted[i]) {
			t.Fatalf("sorted order = %v, want %v", shuffled, sorted)
		}
	}

	for i := range sorted {
		for j := range sorted {
			if got, want := sorted[i].Compare(sorted[j]), cmp.Compare(i, j); got != want {
				t.Errorf("Compare(%v, %v) = %d, want %d", sorted[i], sorted[j], got, want)
			}
		}
	}
}

func TestVersion_String(t *testing.T) {
	t.Parallel()

	if got := MustParseVersion("2021.01.08").String(); got != "2021.1.8" {
		t.Errorf("String() = %q, want %q", got, "2021.1.8")
	}
}

func TestMustParseVersion_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustParseVersion did not panic on invalid input")
		}
	}()
	MustParseVersion("not-a-version")
}
