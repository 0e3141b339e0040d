package restic_test

import (
	"context"
	"path/filepath"
	"testing"

	"restic-browser/src/restic"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		want   restic.Version
		wantOK bool
	}{
		{
			name:   "standard output",
			input:  "restic 0.16.4 compiled with go1.21.6 on linux/amd64\n",
			want:   restic.Version{Major: 0, Minor: 16, Patch: 4},
			wantOK: true,
		},
		{
			name:   "prerelease",
			input:  "restic 0.18.1-dev (compiled manually)\n",
			want:   restic.Version{Major: 0, Minor: 18, Patch: 1, Pre: "dev"},
			wantOK: true,
		},
		{
			name:   "other program name",
			input:  "restic.exe 0.12.0 compiled with go1.16 on windows/amd64",
			want:   restic.Version{Major: 0, Minor: 12, Patch: 0},
			wantOK: true,
		},
		{
			name:  "version not on first line",
			input: "some banner\nrestic 0.16.4\n",
		},
		{
			name:  "no match",
			input: "restic version output is unexpected\n",
		},
		{
			name: "empty",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := restic.ParseVersion(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestVersionCompare(t *testing.T) {
	if !restic.IsCompatible(restic.MustParseVersion("0.12.0")) {
		t.Fatalf("expected 0.12.0 to be compatible")
	}
	if !restic.IsCompatible(restic.MustParseVersion("1.0.0")) {
		t.Fatalf("expected newer major version to be compatible")
	}
	if restic.IsCompatible(restic.MustParseVersion("0.11.9")) {
		t.Fatalf("expected older version to be incompatible")
	}
	if restic.IsCompatible(restic.MustParseVersion("0.12.0-rc1")) {
		t.Fatalf("expected prerelease to sort before its release")
	}
	if restic.IsCompatible(restic.Version{}) {
		t.Fatalf("expected unknown version to be incompatible")
	}
	if got := restic.MustParseVersion("0.16.4-dev").String(); got != "0.16.4-dev" {
		t.Fatalf("unexpected string form %q", got)
	}
}

func TestQueryVersion_MissingBinary(t *testing.T) {
	v, ok := restic.QueryVersion(context.Background(), filepath.Join(t.TempDir(), "no-such-restic"))
	if ok || !v.IsZero() {
		t.Fatalf("expected no version for a missing binary, got %v (ok=%v)", v, ok)
	}
}
