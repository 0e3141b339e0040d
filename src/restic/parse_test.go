package restic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"restic-browser/src/restic"
)

func TestParseSnapshots(t *testing.T) {
	output := `[{"time":"2024-03-01T10:00:00.5+01:00","tree":"abc","paths":["/home"],"hostname":"box","username":"me",` +
		`"tags":["daily","kind=home"],"id":"0123456789abcdef","short_id":"01234567"}]`
	snaps, err := restic.ParseSnapshots(output)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []restic.Snapshot{{
		ID:       "0123456789abcdef",
		ShortID:  "01234567",
		Time:     time.Date(2024, 3, 1, 9, 0, 0, 500000000, time.UTC),
		Paths:    []string{"/home"},
		Tags:     []string{"daily", "kind=home"},
		Hostname: "box",
		Username: "me",
	}}
	if diff := cmp.Diff(want, snaps, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("unexpected snapshots (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"daily": "", "kind": "home"}, snaps[0].TagMap()); diff != "" {
		t.Fatalf("unexpected tag map (-want +got):\n%s", diff)
	}
}

func TestParseSnapshots_EmptyAndNull(t *testing.T) {
	for _, output := range []string{"[]", "null"} {
		snaps, err := restic.ParseSnapshots(output)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", output, err)
		}
		if len(snaps) != 0 {
			t.Fatalf("%s: expected no snapshots, got %v", output, snaps)
		}
	}
}

func TestParseSnapshots_Malformed(t *testing.T) {
	_, err := restic.ParseSnapshots("repository 1234 opened\n[]")
	var decodeErr *restic.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestParseFileListing(t *testing.T) {
	output := "banner\n" +
		`{"name":"a","type":"file","path":"/a"}` + "\n" +
		"\n" +
		" garbage-without-brace \n" +
		`{"name":"b","type":"dir","path":"/b"}`
	files, err := restic.ParseFileListing(output)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []restic.File{
		{Name: "a", Type: "file", Path: "/a"},
		{Name: "b", Type: "dir", Path: "/b"},
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}
	if files[0].IsDir() || !files[1].IsDir() {
		t.Fatalf("unexpected IsDir results for %v", files)
	}
}

func TestParseFileListing_FirstLineAlwaysSkipped(t *testing.T) {
	output := `{"name":"snap","type":"","path":"","struct_type":"snapshot"}` + "\r\n" +
		`{"name":"a","type":"file","path":"/a","size":42,"mode":420}` + "\r\n"
	files, err := restic.ParseFileListing(output)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []restic.File{{Name: "a", Type: "file", Path: "/a", Size: 42, Mode: 420}}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}
}

func TestParseFileListing_MalformedLineFailsListing(t *testing.T) {
	output := "banner\n" +
		`{"name":"a","type":"file","path":"/a"}` + "\n" +
		`{"name":}` + "\n" +
		`{"name":"b","type":"dir","path":"/b"}`
	files, err := restic.ParseFileListing(output)
	var decodeErr *restic.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if files != nil {
		t.Fatalf("expected no partial results, got %v", files)
	}
}

func TestParseFileListing_Empty(t *testing.T) {
	files, err := restic.ParseFileListing("")
	if err != nil || len(files) != 0 {
		t.Fatalf("expected empty listing, got %v, %v", files, err)
	}
}
