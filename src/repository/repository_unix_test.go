//go:build !windows

package repository_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"restic-browser/src/procgroup"
	"restic-browser/src/repository"
	"restic-browser/src/restic"
)

const (
	firstID  = "aaaa1111bbbb2222cccc3333dddd4444eeee5555ffff6666aaaa7777bbbb8888"
	secondID = "1111aaaa2222bbbb3333cccc4444dddd5555eeee6666ffff7777aaaa8888bbbb"
)

// fakeRestic mimics the subset of the restic CLI used by a session.
const fakeRestic = `#!/bin/sh
case "$1" in
snapshots)
	printf '[{"id":"` + secondID + `","short_id":"1111aaaa","time":"2024-03-02T10:00:00Z","paths":["/home"],"hostname":"box"},'
	printf '{"id":"` + firstID + `","short_id":"aaaa1111","time":"2024-03-01T10:00:00Z","paths":["/home"],"hostname":"box"}]\n'
	;;
ls)
	printf '{"time":"2024-03-01T10:00:00Z","paths":["/home"],"struct_type":"snapshot"}\n'
	case "$4" in
	/home/user)
		printf '{"name":"user","type":"dir","path":"/home/user","struct_type":"node"}\n'
		printf '{"name":"notes.txt","type":"file","path":"/home/user/notes.txt","size":5,"struct_type":"node"}\n'
		;;
	*)
		printf '{"name":"home","type":"dir","path":"/home","struct_type":"node"}\n'
		;;
	esac
	;;
dump)
	if [ "$2" = "-a" ]; then printf 'PK-zip-of-%s' "$5"; exit 0; fi
	case "$3" in
	*broken*) printf 'partial'; echo "Fatal: cannot dump $3" >&2; exit 1 ;;
	esac
	printf 'hello'
	;;
restore)
	mkdir -p "$(dirname "$4$6")"
	printf 'restored' > "$4$6"
	;;
*)
	echo "unknown command $1" >&2
	exit 1
	;;
esac
`

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func openTestRepository(t *testing.T, version restic.Version, opts ...repository.Option) *repository.Repository {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "restic")
	if err := os.WriteFile(bin, []byte(fakeRestic), 0o755); err != nil {
		t.Fatal(err)
	}
	prog := restic.NewProgram(restic.BinaryInfo{Path: bin, Version: version},
		restic.WithRegistry(procgroup.NewRegistry(nil, quietLogger())),
		restic.WithLogger(quietLogger()))
	opts = append([]repository.Option{repository.WithLogger(quietLogger())}, opts...)
	repo, err := repository.Open(prog, restic.Location{Path: "/srv/repo", Password: "pw"}, opts...)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var current = restic.Version{Major: 0, Minor: 16, Patch: 4}

func TestSnapshots_SortedOldestFirst(t *testing.T) {
	repo := openTestRepository(t, current)
	snaps, err := repo.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, s := range snaps {
		ids = append(ids, s.ShortID)
	}
	if diff := cmp.Diff([]string{"aaaa1111", "1111aaaa"}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestSnapshot_Lookup(t *testing.T) {
	repo := openTestRepository(t, current)
	ctx := context.Background()

	// The first lookup lists the snapshots on its own.
	s, err := repo.Snapshot(ctx, "aaaa1111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != firstID {
		t.Fatalf("expected short id to resolve to %s, got %s", firstID, s.ID)
	}
	if _, err := repo.Snapshot(ctx, secondID); err != nil {
		t.Fatalf("expected full id to resolve, got %v", err)
	}
	if _, err := repo.Snapshot(ctx, "deadbeef"); !errors.Is(err, repository.ErrInvalidSnapshot) {
		t.Fatalf("expected invalid snapshot error, got %v", err)
	}
}

func TestFiles(t *testing.T) {
	repo := openTestRepository(t, current)
	files, err := repo.Files(context.Background(), firstID, "/home/user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	if diff := cmp.Diff([]string{"/home/user", "/home/user/notes.txt"}, paths); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}

	root, err := repo.Files(context.Background(), firstID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root) != 1 || root[0].Name != "home" {
		t.Fatalf("expected snapshot root listing, got %+v", root)
	}
}

func TestFiles_InvalidSnapshot(t *testing.T) {
	repo := openTestRepository(t, current)
	if _, err := repo.Files(context.Background(), "nope", "/"); !errors.Is(err, repository.ErrInvalidSnapshot) {
		t.Fatalf("expected invalid snapshot error, got %v", err)
	}
}

func TestStat(t *testing.T) {
	repo := openTestRepository(t, current)
	f, err := repo.Stat(context.Background(), firstID, "home/user/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsDir() {
		t.Fatalf("expected directory, got %+v", f)
	}
	if _, err := repo.Stat(context.Background(), firstID, "/etc"); !errors.Is(err, repository.ErrFileNotFound) {
		t.Fatalf("expected file not found, got %v", err)
	}
}

func TestDumpFile(t *testing.T) {
	var progressOut bytes.Buffer
	repo := openTestRepository(t, current, repository.WithProgress(&progressOut))
	target := t.TempDir()
	file := restic.File{Name: "notes.txt", Type: "file", Path: "/home/user/notes.txt", Size: 5}

	got, err := repo.DumpFile(context.Background(), firstID, file, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(target, "notes.txt") {
		t.Fatalf("unexpected target path %s", got)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected dump content %q", data)
	}
	if !strings.Contains(progressOut.String(), "100.0%") {
		t.Fatalf("expected progress output, got %q", progressOut.String())
	}

	if _, err := repo.DumpFile(context.Background(), firstID, file, target); !errors.Is(err, repository.ErrTargetExists) {
		t.Fatalf("expected second dump to refuse overwriting, got %v", err)
	}
	data, _ = os.ReadFile(got)
	if string(data) != "hello" {
		t.Fatalf("existing file must be left alone, got %q", data)
	}
}

func TestDumpFile_Directory(t *testing.T) {
	repo := openTestRepository(t, current)
	target := t.TempDir()
	dir := restic.File{Name: "user", Type: "dir", Path: "/home/user"}

	got, err := repo.DumpFile(context.Background(), firstID, dir, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(got) != "user.zip" {
		t.Fatalf("expected zip archive, got %s", got)
	}
	data, _ := os.ReadFile(got)
	if string(data) != "PK-zip-of-/home/user" {
		t.Fatalf("unexpected archive content %q", data)
	}
}

func TestDumpFile_DirectoryNeedsRecentRestic(t *testing.T) {
	repo := openTestRepository(t, restic.Version{Major: 0, Minor: 11, Patch: 0})
	target := t.TempDir()
	dir := restic.File{Name: "user", Type: "dir", Path: "/home/user"}

	if _, err := repo.DumpFile(context.Background(), firstID, dir, target); !errors.Is(err, repository.ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported version, got %v", err)
	}
	entries, _ := os.ReadDir(target)
	if len(entries) != 0 {
		t.Fatalf("expected no file to be created, got %v", entries)
	}
}

func TestDumpFile_FailureRemovesPartialFile(t *testing.T) {
	repo := openTestRepository(t, current)
	target := t.TempDir()
	file := restic.File{Name: "broken.bin", Type: "file", Path: "/home/user/broken.bin"}

	_, err := repo.DumpFile(context.Background(), firstID, file, target)
	var cmdErr *restic.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected command error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(target, "broken.bin")); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial dump to be removed, got %v", statErr)
	}
}

func TestDumpFileToTemp_ReusedAndRemovedOnClose(t *testing.T) {
	repo := openTestRepository(t, current)
	file := restic.File{Name: "notes.txt", Type: "file", Path: "/home/user/notes.txt", Size: 5}

	first, err := repo.DumpFileToTemp(context.Background(), firstID, file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := repo.DumpFileToTemp(context.Background(), "aaaa1111", file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected the temp dump to be reused: %s vs %s", first, second)
	}
	if !strings.Contains(filepath.ToSlash(first), "/aaaa1111/home/user/notes.txt") {
		t.Fatalf("unexpected temp path %s", first)
	}

	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatalf("expected temp files to be removed on close, got %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("second close must be a no-op, got %v", err)
	}
}

func TestRestoreFile(t *testing.T) {
	repo := openTestRepository(t, current)
	target := t.TempDir()
	file := restic.File{Name: "notes.txt", Type: "file", Path: "/home/user/notes.txt"}

	got, err := repo.RestoreFile(context.Background(), firstID, file, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(target, "home", "user", "notes.txt") {
		t.Fatalf("unexpected restore path %s", got)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "restored" {
		t.Fatalf("unexpected restored content %q", data)
	}
}

func TestIsNotRepository(t *testing.T) {
	notRepo := &restic.CommandError{Stderr: "Fatal: unable to open config file: stat /x/config: no such file or directory\nIs there a repository at the following location?"}
	if !repository.IsNotRepository(notRepo) {
		t.Fatalf("expected missing config to be detected")
	}
	if repository.IsNotRepository(&restic.CommandError{Stderr: "Fatal: wrong password or no key found"}) {
		t.Fatalf("wrong password must not be reported as missing repository")
	}
	if repository.IsNotRepository(restic.ErrCancelled) {
		t.Fatalf("cancellation must not be reported as missing repository")
	}
}
