//go:build integration

// Package restictest provides helpers for tests running against a real
// restic binary.
package restictest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"restic-browser/src/restic"
)

const TestPassword = "browser-itest"

// RequireBinary ensures restic is available and meets the minimum supported version.
func RequireBinary(t testing.TB) restic.BinaryInfo {
	t.Helper()
	info, err := restic.Detect(context.Background())
	if err != nil {
		t.Skipf("restic not available: %v", err)
	}
	if !restic.IsCompatible(info.Version) {
		t.Fatalf("restic version %s is below required %s", info.Version, restic.RequiredVersion)
	}
	return info
}

// Location returns a location for the repository at repo using TestPassword.
func Location(repo string) restic.Location {
	return restic.Location{Path: repo, Password: TestPassword}
}

// InitRepo creates a new restic repository under dir (usually t.TempDir())
// holding one snapshot of the directory returned as second value.
func InitRepo(t testing.TB, dir string) (repo string, source string) {
	t.Helper()
	RequireBinary(t)
	repo = filepath.Join(dir, "repo")
	source = filepath.Join(dir, "source")
	if err := os.MkdirAll(filepath.Join(source, "docs"), 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}
	if err := os.WriteFile(filepath.Join(source, "docs", "readme.txt"), []byte("hello restic\n"), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	run(t, repo, "init")
	run(t, repo, "backup", source)
	return repo, source
}

func run(t testing.TB, repo string, args ...string) {
	t.Helper()
	cmd := exec.Command("restic", args...)
	cmd.Env = append(os.Environ(),
		restic.EnvPassword+"="+TestPassword,
		restic.EnvRepository+"="+repo,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("restic %v failed: %v\n%s", args, err, string(out))
	}
}
