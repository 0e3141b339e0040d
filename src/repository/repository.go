// Package repository implements a browsing session on a single restic
// repository: listing snapshots and files, dumping and restoring files.
package repository

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"restic-browser/src/restic"
	"restic-browser/src/util/progress"
)

// Command groups. A new listing of a group aborts the previous one which is
// still running, so only the latest request of the user gets an answer.
const (
	GroupSnapshots = "snapshots"
	GroupFiles     = "files"
)

var (
	// ErrInvalidSnapshot is returned for snapshot ids which are not part of
	// the last snapshot listing.
	ErrInvalidSnapshot = errors.New("invalid snapshot id")
	// ErrFileNotFound is returned when a path does not exist in a snapshot.
	ErrFileNotFound = errors.New("file not found in snapshot")
	// ErrTargetExists is returned when a dump would overwrite an existing file.
	ErrTargetExists = errors.New("target file already exists")
	// ErrUnsupportedVersion is returned when the restic binary is too old for
	// the requested operation.
	ErrUnsupportedVersion = errors.New("restic version not supported")
)

var zipVersion = restic.MustParseVersion(restic.RequiredVersion)

// Repository is an open browsing session. It is safe for concurrent use.
type Repository struct {
	prog     *restic.Program
	loc      restic.Location
	log      logrus.FieldLogger
	progress io.Writer

	mu        sync.RWMutex
	snapshots map[string]restic.Snapshot
	tempDir   string
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Repository) { r.log = l }
}

// WithProgress makes dumps report their progress to out.
func WithProgress(out io.Writer) Option {
	return func(r *Repository) { r.progress = out }
}

// Open starts a session for loc. It does not run restic: a repository which
// does not exist or cannot be decrypted is reported by the first listing.
func Open(prog *restic.Program, loc restic.Location, opts ...Option) (*Repository, error) {
	if prog == nil || prog.Path() == "" {
		return nil, restic.ErrNoBinary
	}
	if !loc.IsSet() {
		return nil, restic.ErrNoRepository
	}
	r := &Repository{prog: prog, loc: loc}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	r.log = r.log.WithField("repository", loc.Repository())
	return r, nil
}

// Location returns the location the session was opened with.
func (r *Repository) Location() restic.Location { return r.loc }

// Snapshots lists all snapshots, oldest first, and remembers their ids for
// later lookups.
func (r *Repository) Snapshots(ctx context.Context) ([]restic.Snapshot, error) {
	out, err := r.prog.Run(ctx, r.loc, []string{"snapshots", "--json"}, GroupSnapshots)
	if err != nil {
		return nil, errors.Wrap(err, "restic: list snapshots")
	}
	snaps, err := restic.ParseSnapshots(out)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].Time.Before(snaps[j].Time) })

	cache := make(map[string]restic.Snapshot, len(snaps))
	for _, s := range snaps {
		cache[s.ID] = s
	}
	r.mu.Lock()
	r.snapshots = cache
	r.mu.Unlock()
	r.log.Debugf("listed %d snapshots", len(snaps))
	return snaps, nil
}

// Snapshot returns the snapshot with the given full or short id from the last
// listing. Snapshots are listed first when the session has no listing yet.
func (r *Repository) Snapshot(ctx context.Context, id string) (restic.Snapshot, error) {
	r.mu.RLock()
	listed := r.snapshots != nil
	r.mu.RUnlock()
	if !listed {
		if _, err := r.Snapshots(ctx); err != nil {
			return restic.Snapshot{}, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.snapshots[id]; ok {
		return s, nil
	}
	for _, s := range r.snapshots {
		if id != "" && s.ShortID == id {
			return s, nil
		}
	}
	return restic.Snapshot{}, errors.Wrapf(ErrInvalidSnapshot, "%q", id)
}

// Files lists the nodes below dir in the given snapshot. An empty dir lists
// the snapshot root.
func (r *Repository) Files(ctx context.Context, snapshotID, dir string) ([]restic.File, error) {
	snap, err := r.Snapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = "/"
	}
	out, err := r.prog.Run(ctx, r.loc, []string{"ls", snap.ID, "--json", dir}, GroupFiles)
	if err != nil {
		return nil, errors.Wrapf(err, "restic: list files of %s", snap.ShortID)
	}
	return restic.ParseFileListing(out)
}

// Stat returns the node at p in the given snapshot.
func (r *Repository) Stat(ctx context.Context, snapshotID, p string) (restic.File, error) {
	p = path.Clean("/" + p)
	files, err := r.Files(ctx, snapshotID, p)
	if err != nil {
		return restic.File{}, err
	}
	for _, f := range files {
		if f.Path == p {
			return f, nil
		}
	}
	return restic.File{}, errors.Wrapf(ErrFileNotFound, "%s", p)
}

// DumpFile writes file from the given snapshot into targetDir and returns the
// path of the written file. Directories are dumped as zip archive named
// "<name>.zip". Existing files are never overwritten.
func (r *Repository) DumpFile(ctx context.Context, snapshotID string, file restic.File, targetDir string) (string, error) {
	snap, err := r.Snapshot(ctx, snapshotID)
	if err != nil {
		return "", err
	}
	args, name, err := r.dumpArgs(snap, file)
	if err != nil {
		return "", err
	}
	target := filepath.Join(targetDir, name)
	if err := r.dumpInto(ctx, args, file, target); err != nil {
		return "", err
	}
	return target, nil
}

// DumpFileToTemp works like DumpFile but writes into the session's temporary
// directory. A file which was dumped before is not dumped again.
func (r *Repository) DumpFileToTemp(ctx context.Context, snapshotID string, file restic.File) (string, error) {
	snap, err := r.Snapshot(ctx, snapshotID)
	if err != nil {
		return "", err
	}
	args, name, err := r.dumpArgs(snap, file)
	if err != nil {
		return "", err
	}
	tmp, err := r.ensureTempDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(tmp, snap.ShortID, filepath.FromSlash(path.Dir(file.Path)))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrap(err, "create temp directory")
	}
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}
	if err := r.dumpInto(ctx, args, file, target); err != nil {
		return "", err
	}
	return target, nil
}

// RestoreFile restores file from the given snapshot below targetDir, keeping
// its path within the snapshot, and returns the restored path.
func (r *Repository) RestoreFile(ctx context.Context, snapshotID string, file restic.File, targetDir string) (string, error) {
	snap, err := r.Snapshot(ctx, snapshotID)
	if err != nil {
		return "", err
	}
	args := []string{"restore", snap.ID, "--target", targetDir, "--include", file.Path}
	if _, err := r.prog.Run(ctx, r.loc, args, ""); err != nil {
		return "", errors.Wrapf(err, "restic: restore %s", file.Path)
	}
	r.log.WithField("snapshot", snap.ShortID).Infof("restored %s to %s", file.Path, targetDir)
	return filepath.Join(targetDir, filepath.FromSlash(file.Path)), nil
}

// Close removes the session's temporary files.
func (r *Repository) Close() error {
	r.mu.Lock()
	dir := r.tempDir
	r.tempDir = ""
	r.mu.Unlock()
	if dir == "" {
		return nil
	}
	return errors.Wrap(os.RemoveAll(dir), "remove temp directory")
}

func (r *Repository) dumpArgs(snap restic.Snapshot, file restic.File) ([]string, string, error) {
	if file.Name == "" || file.Path == "" {
		return nil, "", errors.Errorf("cannot dump a node without name or path")
	}
	if !file.IsDir() {
		return []string{"dump", snap.ID, file.Path}, DumpName(file), nil
	}
	if v := r.prog.Version(); !v.AtLeast(zipVersion) {
		return nil, "", errors.Wrapf(ErrUnsupportedVersion,
			"dumping directories needs restic %s or newer, found %s", restic.RequiredVersion, v)
	}
	return []string{"dump", "-a", "zip", snap.ID, file.Path}, DumpName(file), nil
}

// DumpName returns the name of the file a dump of file is written to.
func DumpName(file restic.File) string {
	if file.IsDir() {
		return file.Name + ".zip"
	}
	return file.Name
}

func (r *Repository) dumpInto(ctx context.Context, args []string, file restic.File, target string) error {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return errors.Wrapf(ErrTargetExists, "%s", target)
	}
	if err != nil {
		return errors.Wrap(err, "create dump target")
	}

	var size int64
	if !file.IsDir() {
		size = file.Size
	}
	w := progress.NewWriter(f, size, filepath.Base(target), r.progress)
	runErr := r.prog.RunRedirected(ctx, r.loc, args, "", w)
	closeErr := f.Close()
	if runErr == nil && closeErr != nil {
		runErr = errors.Wrap(closeErr, "close dump target")
	}
	if runErr != nil {
		if err := os.Remove(target); err != nil {
			r.log.Warnf("failed to remove partial dump %s: %v", target, err)
		}
		return errors.Wrapf(runErr, "restic: dump %s", file.Path)
	}
	w.Done()
	r.log.Infof("dumped %s (%d bytes) to %s", file.Path, w.Written(), target)
	return nil
}

func (r *Repository) ensureTempDir() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tempDir != "" {
		return r.tempDir, nil
	}
	dir, err := os.MkdirTemp("", "restic-browser-")
	if err != nil {
		return "", errors.Wrap(err, "create temp directory")
	}
	r.tempDir = dir
	return dir, nil
}

// IsNotRepository reports whether err is restic's complaint about a location
// which does not hold a repository.
func IsNotRepository(err error) bool {
	var cmdErr *restic.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	s := strings.ToLower(cmdErr.Stderr)
	return strings.Contains(s, "is not a repository") ||
		strings.Contains(s, "does not look like a restic repository") ||
		strings.Contains(s, "unable to open config file")
}
