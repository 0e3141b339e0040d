package restic

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RequiredVersion is the oldest restic release that can dump directories as
// zip archives.
const RequiredVersion = "0.12.0"

// BinaryInfo describes a detected restic CLI binary.
type BinaryInfo struct {
	Path    string
	Version Version
}

// Version is a parsed "major.minor.patch[-pre]" version number.
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   string
}

var versionLineRegexp = regexp.MustCompile(`^\S+\s+([0-9]+)\.([0-9]+)\.([0-9]+)(?:-([A-Za-z0-9.]+))?`)

// Detect locates the restic binary on PATH and queries its version. A binary
// whose version cannot be determined is still returned, with a zero Version.
func Detect(ctx context.Context) (BinaryInfo, error) {
	exe, err := FindProgram(ProgramName)
	if err != nil {
		return BinaryInfo{}, fmt.Errorf("restic binary not found on PATH: %w", err)
	}
	ver, _ := QueryVersion(ctx, exe)
	return BinaryInfo{Path: exe, Version: ver}, nil
}

// FindProgram looks up name on PATH and returns its absolute path.
func FindProgram(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	return filepath.Abs(path)
}

// QueryVersion runs `<path> version` and parses the version from the first
// line of its output. The second return value is false when the binary does
// not exist, fails or prints something unexpected.
func QueryVersion(ctx context.Context, path string) (Version, bool) {
	if _, err := os.Stat(path); err != nil {
		return Version{}, false
	}
	// Guard against commands that hang by applying a short timeout.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	var stderr strings.Builder
	cmd := newCommand(ctx, path, "version")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		logrus.WithField("path", path).Warnf("failed to read version info from restic binary: %v %s",
			err, strings.TrimSpace(stderr.String()))
		return Version{}, false
	}
	ver, ok := ParseVersion(string(out))
	if !ok {
		logrus.WithField("path", path).Warn("could not parse restic version output")
	}
	return ver, ok
}

// ParseVersion extracts the version from the first line of `restic version`
// output, which looks like "restic 0.16.4 compiled with go1.21.6 on linux/amd64".
func ParseVersion(output string) (Version, bool) {
	line, _, _ := strings.Cut(output, "\n")
	m := versionLineRegexp.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Version{}, false
	}
	return versionFromMatch(m[1:])
}

// MustParseVersion parses a bare "major.minor.patch[-pre]" string and panics
// when it is malformed. It is meant for constants.
func MustParseVersion(s string) Version {
	v, ok := parseSemVersion(s)
	if !ok {
		panic(errors.Errorf("invalid version %q", s))
	}
	return v
}

// IsCompatible reports whether v can dump directories as zip archives.
func IsCompatible(v Version) bool {
	return v.AtLeast(MustParseVersion(RequiredVersion))
}

// IsZero reports whether no version is known.
func (v Version) IsZero() bool {
	return v == Version{}
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	return s
}

// AtLeast reports whether v is the same as or newer than other.
func (v Version) AtLeast(other Version) bool {
	return v.Compare(other) >= 0
}

// Compare returns -1, 0 or 1 depending on whether v is older than, equal to
// or newer than other. A release is newer than its pre-releases.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	case v.Patch != other.Patch:
		return cmpInt(v.Patch, other.Patch)
	}
	if v.Pre == other.Pre {
		return 0
	}
	if v.Pre == "" {
		return 1
	}
	if other.Pre == "" {
		return -1
	}
	return strings.Compare(v.Pre, other.Pre)
}

func cmpInt(a, b int) int {
	if a > b {
		return 1
	}
	return -1
}

func parseSemVersion(s string) (Version, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, false
	}
	core, pre, _ := strings.Cut(s, "-")
	nums := strings.Split(core, ".")
	if len(nums) != 3 {
		return Version{}, false
	}
	return versionFromMatch([]string{nums[0], nums[1], nums[2], pre})
}

func versionFromMatch(parts []string) (Version, bool) {
	var nums [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Version{}, false
		}
		nums[i] = n
	}
	v := Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}
	if len(parts) > 3 {
		v.Pre = parts[3]
	}
	return v, true
}
