package restic

import (
	"context"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"

	"restic-browser/src/textfile"
)

// Argument names understood by ResolveLocation.
const (
	ArgRepositoryFile  = "repository-file"
	ArgRepository      = "repository"
	ArgRepo            = "repo"
	ArgPasswordFile    = "password-file"
	ArgPasswordCommand = "password-command"
	ArgPassword        = "password"
	ArgPass            = "pass"
	ArgInsecureTLS     = "insecure-tls"
)

// Environment variables restic reads its repository settings from.
const (
	EnvRepository      = "RESTIC_REPOSITORY"
	EnvRepositoryFile  = "RESTIC_REPOSITORY_FILE"
	EnvPassword        = "RESTIC_PASSWORD"
	EnvPasswordFile    = "RESTIC_PASSWORD_FILE"
	EnvPasswordCommand = "RESTIC_PASSWORD_COMMAND"
)

// EnvValue is a single environment variable passed to restic.
type EnvValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Location is a resolved repository address together with everything needed
// to access it. A Location is a value: opening another repository creates a
// new one.
type Location struct {
	Prefix      string     `json:"prefix"`
	Path        string     `json:"path"`
	Credentials []EnvValue `json:"credentials"`
	Password    string     `json:"password"`
	InsecureTLS bool       `json:"insecureTls"`
}

// IsSet reports whether the location points to a repository at all.
func (l Location) IsSet() bool {
	return l.Path != ""
}

// Repository returns the address as restic expects it in RESTIC_REPOSITORY:
// the path for local repositories, "prefix:path" otherwise.
func (l Location) Repository() string {
	if l.Prefix == "" {
		return l.Path
	}
	return l.Prefix + ":" + l.Path
}

// Args holds optional location arguments by name. Missing and empty entries
// are treated alike. ArgInsecureTLS is enabled by any non-empty value, even
// "false".
type Args map[string]string

func (a Args) lookup(names ...string) (string, bool) {
	for _, name := range names {
		if v := a[name]; v != "" {
			return v, true
		}
	}
	return "", false
}

// ResolveLocation builds a Location from args. It never fails: unreadable
// files and failing password commands resolve to empty values and it is up to
// the caller to validate the result.
func ResolveLocation(ctx context.Context, args Args) Location {
	var loc Location

	if file, ok := args.lookup(ArgRepositoryFile); ok {
		loc.Path = readValueFile(file)
	} else if repo, ok := args.lookup(ArgRepository, ArgRepo); ok {
		loc.Path = repo
	}

	if file, ok := args.lookup(ArgPasswordFile); ok {
		loc.Password = readValueFile(file)
	} else if command, ok := args.lookup(ArgPasswordCommand); ok {
		loc.Password = runPasswordCommand(ctx, command)
	} else if password, ok := args.lookup(ArgPassword, ArgPass); ok {
		loc.Password = password
	}

	_, loc.InsecureTLS = args.lookup(ArgInsecureTLS)

	if loc.Path != "" {
		loc.applyBackend()
	}
	return loc
}

// LocationFromEnv resolves a Location from the RESTIC_* environment
// variables.
func LocationFromEnv(ctx context.Context) Location {
	return ResolveLocation(ctx, Args{
		ArgRepository:      os.Getenv(EnvRepository),
		ArgRepositoryFile:  os.Getenv(EnvRepositoryFile),
		ArgPassword:        os.Getenv(EnvPassword),
		ArgPasswordFile:    os.Getenv(EnvPasswordFile),
		ArgPasswordCommand: os.Getenv(EnvPasswordCommand),
	})
}

// applyBackend strips the first matching "prefix:" from the path and collects
// that backend's credentials from the environment. Unset variables resolve to
// empty values.
func (l *Location) applyBackend() {
	for _, b := range Backends() {
		stripped, ok := strings.CutPrefix(l.Path, b.Prefix+":")
		if !ok {
			continue
		}
		l.Prefix = b.Prefix
		l.Path = strings.TrimSpace(stripped)
		for _, name := range b.Credentials {
			l.Credentials = append(l.Credentials, EnvValue{Name: name, Value: os.Getenv(name)})
		}
		return
	}
}

func readValueFile(name string) string {
	value, err := textfile.ReadTrimmed(name)
	if err != nil {
		logrus.WithField("file", name).Warnf("failed to read location value: %v", err)
		return ""
	}
	return value
}

func runPasswordCommand(ctx context.Context, command string) string {
	words, err := shellquote.Split(command)
	if err != nil || len(words) == 0 {
		logrus.Warnf("invalid password command: %v", err)
		return ""
	}
	cmd := newCommand(ctx, words[0], words[1:]...)
	out, err := cmd.Output()
	if err != nil {
		logrus.WithField("program", words[0]).Warnf("password command failed: %v", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}
