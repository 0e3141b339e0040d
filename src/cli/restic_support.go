package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"restic-browser/src/repository"
	"restic-browser/src/restic"
	"restic-browser/src/safety"
)

type resticDetectorFunc func(context.Context) (restic.BinaryInfo, error)
type passwordPromptFunc func(cmd *cobra.Command, repo string) (string, error)

var detectResticFn resticDetectorFunc = restic.Detect
var promptPasswordFn passwordPromptFunc = promptPassword

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// findRestic returns the binary given by --restic or the one found on PATH.
func findRestic(cmd *cobra.Command) (restic.BinaryInfo, error) {
	ctx := commandContext(cmd)
	path, _ := cmd.Root().PersistentFlags().GetString("restic")
	if path == "" {
		return detectResticFn(ctx)
	}
	if _, err := os.Stat(path); err != nil {
		return restic.BinaryInfo{}, errors.Wrap(err, "restic binary")
	}
	version, _ := restic.QueryVersion(ctx, path)
	return restic.BinaryInfo{Path: path, Version: version}, nil
}

// checkResticBinary finds restic and, for commands which dump, asks before
// going on with a version too old for zip archives. An unknown version is
// let through.
func checkResticBinary(cmd *cobra.Command, dumps bool) (restic.BinaryInfo, error) {
	info, err := findRestic(cmd)
	if err != nil {
		return restic.BinaryInfo{}, err
	}
	if !dumps || info.Version.IsZero() || restic.IsCompatible(info.Version) {
		return info, nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: restic %s detected; dumping directories requires %s or newer.\n", info.Version, restic.RequiredVersion)

	opts := getSafetyOptions(cmd)
	if opts.Yes || opts.Force || opts.DryRun {
		return info, nil
	}
	ok, err := safety.Confirm(opts, cmd.InOrStdin(), cmd.OutOrStdout(), "Proceed with unsupported restic version?")
	if err != nil {
		return restic.BinaryInfo{}, err
	}
	if !ok {
		return restic.BinaryInfo{}, errors.New("aborted: restic version is below supported minimum")
	}
	return info, nil
}

// resolveLocation resolves the repository from the location flags, or from
// the environment when no location flag was given.
func resolveLocation(cmd *cobra.Command) (restic.Location, error) {
	ctx := commandContext(cmd)
	var loc restic.Location
	if args, ok := locationArgs(cmd); ok {
		loc = restic.ResolveLocation(ctx, args)
	} else {
		loc = restic.LocationFromEnv(ctx)
	}
	if !loc.IsSet() {
		return loc, errors.Wrap(restic.ErrNoRepository, "use --repo or set RESTIC_REPOSITORY")
	}
	if loc.Password == "" {
		password, err := promptPasswordFn(cmd, loc.Repository())
		if err != nil {
			return loc, err
		}
		loc.Password = password
	}
	return loc, nil
}

// promptPassword reads the password from the terminal. Without a terminal
// the password stays empty and restic reports the problem.
func promptPassword(cmd *cobra.Command, repo string) (string, error) {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return "", nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "enter password for repository %s: ", repo)
	password, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return string(password), nil
}

// openRepository wires a repository session for cmd from the global flags.
// dumps selects the restic version check of checkResticBinary.
func openRepository(cmd *cobra.Command, dumps bool) (*repository.Repository, *logrus.Logger, error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	info, err := checkResticBinary(cmd, dumps)
	if err != nil {
		return nil, nil, err
	}
	loc, err := resolveLocation(cmd)
	if err != nil {
		return nil, nil, err
	}
	rclone, _ := cmd.Root().PersistentFlags().GetString("rclone")
	if rclone == "" {
		rclone, _ = restic.FindProgram(restic.RcloneProgramName)
	}
	prog := restic.NewProgram(info, restic.WithRclone(rclone), restic.WithLogger(log))
	repo, err := repository.Open(prog, loc,
		repository.WithLogger(log),
		repository.WithProgress(cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, err
	}
	return repo, log, nil
}

// describeError adds a hint to errors which restic reports tersely.
func describeError(err error, loc restic.Location) error {
	if repository.IsNotRepository(err) {
		return errors.Wrapf(err, "%s does not look like a restic repository", loc.Repository())
	}
	return err
}

// SetResticDetectorForTest allows tests to stub the restic detection pipeline.
// The returned function restores the previous detector.
func SetResticDetectorForTest(fn resticDetectorFunc) func() {
	prev := detectResticFn
	detectResticFn = fn
	return func() {
		detectResticFn = prev
	}
}

// SetPasswordPromptForTest allows tests to stub the interactive password
// prompt. The returned function restores the previous prompt.
func SetPasswordPromptForTest(fn passwordPromptFunc) func() {
	prev := promptPasswordFn
	promptPasswordFn = fn
	return func() {
		promptPasswordFn = prev
	}
}
