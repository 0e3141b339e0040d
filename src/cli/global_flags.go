package cli

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"restic-browser/src/restic"
	"restic-browser/src/safety"
)

// addGlobalFlags adds persistent safety, logging, binary and repository
// location flags to the root command.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("dry-run", false, "Show planned actions without making changes")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Assume 'yes' to prompts and run non-interactively")
	cmd.PersistentFlags().Bool("force", false, "Replace existing files when dumping")
	cmd.PersistentFlags().String("log-level", "warning", "Log level: debug|info|warning|error")
	cmd.PersistentFlags().String("restic", "", "Path to the restic binary (default: search $PATH)")
	cmd.PersistentFlags().String("rclone", "", "Path to the rclone binary used by rclone repositories (default: search $PATH)")
	cmd.PersistentFlags().AddFlagSet(locationFlags())
}

// locationFlags mirrors restic's own repository flags.
func locationFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("location", pflag.ContinueOnError)
	fs.StringP(restic.ArgRepo, "r", "", "Repository to browse (default: $RESTIC_REPOSITORY)")
	fs.String(restic.ArgRepositoryFile, "", "File to read the repository location from (default: $RESTIC_REPOSITORY_FILE)")
	fs.String(restic.ArgPasswordFile, "", "File to read the repository password from (default: $RESTIC_PASSWORD_FILE)")
	fs.String(restic.ArgPasswordCommand, "", "Shell command to obtain the repository password from (default: $RESTIC_PASSWORD_COMMAND)")
	fs.String(restic.ArgPassword, "", "Repository password (default: $RESTIC_PASSWORD)")
	fs.String(restic.ArgInsecureTLS, "", "Skip TLS certificate verification when connecting to the repository")
	fs.Lookup(restic.ArgInsecureTLS).NoOptDefVal = "true"
	return fs
}

// locationArgs collects the location flags given on the command line. The
// second result is false when none was given.
func locationArgs(cmd *cobra.Command) (restic.Args, bool) {
	args := restic.Args{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case restic.ArgRepo, restic.ArgRepositoryFile, restic.ArgPasswordFile,
			restic.ArgPasswordCommand, restic.ArgPassword, restic.ArgInsecureTLS:
			args[f.Name] = f.Value.String()
		}
	})
	return args, len(args) > 0
}

// getSafetyOptions reads global flags into a safety.Options struct.
func getSafetyOptions(cmd *cobra.Command) safety.Options {
	dry, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
	yes, _ := cmd.Root().PersistentFlags().GetBool("yes")
	force, _ := cmd.Root().PersistentFlags().GetBool("force")
	return safety.Options{DryRun: dry, Yes: yes, Force: force}
}

// newLogger creates the logger for a command run, writing to the command's
// stderr at the level selected by --log-level.
func newLogger(cmd *cobra.Command) (*logrus.Logger, error) {
	name, _ := cmd.Root().PersistentFlags().GetString("log-level")
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --log-level")
	}
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(level)
	return log, nil
}
