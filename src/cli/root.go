package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// NewRootCmd returns the root cobra command for the restic-browser CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "restic-browser",
		Short:         "Browse restic repositories, dump and restore files from snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	// Subcommands
	cmd.AddCommand(newVersionCmd(stdout))
	cmd.AddCommand(newBackendsCmd(stdout))
	cmd.AddCommand(newSnapshotsCmd(stdout))
	cmd.AddCommand(newLsCmd(stdout))
	cmd.AddCommand(newDumpCmd(stdout))
	cmd.AddCommand(newRestoreCmd(stdout))

	return cmd
}

// Execute runs the CLI with the process stdio. An interrupt aborts the
// running restic command.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
