package cli

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"restic-browser/src/safety"
)

func newRestoreCmd(stdout io.Writer) *cobra.Command {
	var targetDir string
	cmd := &cobra.Command{
		Use:   "restore <snapshot> <path>",
		Short: "Restore a file or directory of a snapshot below a local directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if targetDir == "" {
				return errors.New("--target is required")
			}
			repo, _, err := openRepository(cmd, false)
			if err != nil {
				return err
			}
			defer repo.Close()
			ctx := commandContext(cmd)

			file, err := repo.Stat(ctx, args[0], args[1])
			if err != nil {
				return describeError(err, repo.Location())
			}
			opts := getSafetyOptions(cmd)
			if opts.DryRun {
				fmt.Fprintf(stdout, "Would restore %s from snapshot %s into %s\n", file.Path, args[0], targetDir)
				return nil
			}
			question := fmt.Sprintf("Restore %s from snapshot %s into %s?", file.Path, args[0], targetDir)
			ok, err := safety.Confirm(opts, cmd.InOrStdin(), cmd.OutOrStdout(), question)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrap(safety.ErrDeclined, "restore")
			}

			got, err := repo.RestoreFile(ctx, args[0], file, targetDir)
			if err != nil {
				return describeError(err, repo.Location())
			}
			fmt.Fprintf(stdout, "Restored %s to %s\n", file.Path, got)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetDir, "target", "t", "", "Directory to restore into (required)")
	return cmd
}
