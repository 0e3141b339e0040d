package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"restic-browser/src/repository"
	"restic-browser/src/safety"
)

func newDumpCmd(stdout io.Writer) *cobra.Command {
	var targetDir string
	cmd := &cobra.Command{
		Use:   "dump <snapshot> <path>",
		Short: "Write a file of a snapshot into a local directory (directories as zip archive)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := openRepository(cmd, true)
			if err != nil {
				return err
			}
			defer repo.Close()
			ctx := commandContext(cmd)

			file, err := repo.Stat(ctx, args[0], args[1])
			if err != nil {
				return describeError(err, repo.Location())
			}
			target := filepath.Join(targetDir, repository.DumpName(file))
			opts := getSafetyOptions(cmd)
			if opts.DryRun {
				fmt.Fprintf(stdout, "Would dump %s to %s\n", file.Path, target)
				return nil
			}

			got, err := repo.DumpFile(ctx, args[0], file, targetDir)
			if errors.Is(err, repository.ErrTargetExists) {
				if err := safety.ConfirmReplace(opts, cmd.InOrStdin(), cmd.OutOrStdout(), target); err != nil {
					return err
				}
				if err := os.Remove(target); err != nil {
					return errors.Wrap(err, "remove existing file")
				}
				got, err = repo.DumpFile(ctx, args[0], file, targetDir)
			}
			if err != nil {
				return describeError(err, repo.Location())
			}
			fmt.Fprintf(stdout, "Dumped %s to %s\n", file.Path, got)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetDir, "target", "t", ".", "Directory to write the file to")
	return cmd
}
