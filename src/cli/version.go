package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"restic-browser/src/version"
)

func newVersionCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(stdout, version.Version)
			withRestic, _ := cmd.Flags().GetBool("restic-version")
			if !withRestic {
				return nil
			}
			info, err := findRestic(cmd)
			if err != nil {
				return err
			}
			if info.Version.IsZero() {
				fmt.Fprintf(stdout, "restic %s (unknown version)\n", info.Path)
				return nil
			}
			fmt.Fprintf(stdout, "restic %s (%s)\n", info.Version, info.Path)
			return nil
		},
	}
	cmd.Flags().Bool("restic-version", false, "Also print the version of the restic binary in use")
	return cmd
}
