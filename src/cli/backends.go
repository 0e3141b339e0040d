package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"restic-browser/src/restic"
)

func newBackendsCmd(stdout io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List the repository location types and their credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backends := restic.Backends()
			return render(stdout, output, backends, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "TYPE\tPREFIX\tNAME\tCREDENTIALS")
				for _, b := range backends {
					prefix := b.Prefix + ":"
					if b.Prefix == "" {
						prefix = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Type, prefix, b.DisplayName, strings.Join(b.Credentials, ","))
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}
