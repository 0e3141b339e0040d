package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"restic-browser/src/restic"
)

func newSnapshotsCmd(stdout io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List the snapshots of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := openRepository(cmd, false)
			if err != nil {
				return err
			}
			defer repo.Close()

			snaps, err := repo.Snapshots(commandContext(cmd))
			if err != nil {
				return describeError(err, repo.Location())
			}
			if snaps == nil {
				snaps = []restic.Snapshot{}
			}
			return render(stdout, output, snaps, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tTIME\tHOST\tTAGS\tPATHS")
				for _, s := range snaps {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ShortID, s.Time.Local().Format("2006-01-02 15:04:05"),
						s.Hostname, strings.Join(s.Tags, ","), strings.Join(s.Paths, ","))
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}
