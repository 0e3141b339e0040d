package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"restic-browser/src/restic"
)

func newLsCmd(stdout io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "ls <snapshot> [dir]",
		Short: "List the files of a snapshot directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/"
			if len(args) == 2 {
				dir = args[1]
			}
			repo, _, err := openRepository(cmd, false)
			if err != nil {
				return err
			}
			defer repo.Close()

			files, err := repo.Files(commandContext(cmd), args[0], dir)
			if err != nil {
				return describeError(err, repo.Location())
			}
			if files == nil {
				files = []restic.File{}
			}
			return render(stdout, output, files, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "MODE\tSIZE\tMODIFIED\tPATH")
				for _, f := range files {
					size := ""
					if !f.IsDir() {
						size = humanize.IBytes(uint64(f.Size))
					}
					modified := ""
					if !f.Mtime.IsZero() {
						modified = humanize.Time(f.Mtime)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fileMode(f), size, modified, f.Path)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

// fileMode renders restic's numeric mode like ls does.
func fileMode(f restic.File) string {
	mode := os.FileMode(uint32(f.Mode))
	switch f.Type {
	case "dir":
		mode |= os.ModeDir
	case "symlink":
		mode |= os.ModeSymlink
	}
	return mode.String()
}
