package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// render writes v as indented JSON or, for the table format, lets table fill
// a tab aligned writer.
func render(w io.Writer, format string, v any, table func(*tabwriter.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported --output: %s", format)
	}
}
