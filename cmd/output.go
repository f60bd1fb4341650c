package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
)

func outputFormat(cmd *cobra.Command) (string, error) {
	f, _ := cmd.Flags().GetString("format")
	switch f {
	case formatCSV, formatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want csv or json)", f)
	}
}

// render writes v as indented JSON, or via csvFn.
func render(w io.Writer, format string, v any, csvFn func(io.Writer) error) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return csvFn(w)
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", formatCSV, "Output format (csv or json)")
}
