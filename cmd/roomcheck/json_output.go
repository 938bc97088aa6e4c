package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout. HTML escaping
// is off so data URLs and CJK text stay readable.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
