package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List characters and their canonical filenames",
	Long: `List the characters fetch will process, in order, with the filename
each one is stored under.

Examples:
  skinsync catalog
  SKINSYNC_CHARACTERS="Shelly,El Primo" skinsync catalog`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cat := cfg.Catalog()

	width := len("NAME")
	for _, e := range cat {
		width = max(width, len(e.Name))
	}

	fmt.Fprintf(out, "%-*s  %s\n", width, "NAME", "FILENAME")
	for _, e := range cat {
		fmt.Fprintf(out, "%-*s  %s\n", width, e.Name, e.Filename())
	}
	fmt.Fprintf(out, "\n%d characters\n", len(cat))
	return nil
}
