// Package main is the batch CLI for ppbtree: parse programme-budget
// DOCX files into block trees, split them by entity, and run the
// recurrence and relevance analyses without the HTTP server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ppbtree",
	Short: "Structure extraction for UN programme-budget documents",
	Long: `ppbtree turns proposed-programme-budget DOCX narratives into typed
block trees, splits them by UN entity, and cross-references cited
resolutions against their recurrence series.

Each processing stage is a subcommand: parse, entities, recurrence,
and relevance. The stages exchange plain JSON files so they can be
composed in scripts.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
