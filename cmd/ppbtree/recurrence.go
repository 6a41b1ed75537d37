package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppb-analytics/ppbtree/internal/analysis"
)

var recurrenceCmd = &cobra.Command{
	Use:   "recurrence",
	Short: "Flag outdated resolution citations",
	Long: `Recurrence joins mandate citations against the resolution
recurrence table and reports citations of recurring resolutions that
have a newer version in their series. It writes the outdated-citation
list and a copy of the mandates augmented with per-entity update
actions and entity-mentioning paragraphs.`,
	RunE: runRecurrence,
}

func init() {
	recurrenceCmd.Flags().String("mandates", "", "mandate records JSON (required)")
	recurrenceCmd.Flags().String("recurrence", "", "resolution recurrence CSV (required)")
	recurrenceCmd.Flags().String("db", ":memory:", "SQLite database path")
	recurrenceCmd.Flags().String("outdated", "outdated_citations.json", "output path for outdated citations")
	recurrenceCmd.Flags().String("augmented", "mandates_augmented.json", "output path for augmented mandates")

	rootCmd.AddCommand(recurrenceCmd)
}

func runRecurrence(cmd *cobra.Command, args []string) error {
	mandatesPath, _ := cmd.Flags().GetString("mandates")
	recurrencePath, _ := cmd.Flags().GetString("recurrence")
	if mandatesPath == "" || recurrencePath == "" {
		return fmt.Errorf("--mandates and --recurrence are required")
	}
	dbPath, _ := cmd.Flags().GetString("db")
	outdatedPath, _ := cmd.Flags().GetString("outdated")
	augmentedPath, _ := cmd.Flags().GetString("augmented")

	var records []analysis.MandateRecord
	if err := readJSONFile(mandatesPath, &records); err != nil {
		return err
	}

	store, err := analysis.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.LoadCitations(records); err != nil {
		return err
	}
	f, err := os.Open(recurrencePath)
	if err != nil {
		return err
	}
	err = store.LoadRecurrenceCSV(f)
	f.Close()
	if err != nil {
		return err
	}

	outdated, err := store.Outdated()
	if err != nil {
		return err
	}
	entityLong, err := store.EntityLongNames()
	if err != nil {
		return err
	}
	analysis.Augment(records, outdated, entityLong)

	if err := writeJSONFile(outdatedPath, outdated); err != nil {
		return err
	}
	if err := writeJSONFile(augmentedPath, records); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%d outdated citation(s) across %d mandate(s)\n", len(outdated), len(records))
	return nil
}
