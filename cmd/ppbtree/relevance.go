package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppb-analytics/ppbtree/internal/analysis"
	"github.com/ppb-analytics/ppbtree/internal/entities"
	"github.com/ppb-analytics/ppbtree/internal/relevance"
)

var relevanceCmd = &cobra.Command{
	Use:   "relevance",
	Short: "Score mandate paragraphs against entity narratives",
	Long: `Relevance sends each entity's flattened programme narrative together
with the paragraphs of every mandate the entity cites to Claude, and
records which paragraphs actually direct work at the entity. Requires
ANTHROPIC_API_KEY.`,
	RunE: runRelevance,
}

func init() {
	relevanceCmd.Flags().String("extracts", "entities", "directory of entity extract JSON files")
	relevanceCmd.Flags().String("mandates", "", "mandate records JSON (required)")
	relevanceCmd.Flags().String("out", "relevance.json", "output path for relevance results")
	relevanceCmd.Flags().String("model", "claude-sonnet-4-5-20250929", "Anthropic model")
	relevanceCmd.Flags().Int("concurrency", 4, "concurrent scoring requests")

	rootCmd.AddCommand(relevanceCmd)
}

func runRelevance(cmd *cobra.Command, args []string) error {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	mandatesPath, _ := cmd.Flags().GetString("mandates")
	if mandatesPath == "" {
		return fmt.Errorf("--mandates is required")
	}
	extractsDir, _ := cmd.Flags().GetString("extracts")
	outPath, _ := cmd.Flags().GetString("out")
	model, _ := cmd.Flags().GetString("model")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	var records []analysis.MandateRecord
	if err := readJSONFile(mandatesPath, &records); err != nil {
		return err
	}
	extracts, err := loadExtracts(extractsDir)
	if err != nil {
		return err
	}

	pairs := buildPairs(records, extracts)
	if len(pairs) == 0 {
		return fmt.Errorf("no entity/mandate pairs to score")
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	client := relevance.NewClient(apiKey, model)
	defer client.Close()
	stats := relevance.NewStats(0)
	runner := relevance.NewRunner(client, stats, log, concurrency)

	result, runErr := runner.Run(cmd.Context(), pairs)
	if err := writeJSONFile(outPath, result); err != nil {
		return err
	}

	snap := stats.Snapshot()
	fmt.Fprintf(os.Stdout, "scored %d pair(s), p50 %.0fms p95 %.0fms\n", snap.Count, snap.P50Ms, snap.P95Ms)
	if runErr != nil {
		return fmt.Errorf("some pairs failed: %w", runErr)
	}
	return nil
}

// loadExtracts indexes entity extracts by abbreviation.
func loadExtracts(dir string) (map[string]*entities.EntityContent, error) {
	files, err := collectJSON([]string{dir})
	if err != nil {
		return nil, err
	}
	out := make(map[string]*entities.EntityContent, len(files))
	for _, path := range files {
		var ec entities.EntityContent
		if err := readJSONFile(path, &ec); err != nil {
			return nil, err
		}
		out[ec.EntityAbbrev] = &ec
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no entity extracts in %s", dir)
	}
	return out, nil
}

// buildPairs crosses each mandate's citing entities with the loaded
// extracts. Entities without an extract are skipped.
func buildPairs(records []analysis.MandateRecord, extracts map[string]*entities.EntityContent) []relevance.Pair {
	flattened := make(map[string]string)
	var pairs []relevance.Pair
	seen := make(map[string]bool)

	for _, rec := range records {
		if rec.FullDocumentSymbol == "" || len(rec.Paragraphs) == 0 {
			continue
		}
		paras := make([]relevance.MandateParagraph, len(rec.Paragraphs))
		for i, p := range rec.Paragraphs {
			paras[i] = relevance.MandateParagraph{Type: p.Type, Text: p.Text}
		}

		for _, entity := range rec.Entities {
			ec, ok := extracts[entity]
			if !ok {
				continue
			}
			key := entity + "\x00" + rec.FullDocumentSymbol
			if seen[key] {
				continue
			}
			seen[key] = true

			text, ok := flattened[entity]
			if !ok {
				text = relevance.FlattenContent(ec)
				flattened[entity] = text
			}
			pairs = append(pairs, relevance.Pair{
				Entity:     entity,
				EntityLong: ec.Entity,
				PPBText:    text,
				Symbol:     rec.FullDocumentSymbol,
				Paragraphs: paras,
			})
		}
	}
	return pairs
}
