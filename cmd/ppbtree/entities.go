package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppb-analytics/ppbtree/internal/entities"
	"github.com/ppb-analytics/ppbtree/internal/parse"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities [tree JSON files or directories...]",
	Short: "Split parsed trees into per-entity extracts",
	Long: `Entities walks parsed block trees, finds the UN entities they
describe, and writes one JSON extract per entity. Section-title and
abbreviation mappings come from optional CSV files.`,
	RunE: runEntities,
}

func init() {
	entitiesCmd.Flags().String("out", "entities", "output directory for entity extracts")
	entitiesCmd.Flags().String("section-mapping", "", "CSV mapping section titles to entity names")
	entitiesCmd.Flags().String("abbreviations", "", "CSV mapping entity names to abbreviations")

	rootCmd.AddCommand(entitiesCmd)
}

func collectJSON(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func runEntities(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more tree JSON files or directories")
	}
	outDir, _ := cmd.Flags().GetString("out")
	mappingPath, _ := cmd.Flags().GetString("section-mapping")
	abbrevPath, _ := cmd.Flags().GetString("abbreviations")

	sectionToEntity, err := entities.LoadSectionMapping(mappingPath)
	if err != nil {
		return err
	}
	abbreviations, err := entities.LoadAbbreviations(abbrevPath)
	if err != nil {
		return err
	}

	files, err := collectJSON(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no tree JSON files found")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	splitter := entities.NewSplitter(sectionToEntity, abbreviations)
	for _, path := range files {
		var tree []*parse.Node
		if err := readJSONFile(path, &tree); err != nil {
			return err
		}
		splitter.AddDocument(filepath.Base(path), tree)
	}

	ents := splitter.Entities()
	for _, ec := range ents {
		name := safeFileStem(ec.EntityAbbrev)
		if err := writeJSONFile(filepath.Join(outDir, name+".json"), ec); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s <- %s\n", name, ec.SourceFile)
	}
	fmt.Fprintf(os.Stdout, "%d entities from %d document(s)\n", len(ents), len(files))
	return nil
}

func safeFileStem(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return '_'
	}, name)
	if safe == "" {
		safe = "unknown"
	}
	return safe
}
