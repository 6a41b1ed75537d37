package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ppb-analytics/ppbtree/internal/docx"
	"github.com/ppb-analytics/ppbtree/internal/parse"
)

var parseCmd = &cobra.Command{
	Use:   "parse [docx files or directories...]",
	Short: "Parse DOCX files into block trees",
	Long: `Parse reads each .docx file, classifies its paragraphs and tables,
and writes one JSON tree per document to the output directory. A
failure in one document does not stop the others.`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("out", "trees", "output directory for JSON trees")
	parseCmd.Flags().Int("concurrency", 4, "documents parsed in parallel")

	rootCmd.AddCommand(parseCmd)
}

// collectDocx expands the arguments into a sorted list of .docx paths.
func collectDocx(args []string) ([]string, error) {
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
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".docx") {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more .docx files or directories")
	}
	outDir, _ := cmd.Flags().GetString("out")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	files, err := collectDocx(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .docx files found")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	var (
		wg     sync.WaitGroup
		sem    = make(chan struct{}, concurrency)
		mu     sync.Mutex
		failed int
	)
	for _, path := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := parseOne(path, outDir); err != nil {
				fmt.Fprintf(os.Stderr, "parse %s: %v\n", path, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			fmt.Fprintf(os.Stdout, "parsed %s\n", filepath.Base(path))
		}(path)
	}
	wg.Wait()

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(files))
	}
	return nil
}

func parseOne(path, outDir string) error {
	doc, err := docx.ReadFile(path)
	if err != nil {
		return err
	}
	tree := parse.Tree(doc)

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return writeJSONFile(filepath.Join(outDir, stem+".json"), tree)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
