// Package entities regroups a parsed document tree by the budget
// entity each block belongs to. Most section documents carry explicit
// entity headings; single-entity documents are attributed through
// reference CSVs or their file name.
package entities

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// LoadSectionMapping reads the section_title -> entity_long reference
// CSV. A missing file is not an error: attribution falls back to the
// section title itself.
func LoadSectionMapping(path string) (map[string]string, error) {
	return loadColumns(path, "section_title", "entity_long")
}

// LoadAbbreviations reads the entity_long -> entity_abbrev reference
// CSV. Rows with an empty abbreviation are ignored.
func LoadAbbreviations(path string) (map[string]string, error) {
	return loadColumns(path, "entity_long", "entity_abbrev")
}

func loadColumns(path, keyCol, valCol string) (map[string]string, error) {
	out := make(map[string]string)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}
	keyIdx, valIdx := -1, -1
	for i, col := range header {
		switch col {
		case keyCol:
			keyIdx = i
		case valCol:
			valIdx = i
		}
	}
	if keyIdx < 0 || valIdx < 0 {
		return nil, fmt.Errorf("%s: missing %q or %q column", path, keyCol, valCol)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if keyIdx >= len(row) || valIdx >= len(row) {
			continue
		}
		key, val := row[keyIdx], row[valIdx]
		if key != "" && val != "" {
			out[key] = val
		}
	}
	return out, nil
}
