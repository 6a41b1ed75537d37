package analysis

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Citation is one entity's citation of a mandate document.
type Citation struct {
	Entity       string `json:"entity"`
	EntityLong   string `json:"entity_long"`
	SectionTitle string `json:"section_title,omitempty"`
}

// Paragraph is one paragraph attached to a mandate record.
type Paragraph struct {
	Text string `json:"text"`
	Type string `json:"block_type,omitempty"`
}

// MandateRecord is one mandate with its citing entities and source
// paragraphs. Augment fills the two derived fields.
type MandateRecord struct {
	FullDocumentSymbol string                 `json:"full_document_symbol"`
	Description        string                 `json:"description,omitempty"`
	CitationInfo       []Citation             `json:"citation_info,omitempty"`
	Entities           []string               `json:"entities,omitempty"`
	Paragraphs         []Paragraph            `json:"paragraphs,omitempty"`
	RecurrenceActions  []RecurrenceAction     `json:"recurrence_actions,omitempty"`
	EntityMentions     map[string][]Paragraph `json:"entity_mentioning_paragraphs,omitempty"`
}

// OutdatedCitation is one citation of a recurring resolution that has
// a newer version in its series.
type OutdatedCitation struct {
	Entity            string   `json:"entity"`
	EntityLong        string   `json:"entity_long"`
	CitedSymbol       string   `json:"cited_symbol"`
	CitedYear         int      `json:"cited_year"`
	GroupTitle        string   `json:"group_title"`
	NewerCitedSymbols []string `json:"newer_cited_symbols"`
	LatestSymbol      string   `json:"latest_symbol"`
	Description       string   `json:"description,omitempty"`
}

// RecurrenceAction is the per-entity update advice attached to an
// augmented mandate record.
type RecurrenceAction struct {
	Entity            string   `json:"entity"`
	NewerCitedSymbols []string `json:"newer_cited_symbols"`
	LatestSymbol      string   `json:"latest_symbol"`
	GroupTitle        string   `json:"group_title"`
}

// Store holds citations and recurrence series in SQLite so the
// outdated-citation report is a single query. Use ":memory:" for
// throwaway runs.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS citations (
	entity            TEXT NOT NULL,
	entity_long       TEXT,
	symbol            TEXT NOT NULL,
	symbol_normalized TEXT NOT NULL,
	description       TEXT
);
CREATE INDEX IF NOT EXISTS idx_citations_symbol ON citations(symbol_normalized);

CREATE TABLE IF NOT EXISTS recurrence (
	symbol_normalized   TEXT NOT NULL,
	group_title         TEXT NOT NULL,
	year                INTEGER NOT NULL,
	is_recurring        INTEGER NOT NULL DEFAULT 0,
	series_symbol_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_recurrence_symbol ON recurrence(symbol_normalized);
CREATE INDEX IF NOT EXISTS idx_recurrence_group ON recurrence(group_title);
`

// OpenStore opens (or creates) the analysis database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open analysis db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create analysis schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadCitations expands mandate records to one row per citation.
func (s *Store) LoadCitations(records []MandateRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO citations (entity, entity_long, symbol, symbol_normalized, description)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		for _, ci := range rec.CitationInfo {
			entity := ci.Entity
			if entity == "" {
				entity = "N/A"
			}
			_, err := stmt.Exec(entity, ci.EntityLong,
				rec.FullDocumentSymbol, NormalizeSymbol(rec.FullDocumentSymbol),
				rec.Description)
			if err != nil {
				return fmt.Errorf("insert citation: %w", err)
			}
		}
	}
	return tx.Commit()
}

// LoadRecurrenceCSV reads the resolution recurrence series export.
// Expected columns: original_symbol, group_title, year, is_recurring,
// series_symbol_count; extra columns are ignored.
func (s *Store) LoadRecurrenceCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read recurrence header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	for _, col := range []string{"original_symbol", "group_title", "year"} {
		if _, ok := idx[col]; !ok {
			return fmt.Errorf("recurrence csv: missing %q column", col)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO recurrence (symbol_normalized, group_title, year, is_recurring, series_symbol_count)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	field := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read recurrence csv: %w", err)
		}
		year, err := strconv.Atoi(strings.TrimSpace(field(row, "year")))
		if err != nil {
			continue
		}
		recurring := parseBool(field(row, "is_recurring"))
		count, _ := strconv.Atoi(strings.TrimSpace(field(row, "series_symbol_count")))

		_, err = stmt.Exec(NormalizeSymbol(field(row, "original_symbol")),
			field(row, "group_title"), year, recurring, count)
		if err != nil {
			return fmt.Errorf("insert recurrence row: %w", err)
		}
	}
	return tx.Commit()
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "t":
		return true
	}
	return false
}

// Outdated reports every recurrent citation whose series has a newer
// resolution than the one cited, with the newer symbols the same
// entity already cites and the latest symbol in the series. SQLite's
// bare-column MAX picks latest_symbol from the newest row per group.
const outdatedQuery = `
WITH joined AS (
	SELECT c.entity, c.entity_long, c.symbol, c.symbol_normalized, c.description,
	       r.group_title, r.year, r.is_recurring, r.series_symbol_count
	FROM citations c
	JOIN recurrence r ON r.symbol_normalized = c.symbol_normalized
),
latest AS (
	SELECT group_title, MAX(year) AS latest_year, symbol_normalized AS latest_symbol
	FROM recurrence
	GROUP BY group_title
)
SELECT j.entity, COALESCE(j.entity_long, ''), j.symbol, j.year, j.group_title,
       l.latest_symbol,
       COALESCE((
           SELECT GROUP_CONCAT(DISTINCT j2.symbol_normalized)
           FROM joined j2
           WHERE j2.entity = j.entity
             AND j2.group_title = j.group_title
             AND j2.year > j.year
       ), ''),
       COALESCE(j.description, '')
FROM joined j
JOIN latest l ON l.group_title = j.group_title
WHERE (j.is_recurring OR j.series_symbol_count > 1)
  AND j.year < l.latest_year
ORDER BY j.entity, j.group_title, j.symbol`

func (s *Store) Outdated() ([]OutdatedCitation, error) {
	rows, err := s.db.Query(outdatedQuery)
	if err != nil {
		return nil, fmt.Errorf("query outdated citations: %w", err)
	}
	defer rows.Close()

	var out []OutdatedCitation
	for rows.Next() {
		var oc OutdatedCitation
		var newer string
		err := rows.Scan(&oc.Entity, &oc.EntityLong, &oc.CitedSymbol, &oc.CitedYear,
			&oc.GroupTitle, &oc.LatestSymbol, &newer, &oc.Description)
		if err != nil {
			return nil, err
		}
		oc.NewerCitedSymbols = splitSymbols(newer)
		out = append(out, oc)
	}
	return out, rows.Err()
}

// EntityLongNames maps entity short names to their long form, from
// the loaded citations.
func (s *Store) EntityLongNames() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT entity, COALESCE(entity_long, '') FROM citations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var short, long string
		if err := rows.Scan(&short, &long); err != nil {
			return nil, err
		}
		out[short] = long
	}
	return out, rows.Err()
}

func splitSymbols(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
