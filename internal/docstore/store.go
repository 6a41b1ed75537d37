// Package docstore persists parsed documents and their per-entity
// splits as JSON files on disk, with an in-memory index for listing.
package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ppb-analytics/ppbtree/internal/entities"
	"github.com/ppb-analytics/ppbtree/internal/parse"
)

// Document is the stored metadata for one ingested document.
type Document struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	IngestedAt   time.Time `json:"ingested_at"`
	ElementCount int       `json:"element_count"`
	EntityCount  int       `json:"entity_count"`
	ContentHash  string    `json:"content_hash,omitempty"`
}

// Store is a directory of per-document JSON files. All methods are
// safe for concurrent use.
type Store struct {
	dir string

	mu   sync.RWMutex
	docs map[string]Document
}

// Open creates the store directory if needed and indexes any
// documents already present.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{dir: dir, docs: make(map[string]Document)}

	metas, err := filepath.Glob(filepath.Join(dir, "*.meta.json"))
	if err != nil {
		return nil, err
	}
	for _, path := range metas {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		s.docs[doc.ID] = doc
	}
	return s, nil
}

func (s *Store) path(id, kind string) string {
	// IDs are ULIDs generated by the pipeline; reject anything that
	// could escape the store directory.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
	return filepath.Join(s.dir, safe+"."+kind+".json")
}

// Save persists a document's metadata, tree and entity splits.
func (s *Store) Save(doc Document, tree []*parse.Node, ents []*entities.EntityContent) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is empty")
	}
	if err := writeJSON(s.path(doc.ID, "tree"), tree); err != nil {
		return err
	}
	if err := writeJSON(s.path(doc.ID, "entities"), ents); err != nil {
		return err
	}
	if err := writeJSON(s.path(doc.ID, "meta"), doc); err != nil {
		return err
	}

	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()
	return nil
}

// Get returns a document's metadata.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// FindByHash returns the document with the given content hash, if any.
func (s *Store) FindByHash(hash string) (Document, bool) {
	if hash == "" {
		return Document{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if doc.ContentHash == hash {
			return doc, true
		}
	}
	return Document{}, false
}

// List returns all documents, newest first.
func (s *Store) List() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IngestedAt.Equal(out[j].IngestedAt) {
			return out[i].IngestedAt.After(out[j].IngestedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Tree loads a document's parsed tree.
func (s *Store) Tree(id string) ([]*parse.Node, error) {
	var tree []*parse.Node
	if err := readJSON(s.path(id, "tree"), &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Entities loads a document's entity splits.
func (s *Store) Entities(id string) ([]*entities.EntityContent, error) {
	var ents []*entities.EntityContent
	if err := readJSON(s.path(id, "entities"), &ents); err != nil {
		return nil, err
	}
	return ents, nil
}

// Delete removes a document and its files. Deleting an unknown id is
// an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.docs[id]
	delete(s.docs, id)
	s.mu.Unlock()
	if !ok {
		return os.ErrNotExist
	}

	for _, kind := range []string{"tree", "entities", "meta"} {
		if err := os.Remove(s.path(id, kind)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}
	return nil
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
