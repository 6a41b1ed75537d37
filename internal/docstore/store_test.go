package docstore

import (
	"os"
	"testing"
	"time"

	"github.com/ppb-analytics/ppbtree/internal/entities"
	"github.com/ppb-analytics/ppbtree/internal/parse"
)

func sampleTree() []*parse.Node {
	text := "[Frontmatter]"
	return []*parse.Node{{
		Type:     parse.Frontmatter,
		Text:     &text,
		Children: []*parse.Node{},
	}}
}

func TestStore_SaveGetDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	doc := Document{
		ID:           "01HXAMPLE",
		Filename:     "A_80_6_Sect08.docx",
		IngestedAt:   time.Now().UTC(),
		ElementCount: 1,
		EntityCount:  1,
	}
	ents := []*entities.EntityContent{{
		Entity:       "Office of Legal Affairs",
		EntityAbbrev: "OLA",
		SourceFile:   doc.Filename,
		Content:      []*parse.Node{},
	}}
	if err := s.Save(doc, sampleTree(), ents); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok := s.Get(doc.ID)
	if !ok || got.Filename != doc.Filename {
		t.Fatalf("Get = %+v, %v", got, ok)
	}

	tree, err := s.Tree(doc.ID)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(tree) != 1 || tree[0].Type != parse.Frontmatter {
		t.Errorf("tree = %v", tree)
	}

	loaded, err := s.Entities(doc.ID)
	if err != nil {
		t.Fatalf("Entities: %v", err)
	}
	if len(loaded) != 1 || loaded[0].EntityAbbrev != "OLA" {
		t.Errorf("entities = %v", loaded)
	}

	if err := s.Delete(doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Get(doc.ID); ok {
		t.Error("document still indexed after delete")
	}
	if _, err := s.Tree(doc.ID); !os.IsNotExist(err) {
		t.Errorf("tree after delete: %v", err)
	}
	if err := s.Delete(doc.ID); !os.IsNotExist(err) {
		t.Errorf("second delete: %v", err)
	}
}

func TestStore_ReopenIndexesExisting(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	doc := Document{ID: "01HFIRST", Filename: "first.docx", IngestedAt: time.Now().UTC()}
	if err := s.Save(doc, sampleTree(), nil); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("reopened store has %d documents, want 1", reopened.Len())
	}
	if _, ok := reopened.Get("01HFIRST"); !ok {
		t.Error("document lost on reopen")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"01HA", "01HB", "01HC"} {
		doc := Document{ID: id, IngestedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Save(doc, nil, nil); err != nil {
			t.Fatal(err)
		}
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("got %d documents", len(list))
	}
	if list[0].ID != "01HC" || list[2].ID != "01HA" {
		t.Errorf("order = %v", []string{list[0].ID, list[1].ID, list[2].ID})
	}
}

func TestStore_FindByHash(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	doc := Document{ID: "01HHASH", Filename: "a.docx", ContentHash: "abc123"}
	if err := s.Save(doc, nil, nil); err != nil {
		t.Fatal(err)
	}

	if got, ok := s.FindByHash("abc123"); !ok || got.ID != "01HHASH" {
		t.Errorf("FindByHash = %+v, %v", got, ok)
	}
	if _, ok := s.FindByHash("missing"); ok {
		t.Error("unexpected match for unknown hash")
	}
	if _, ok := s.FindByHash(""); ok {
		t.Error("empty hash must not match")
	}
}

func TestStore_PathTraversalBlocked(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(Document{ID: "../evil"}, nil, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// The sanitized file stays inside the store directory.
	if _, err := os.Stat(s.path("../evil", "meta")); err != nil {
		t.Errorf("sanitized path missing: %v", err)
	}
}
