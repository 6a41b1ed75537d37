package entities

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ppb-analytics/ppbtree/internal/parse"
)

var (
	reLeadingRoman  = regexp.MustCompile(`^[IVXLCDM]+\.\s*`)
	reLeadingNumber = regexp.MustCompile(`^[0-9]+\.\s*`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reUnsafeChars   = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// NormalizeName strips the list numbering from an entity heading
// ("I.\tOffice of Legal Affairs" -> "Office of Legal Affairs") and
// collapses whitespace.
func NormalizeName(name string) string {
	if name == "" {
		return "unknown"
	}
	name = reLeadingRoman.ReplaceAllString(name, "")
	name = reLeadingNumber.ReplaceAllString(name, "")
	return strings.TrimSpace(reWhitespace.ReplaceAllString(name, " "))
}

// NormalizeApostrophes replaces curly apostrophes with the straight
// form so CSV lookups are spelling-insensitive.
func NormalizeApostrophes(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	return strings.ReplaceAll(s, "‘", "'")
}

// Abbreviation resolves the short name used as the output key for an
// entity. Unknown entities fall back to a filename-safe form of the
// entity name itself.
func Abbreviation(name string, abbreviations map[string]string) string {
	if a, ok := abbreviations[NormalizeApostrophes(name)]; ok {
		return a
	}
	if a, ok := abbreviations[name]; ok {
		return a
	}
	return reUnsafeChars.ReplaceAllString(name, "_")
}

// Found is one entity heading located in a document tree, paired with
// the subtree it owns.
type Found struct {
	RawName string
	Node    *parse.Node
}

// FindInDocument locates the entity blocks of a parsed document. An
// entity-group that contains entity children is a container and yields
// those children; one without is itself the entity (sections whose
// roman-numeral heading names a single office).
func FindInDocument(tree []*parse.Node) []Found {
	var out []Found
	for _, node := range tree {
		collectEntities(node, &out)
	}
	return out
}

func collectEntities(node *parse.Node, out *[]Found) {
	switch node.Type {
	case parse.Entity:
		*out = append(*out, Found{RawName: nodeText(node), Node: node})
	case parse.EntityGroup:
		if hasEntityChildren(node) {
			for _, child := range node.Children {
				if child.Type == parse.Entity {
					*out = append(*out, Found{RawName: nodeText(child), Node: child})
				}
			}
		} else {
			*out = append(*out, Found{RawName: nodeText(node), Node: node})
		}
	default:
		for _, child := range node.Children {
			collectEntities(child, out)
		}
	}
}

func hasEntityChildren(node *parse.Node) bool {
	for _, child := range node.Children {
		if child.Type == parse.Entity {
			return true
		}
	}
	return false
}

func nodeText(node *parse.Node) string {
	if node.Text == nil {
		return ""
	}
	return *node.Text
}

// SectionTitle pulls the budget section title out of the frontmatter:
// the heading-x child of a "Section N" heading. Empty when absent.
func SectionTitle(tree []*parse.Node) string {
	for _, node := range tree {
		if node.Type != parse.Frontmatter {
			continue
		}
		for _, child := range node.Children {
			if child.Type != parse.Heading || !strings.HasPrefix(nodeText(child), "Section") {
				continue
			}
			for _, sub := range child.Children {
				if sub.Type == parse.HeadingX {
					return strings.TrimSpace(reWhitespace.ReplaceAllString(nodeText(sub), " "))
				}
			}
		}
	}
	return ""
}

// ContentBlocks returns the document's top-level content, excluding
// frontmatter and annexes.
func ContentBlocks(tree []*parse.Node) []*parse.Node {
	out := make([]*parse.Node, 0, len(tree))
	for _, node := range tree {
		if node.Type == parse.Frontmatter || node.Type == parse.Annex {
			continue
		}
		out = append(out, node)
	}
	return out
}

// skipIndicators marks document variants that carry no entity
// narrative: plan outlines, income sections, chapeaux and corrigenda.
var skipIndicators = []string{"PLANOUTLINE", "INCOMESECT", "CHAPEAU", "CORR"}

// SkipFile reports whether the named document should be excluded from
// entity extraction.
func SkipFile(name string) bool {
	upper := strings.ToUpper(name)
	for _, ind := range skipIndicators {
		if strings.Contains(upper, ind) {
			return true
		}
	}
	return false
}

// Single-mission documents whose entity is only identifiable from the
// file name.
var filenameEntities = map[string]string{
	"UNAMA": "United Nations Assistance Mission in Afghanistan",
	"UNAMI": "United Nations Assistance Mission for Iraq",
}

// EntityFromFilename resolves single-mission documents by the acronym
// embedded in their file name. Empty when no acronym matches.
func EntityFromFilename(name string) string {
	upper := strings.ToUpper(name)
	for acronym, entity := range filenameEntities {
		if strings.Contains(upper, "_"+acronym+"_") || strings.Contains(upper, "_"+acronym+".") {
			return entity
		}
	}
	return ""
}

// EntityContent is one entity's regrouped narrative, the unit the
// downstream analyses consume.
type EntityContent struct {
	Entity       string        `json:"entity"`
	EntityAbbrev string        `json:"entity_abbrev"`
	EntityRaw    string        `json:"entity_raw_name"`
	SectionTitle string        `json:"section_title,omitempty"`
	SourceFile   string        `json:"source_file"`
	Content      []*parse.Node `json:"content"`
}

// Splitter accumulates per-entity content across a set of parsed
// documents. The first document claiming an abbreviation wins; later
// duplicates are ignored.
type Splitter struct {
	SectionToEntity map[string]string
	Abbreviations   map[string]string

	byAbbrev map[string]*EntityContent
	order    []string
}

func NewSplitter(sectionToEntity, abbreviations map[string]string) *Splitter {
	return &Splitter{
		SectionToEntity: sectionToEntity,
		Abbreviations:   abbreviations,
		byAbbrev:        make(map[string]*EntityContent),
	}
}

// AddDocument regroups one parsed document. fileName is the source
// document's base name, used for skip detection and filename-based
// attribution.
func (s *Splitter) AddDocument(fileName string, tree []*parse.Node) {
	if SkipFile(fileName) {
		return
	}

	found := FindInDocument(tree)
	if len(found) > 0 {
		for _, f := range found {
			name := NormalizeName(f.RawName)
			s.add(&EntityContent{
				Entity:       name,
				EntityAbbrev: Abbreviation(name, s.Abbreviations),
				EntityRaw:    f.RawName,
				SourceFile:   fileName,
				Content:      f.Node.Children,
			})
		}
		return
	}

	// Single-entity document: file name first, then the frontmatter
	// section title, then the bare file stem.
	entityName := EntityFromFilename(fileName)
	sectionTitle := SectionTitle(tree)
	if entityName == "" {
		if sectionTitle == "" {
			sectionTitle = strings.TrimSuffix(fileName, filepath.Ext(fileName))
		}
		if mapped, ok := s.SectionToEntity[sectionTitle]; ok {
			entityName = mapped
		} else {
			entityName = sectionTitle
		}
	}

	name := NormalizeName(entityName)
	s.add(&EntityContent{
		Entity:       name,
		EntityAbbrev: Abbreviation(name, s.Abbreviations),
		EntityRaw:    entityName,
		SectionTitle: sectionTitle,
		SourceFile:   fileName,
		Content:      ContentBlocks(tree),
	})
}

func (s *Splitter) add(ec *EntityContent) {
	if _, ok := s.byAbbrev[ec.EntityAbbrev]; ok {
		return
	}
	s.byAbbrev[ec.EntityAbbrev] = ec
	s.order = append(s.order, ec.EntityAbbrev)
}

// Entities returns the accumulated entity contents in first-seen order.
func (s *Splitter) Entities() []*EntityContent {
	out := make([]*EntityContent, 0, len(s.order))
	for _, abbrev := range s.order {
		out = append(out, s.byAbbrev[abbrev])
	}
	return out
}

// Get returns the content accumulated for an abbreviation.
func (s *Splitter) Get(abbrev string) (*EntityContent, bool) {
	ec, ok := s.byAbbrev[abbrev]
	return ec, ok
}
