package parse

import (
	"encoding/json"
	"fmt"
)

// BlockType classifies the structural role of one document element.
type BlockType int

const (
	Other BlockType = iota
	Frontmatter
	EntityGroup
	Entity
	AB
	Heading
	Subprogramme
	HeadingSub
	HeadingSubSub
	HeadingSubSubSub
	HeadingX
	List1
	List2
	Italic
	Paragraph1
	Paragraph2
	Paragraph3
	Table
	Figure
	TableContent
	Annex
	Note
	Image
)

var blockTypeNames = map[BlockType]string{
	Other:            "other",
	Frontmatter:      "frontmatter",
	EntityGroup:      "entity-group",
	Entity:           "entity",
	AB:               "a/b",
	Heading:          "heading",
	Subprogramme:     "subprogramme",
	HeadingSub:       "heading-sub",
	HeadingSubSub:    "heading-sub-sub",
	HeadingSubSubSub: "heading-sub-sub-sub",
	HeadingX:         "heading-x",
	List1:            "list-1",
	List2:            "list-2",
	Italic:           "italic",
	Paragraph1:       "paragraph-1",
	Paragraph2:       "paragraph-2",
	Paragraph3:       "paragraph-3",
	Table:            "table",
	Figure:           "figure",
	TableContent:     "table-content",
	Annex:            "annex",
	Note:             "note",
	Image:            "image",
}

var blockTypesByName = func() map[string]BlockType {
	m := make(map[string]BlockType, len(blockTypeNames))
	for bt, name := range blockTypeNames {
		m[name] = bt
	}
	return m
}()

// blockRank is the total order over block types that drives nesting:
// a smaller rank nests higher in the tree. The table mirrors the
// document vocabulary and is maintained by hand; several types share a
// rank on purpose (e.g. annex and entity-group are both top-level).
var blockRank = map[BlockType]int{
	Annex:            0,
	EntityGroup:      0,
	Entity:           1,
	Frontmatter:      2,
	AB:               2,
	Heading:          3,
	Subprogramme:     4,
	HeadingSub:       5,
	HeadingSubSub:    6,
	List1:            7,
	Italic:           8,
	HeadingX:         8,
	Paragraph1:       9,
	Table:            9,
	Figure:           9,
	Paragraph2:       10,
	HeadingSubSubSub: 10,
	List2:            10,
	Paragraph3:       11,
	TableContent:     11,
	Image:            11,
	Note:             11,
	Other:            11,
}

// mergeable marks the types whose consecutive same-type elements are
// headings split across lines and get combined by the state machine.
var mergeable = map[BlockType]bool{
	Annex:            true,
	EntityGroup:      true,
	Entity:           true,
	Frontmatter:      true,
	AB:               true,
	Heading:          true,
	Subprogramme:     true,
	HeadingSub:       true,
	HeadingSubSub:    true,
	HeadingSubSubSub: true,
	HeadingX:         true,
	Table:            true,
	Figure:           true,
}

// Rank returns the block type's position in the nesting total order.
func (b BlockType) Rank() int {
	return blockRank[b]
}

func (b BlockType) String() string {
	if name, ok := blockTypeNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BlockType(%d)", int(b))
}

func (b BlockType) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *BlockType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	bt, ok := blockTypesByName[name]
	if !ok {
		return fmt.Errorf("unknown block type %q", name)
	}
	*b = bt
	return nil
}
