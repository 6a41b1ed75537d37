package parse

import (
	"strings"

	"github.com/ppb-analytics/ppbtree/internal/docx"
)

// PathEntry identifies one ancestor frame: the block type and text of
// a still-open element.
type PathEntry struct {
	Type BlockType
	Text string
}

// CellContent is one table cell in the output contract.
type CellContent struct {
	Text       string      `json:"text"`
	Hyperlinks []docx.Link `json:"hyperlinks"`
}

// Element is one finalized block tagged with its ancestor path. The
// path is the stack snapshot at finalization, excluding the element
// itself, so its length equals the element's nesting depth.
type Element struct {
	Ancestors []PathEntry
	Type      BlockType
	Text      string
	Table     [][]CellContent
	Links     []docx.Link
}

// FrontmatterText labels the synthetic root element that holds
// everything before the first structural heading.
const FrontmatterText = "[Frontmatter]"

// ParserState threads the ancestor stack and the italic scope through
// one document parse. One instance per document, never shared.
type ParserState struct {
	stack     []PathEntry
	italicEnv bool
}

// Annotate consumes the raw element stream in document order and
// produces the flat, ancestry-tagged element stream. It never fails:
// classification is total and every transition is defined.
func Annotate(doc *docx.Document) []Element {
	st := &ParserState{stack: []PathEntry{{Type: Frontmatter, Text: FrontmatterText}}}
	elements := []Element{{Type: Frontmatter, Text: FrontmatterText}}

	for _, raw := range doc.Elements {
		var (
			bt    BlockType
			text  string
			table [][]CellContent
			links []docx.Link
		)
		if raw.Kind == docx.KindTable {
			bt = TableContent
			table = tableContent(raw)
			links = tableLinks(table)
		} else {
			text = strings.TrimSpace(raw.Text)
			bt = Classify(text, raw.StyleID, raw.Italic, raw.HasImage)
			links = ExtractLinks(raw.Links, raw.Nodes)
		}

		// Multi-line merges fold this element into the still-open
		// previous one instead of opening a new frame.
		if prev, top, ok := st.openPrev(elements); ok {
			merged := true
			switch {
			case mergeable[bt] && prev.Type == bt:
				// Headings split over two lines.
				combine(prev, top, prev.Text+" – "+text)
			case (prev.Type == Table || prev.Type == Figure) && bt == HeadingSub:
				// Table/figure captions: number line plus title line.
				combine(prev, top, prev.Text+" "+text)
			case prev.Type == Subprogramme && (bt == HeadingSub || bt == HeadingX) &&
				!strings.Contains(prev.Text, "–"):
				// Subprogramme number line plus its name line.
				combine(prev, top, prev.Text+" – "+text)
			case prev.Type == Annex && bt == Heading:
				combine(prev, top, prev.Text+" "+text)
			default:
				merged = false
			}
			if merged {
				continue
			}
		}

		// Subprogramme structure is disallowed inside the legislative
		// mandates section.
		if bt == Subprogramme && st.hasAncestorText("Legislative mandates") {
			bt = HeadingSubSub
		}

		// An italic heading's scope ends as soon as the next element
		// at paragraph rank or higher arrives.
		if st.italicEnv && bt.Rank() <= Paragraph1.Rank() {
			st.popItalic()
			st.italicEnv = false
		}
		if bt == Italic {
			st.italicEnv = true
		}

		// Nesting depth comes from the rank order alone: pop frames
		// that cannot contain the new element.
		for len(st.stack) > 0 && bt.Rank() <= st.stack[len(st.stack)-1].Type.Rank() {
			st.stack = st.stack[:len(st.stack)-1]
		}

		// Only elements with text survive, except table and image
		// placeholders.
		if text == "" && bt != TableContent && bt != Image {
			continue
		}

		elements = append(elements, Element{
			Ancestors: append([]PathEntry(nil), st.stack...),
			Type:      bt,
			Text:      text,
			Table:     table,
			Links:     links,
		})
		st.stack = append(st.stack, PathEntry{Type: bt, Text: text})
	}
	return elements
}

// openPrev returns the most recently emitted element and its stack
// frame, provided that element is still the open top of the stack.
func (st *ParserState) openPrev(elements []Element) (*Element, *PathEntry, bool) {
	if len(st.stack) == 0 || len(elements) == 0 {
		return nil, nil, false
	}
	prev := &elements[len(elements)-1]
	top := &st.stack[len(st.stack)-1]
	if top.Type != prev.Type || top.Text != prev.Text {
		return nil, nil, false
	}
	return prev, top, true
}

func combine(prev *Element, top *PathEntry, text string) {
	prev.Text = text
	top.Text = text
}

func (st *ParserState) hasAncestorText(text string) bool {
	for _, e := range st.stack {
		if e.Text == text {
			return true
		}
	}
	return false
}

// popItalic pops frames until no italic frame remains on the stack.
func (st *ParserState) popItalic() {
	for i, e := range st.stack {
		if e.Type == Italic {
			st.stack = st.stack[:i]
			return
		}
	}
}

func tableContent(raw docx.RawElement) [][]CellContent {
	rows := make([][]CellContent, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		cells := make([]CellContent, 0, len(row))
		for _, c := range row {
			cellLinks := make([]docx.Link, 0)
			for _, p := range c.Paragraphs {
				cellLinks = append(cellLinks, ExtractLinks(p.Links, p.Nodes)...)
			}
			cells = append(cells, CellContent{Text: c.Text(), Hyperlinks: cellLinks})
		}
		rows = append(rows, cells)
	}
	return rows
}

func tableLinks(rows [][]CellContent) []docx.Link {
	links := make([]docx.Link, 0)
	for _, row := range rows {
		for _, cell := range row {
			links = append(links, cell.Hyperlinks...)
		}
	}
	return links
}
