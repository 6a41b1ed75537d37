package docx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Link is a resolved hyperlink: display text plus target URL.
// It serializes as a two-element ["text", "url"] array to match the
// downstream tree contract.
type Link struct {
	Text string
	URL  string
}

func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{l.Text, l.URL})
}

func (l *Link) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("hyperlink pair: %w", err)
	}
	l.Text, l.URL = pair[0], pair[1]
	return nil
}

// NodeKind tags one entry in a paragraph's low-level markup sequence.
// The sequence is what the field-code hyperlink scan walks: field
// boundary markers, field instruction text, and visible run text.
type NodeKind int

const (
	NodeFieldBegin NodeKind = iota
	NodeFieldSeparate
	NodeFieldEnd
	NodeInstrText
	NodeRunText
)

// FieldNode is one tagged node from a paragraph's markup stream, in
// document order. Text is set for NodeInstrText and NodeRunText.
type FieldNode struct {
	Kind NodeKind
	Text string
}

// ElementKind distinguishes the two block-level item types a document
// body produces.
type ElementKind int

const (
	KindParagraph ElementKind = iota
	KindTable
)

// RawElement is one block-level item (paragraph or table) read from
// the document, immutable once produced.
type RawElement struct {
	Kind ElementKind

	// Paragraph fields.
	Text     string      // run text including tabs/breaks, not trimmed
	StyleID  string      // paragraph style identifier ("HCh", "H1", ...)
	Italic   bool        // style-table italic flag for StyleID
	HasImage bool        // embedded drawing/graphic data present
	Links    []Link      // relationship hyperlinks in document order
	Nodes    []FieldNode // low-level markup sequence for field scanning

	// Table fields.
	Rows [][]Cell
}

// Cell is one table cell. It keeps its paragraphs intact so that
// per-paragraph hyperlink extraction applies inside tables.
type Cell struct {
	Paragraphs []RawElement
}

// Text joins the cell's paragraph texts with newlines.
func (c Cell) Text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// Document is the ordered element stream of one parsed .docx body.
type Document struct {
	Elements []RawElement
}
