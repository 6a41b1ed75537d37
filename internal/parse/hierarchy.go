package parse

import (
	"github.com/ppb-analytics/ppbtree/internal/docx"
)

// Node is one node of the nested document tree, in the shape
// downstream consumers index by (block_type, text) paths.
type Node struct {
	Type     BlockType       `json:"block_type"`
	Text     *string         `json:"text"`
	Table    [][]CellContent `json:"table_content"`
	Links    []docx.Link     `json:"hyperlinks"`
	Children []*Node         `json:"children"`
}

// Build regroups the flat ancestry-tagged stream into the nested tree.
// Node 0 is always the frontmatter root. Each level is a single
// grouping pass: elements at exactly the current depth become nodes,
// deeper elements are bucketed under the ancestor entry at that depth,
// so total work is linear per level.
func Build(elements []Element) []*Node {
	return buildLevel(elements, 0)
}

type nodeKey struct {
	bt   BlockType
	text string
}

func buildLevel(elements []Element, level int) []*Node {
	if len(elements) == 0 {
		return []*Node{}
	}

	var atLevel []Element
	children := make(map[nodeKey][]Element)
	for _, el := range elements {
		switch {
		case len(el.Ancestors) == level:
			atLevel = append(atLevel, el)
		case len(el.Ancestors) > level:
			k := nodeKey{bt: el.Ancestors[level].Type, text: el.Ancestors[level].Text}
			children[k] = append(children[k], el)
		}
	}

	nodes := make([]*Node, 0, len(atLevel))
	for _, el := range atLevel {
		k := nodeKey{bt: el.Type, text: el.Text}
		sub := children[k]
		// The first sibling establishing a key claims the children;
		// later identically-labelled siblings get none.
		delete(children, k)

		node := &Node{
			Type:  el.Type,
			Table: el.Table,
			Links: el.Links,
		}
		if el.Type != TableContent {
			text := el.Text
			node.Text = &text
		}
		if len(sub) > 0 {
			node.Children = buildLevel(sub, level+1)
		} else {
			node.Children = []*Node{}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// Tree runs the full pipeline over a read document: annotate the raw
// stream, then nest it.
func Tree(doc *docx.Document) []*Node {
	return Build(Annotate(doc))
}
