// Package relevance scores mandate paragraphs against an entity's
// programme narrative: which paragraphs actually give the entity
// something to do. Scoring is delegated to Claude, one call per
// entity-mandate pair.
package relevance

import (
	"fmt"
	"strings"

	"github.com/ppb-analytics/ppbtree/internal/entities"
	"github.com/ppb-analytics/ppbtree/internal/parse"
)

// markdownHeadings are the block types rendered as "## " headings when
// flattening, so the narrative keeps its visible structure.
var markdownHeadings = map[parse.BlockType]bool{
	parse.Heading:    true,
	parse.HeadingSub: true,
	parse.HeadingX:   true,
	parse.AB:         true,
}

// FlattenContent renders an entity's content tree as indented plain
// text for the prompt. Tables are elided down to a marker; their cell
// grids add noise without adding mandate signal.
func FlattenContent(ec *entities.EntityContent) string {
	var lines []string
	for _, node := range ec.Content {
		flattenNode(node, 0, &lines)
	}
	return strings.Join(lines, "\n")
}

func flattenNode(node *parse.Node, depth int, lines *[]string) {
	indent := strings.Repeat("  ", depth)
	if node.Text != nil && *node.Text != "" {
		if markdownHeadings[node.Type] {
			*lines = append(*lines, "\n"+indent+"## "+*node.Text)
		} else {
			*lines = append(*lines, indent+*node.Text)
		}
	}
	if len(node.Table) > 0 {
		*lines = append(*lines, indent+"[Table content present]")
	}
	for _, child := range node.Children {
		flattenNode(child, depth+1, lines)
	}
}

// MandateParagraph is one paragraph of a mandate document as fed to
// the scorer. The index used in results is the paragraph's position in
// the input slice.
type MandateParagraph struct {
	Prefix string `json:"prefix,omitempty"`
	Type   string `json:"paragraph_type,omitempty"`
	Text   string `json:"text"`
}

// FormatParagraphs renders mandate paragraphs as a numbered list the
// model can reference by index. Empty paragraphs keep their index but
// produce no line.
func FormatParagraphs(paras []MandateParagraph) string {
	var lines []string
	for i, p := range paras {
		if p.Text == "" {
			continue
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%d]", i)
		if p.Prefix != "" {
			sb.WriteString(" " + p.Prefix)
		}
		if p.Type != "" {
			sb.WriteString(" [" + p.Type + "]")
		}
		sb.WriteString(": " + p.Text)
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n\n")
}
