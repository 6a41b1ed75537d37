// Package report renders a human-readable summary of an ingested
// document: which entities it contains and how much narrative each
// carries.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/ppb-analytics/ppbtree/internal/docstore"
	"github.com/ppb-analytics/ppbtree/internal/entities"
	"github.com/ppb-analytics/ppbtree/internal/parse"
)

type counts struct {
	blocks     int
	paragraphs int
	tables     int
	links      int
}

func tally(node *parse.Node, c *counts) {
	c.blocks++
	switch node.Type {
	case parse.Paragraph1, parse.Paragraph2, parse.Paragraph3:
		c.paragraphs++
	case parse.TableContent:
		c.tables++
	}
	c.links += len(node.Links)
	for _, row := range node.Table {
		for _, cell := range row {
			c.links += len(cell.Hyperlinks)
		}
	}
	for _, child := range node.Children {
		tally(child, c)
	}
}

// topHeadings collects the first structural headings of an entity's
// content, for the report outline.
func topHeadings(content []*parse.Node, limit int) []string {
	var out []string
	var walk func(nodes []*parse.Node)
	walk = func(nodes []*parse.Node) {
		for _, n := range nodes {
			if len(out) >= limit {
				return
			}
			switch n.Type {
			case parse.AB, parse.Heading, parse.HeadingSub, parse.Subprogramme:
				if n.Text != nil && *n.Text != "" {
					out = append(out, *n.Text)
				}
			}
			walk(n.Children)
		}
	}
	walk(content)
	return out
}

// BuildMarkdown renders the document summary as markdown.
func BuildMarkdown(doc docstore.Document, ents []*entities.EntityContent) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", doc.Filename)
	fmt.Fprintf(&sb, "Ingested %s. %d block elements, %d entities.\n\n",
		doc.IngestedAt.Format("2006-01-02 15:04 MST"), doc.ElementCount, len(ents))

	if len(ents) == 0 {
		sb.WriteString("No entities were found in this document.\n")
		return sb.String()
	}

	for _, ec := range ents {
		fmt.Fprintf(&sb, "## %s (%s)\n\n", ec.Entity, ec.EntityAbbrev)
		if ec.SectionTitle != "" {
			fmt.Fprintf(&sb, "Section: %s\n\n", ec.SectionTitle)
		}

		var c counts
		for _, node := range ec.Content {
			tally(node, &c)
		}
		fmt.Fprintf(&sb, "- %d blocks (%d paragraphs, %d tables)\n", c.blocks, c.paragraphs, c.tables)
		fmt.Fprintf(&sb, "- %d hyperlinks\n", c.links)

		if headings := topHeadings(ec.Content, 8); len(headings) > 0 {
			sb.WriteString("\nOutline:\n\n")
			for _, h := range headings {
				fmt.Fprintf(&sb, "1. %s\n", h)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderHTML converts the markdown report to HTML.
func RenderHTML(markdown string) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
