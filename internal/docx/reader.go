// Package docx reads the paragraph/table stream of a .docx file.
//
// A .docx is a ZIP archive of OOXML parts. The body lives in
// word/document.xml; hyperlink targets live in
// word/_rels/document.xml.rels; style definitions (including italic
// flags) live in word/styles.xml. The reader streams document.xml with
// encoding/xml, keeping the low-level field-code node sequence
// (fldChar/instrText/run text) that downstream hyperlink extraction
// needs, which higher-level docx libraries do not expose.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadFile reads and parses the .docx at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat docx: %w", err)
	}
	return Read(f, info.Size())
}

// ReadBytes parses a .docx held in memory.
func ReadBytes(data []byte) (*Document, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read parses a .docx from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	rels, err := readRels(zr)
	if err != nil {
		return nil, err
	}
	italics, err := readStyleItalics(zr)
	if err != nil {
		return nil, err
	}

	part := findPart(zr, "word/document.xml")
	if part == nil {
		return nil, errors.New("word/document.xml not found in archive")
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	rd := &reader{rels: rels, italics: italics}
	elements, err := rd.parseBody(xml.NewDecoder(rc))
	if err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}
	return &Document{Elements: elements}, nil
}

type reader struct {
	rels    map[string]string
	italics map[string]bool
}

// parseBody walks the document body and collects block-level items.
// Paragraphs and tables are only taken directly under <w:body>, so
// text-box content and other nested containers are not duplicated.
func (rd *reader) parseBody(dec *xml.Decoder) ([]RawElement, error) {
	var elements []RawElement
	var open []string

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if len(open) > 0 && open[len(open)-1] == "body" {
				switch name {
				case "p":
					el, err := rd.parseParagraph(dec)
					if err != nil {
						return nil, err
					}
					elements = append(elements, el)
					continue
				case "tbl":
					el, err := rd.parseTable(dec)
					if err != nil {
						return nil, err
					}
					elements = append(elements, el)
					continue
				}
			}
			open = append(open, name)
		case xml.EndElement:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}
	return elements, nil
}

// parseParagraph consumes one <w:p> subtree. The opening tag has
// already been read.
func (rd *reader) parseParagraph(dec *xml.Decoder) (RawElement, error) {
	el := RawElement{Kind: KindParagraph}
	var text strings.Builder

	inHyperlink := false
	var hlID string
	var hlText strings.Builder

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return el, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				s, err := collectText(dec)
				if err != nil {
					return el, err
				}
				text.WriteString(s)
				el.Nodes = append(el.Nodes, FieldNode{Kind: NodeRunText, Text: s})
				if inHyperlink {
					hlText.WriteString(s)
				}
			case "instrText":
				s, err := collectText(dec)
				if err != nil {
					return el, err
				}
				el.Nodes = append(el.Nodes, FieldNode{Kind: NodeInstrText, Text: s})
			default:
				depth++
				switch t.Name.Local {
				case "pStyle":
					el.StyleID = attr(t, "val")
				case "hyperlink":
					inHyperlink = true
					hlID = attr(t, "id")
					hlText.Reset()
				case "fldChar":
					switch attr(t, "fldCharType") {
					case "begin":
						el.Nodes = append(el.Nodes, FieldNode{Kind: NodeFieldBegin})
					case "separate":
						el.Nodes = append(el.Nodes, FieldNode{Kind: NodeFieldSeparate})
					case "end":
						el.Nodes = append(el.Nodes, FieldNode{Kind: NodeFieldEnd})
					}
				case "tab":
					text.WriteString("\t")
					if inHyperlink {
						hlText.WriteString("\t")
					}
				case "br", "cr":
					text.WriteString("\n")
					if inHyperlink {
						hlText.WriteString("\n")
					}
				case "graphicData":
					el.HasImage = true
				}
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "hyperlink" && inHyperlink {
				if url := rd.rels[hlID]; url != "" {
					el.Links = append(el.Links, Link{Text: hlText.String(), URL: url})
				}
				inHyperlink = false
			}
		}
	}

	el.Text = text.String()
	el.Italic = rd.italics[el.StyleID]
	return el, nil
}

// parseTable consumes one <w:tbl> subtree into a cell grid. Nested
// tables inside cells are skipped.
func (rd *reader) parseTable(dec *xml.Decoder) (RawElement, error) {
	el := RawElement{Kind: KindTable}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return el, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				cell, err := rd.parseCell(dec)
				if err != nil {
					return el, err
				}
				if len(el.Rows) == 0 {
					el.Rows = append(el.Rows, nil)
				}
				last := len(el.Rows) - 1
				el.Rows[last] = append(el.Rows[last], cell)
			default:
				if t.Name.Local == "tr" {
					el.Rows = append(el.Rows, nil)
				}
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return el, nil
}

func (rd *reader) parseCell(dec *xml.Decoder) (Cell, error) {
	var cell Cell

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return cell, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				p, err := rd.parseParagraph(dec)
				if err != nil {
					return cell, err
				}
				cell.Paragraphs = append(cell.Paragraphs, p)
			case "tbl":
				if err := skipElement(dec); err != nil {
					return cell, err
				}
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return cell, nil
}

// collectText consumes the rest of the current element and returns its
// character data.
func collectText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	return sb.String(), nil
}

// skipElement consumes the rest of the current element.
func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// readRels maps relationship ids to hyperlink targets. A missing rels
// part yields an empty map.
func readRels(zr *zip.Reader) (map[string]string, error) {
	rels := make(map[string]string)
	part := findPart(zr, "word/_rels/document.xml.rels")
	if part == nil {
		return rels, nil
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml.rels: %w", err)
	}
	defer rc.Close()

	var doc struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Type   string `xml:"Type,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse document.xml.rels: %w", err)
	}
	for _, r := range doc.Relationships {
		if strings.HasSuffix(r.Type, "/hyperlink") {
			rels[r.ID] = r.Target
		}
	}
	return rels, nil
}

// readStyleItalics maps style ids to their style-level italic flag.
// A missing styles part yields an empty map.
func readStyleItalics(zr *zip.Reader) (map[string]bool, error) {
	italics := make(map[string]bool)
	part := findPart(zr, "word/styles.xml")
	if part == nil {
		return italics, nil
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open styles.xml: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	current := ""
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse styles.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				current = attr(t, "styleId")
			case "i":
				if current != "" {
					val := attr(t, "val")
					italics[current] = val != "0" && val != "false" && val != "none"
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				current = ""
			}
		}
	}
	return italics, nil
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
