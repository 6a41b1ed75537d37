package docx

import (
	"archive/zip"
	"bytes"
	"testing"
)

func docxBytes(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func wrapBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<w:body>` + body + `</w:body></w:document>`
}

func readBody(t *testing.T, body string, extra map[string]string) *Document {
	t.Helper()
	parts := map[string]string{"word/document.xml": wrapBody(body)}
	for name, content := range extra {
		parts[name] = content
	}
	doc, err := ReadBytes(docxBytes(t, parts))
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	return doc
}

func TestRead_Paragraphs(t *testing.T) {
	doc := readBody(t, `
		<w:p>
			<w:pPr><w:pStyle w:val="HCh"/></w:pPr>
			<w:r><w:t>I.</w:t></w:r>
			<w:r><w:tab/></w:r>
			<w:r><w:t>Office of </w:t></w:r>
			<w:r><w:t>Legal Affairs</w:t></w:r>
		</w:p>
		<w:p>
			<w:r><w:t>First line</w:t></w:r>
			<w:r><w:br/></w:r>
			<w:r><w:t>second line</w:t></w:r>
		</w:p>`, nil)

	if len(doc.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(doc.Elements))
	}
	first := doc.Elements[0]
	if first.Kind != KindParagraph {
		t.Errorf("kind = %v, want paragraph", first.Kind)
	}
	if first.StyleID != "HCh" {
		t.Errorf("style = %q, want HCh", first.StyleID)
	}
	if want := "I.\tOffice of Legal Affairs"; first.Text != want {
		t.Errorf("text = %q, want %q", first.Text, want)
	}
	if want := "First line\nsecond line"; doc.Elements[1].Text != want {
		t.Errorf("text = %q, want %q", doc.Elements[1].Text, want)
	}
}

func TestRead_RelationshipHyperlinks(t *testing.T) {
	rels := `<?xml version="1.0" encoding="UTF-8"?>
		<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
			<Relationship Id="rId7" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://undocs.org/A/RES/79/1"/>
			<Relationship Id="rId8" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
		</Relationships>`

	doc := readBody(t, `
		<w:p>
			<w:r><w:t>See </w:t></w:r>
			<w:hyperlink r:id="rId7">
				<w:r><w:t>resolution </w:t></w:r>
				<w:r><w:t>79/1</w:t></w:r>
			</w:hyperlink>
			<w:hyperlink r:id="rId99">
				<w:r><w:t>dangling</w:t></w:r>
			</w:hyperlink>
			<w:r><w:t> for details</w:t></w:r>
		</w:p>`, map[string]string{"word/_rels/document.xml.rels": rels})

	el := doc.Elements[0]
	if want := "See resolution 79/1 dangling for details"; el.Text != want {
		t.Errorf("text = %q, want %q", el.Text, want)
	}
	if len(el.Links) != 1 {
		t.Fatalf("links = %v, want exactly the resolvable one", el.Links)
	}
	if el.Links[0].Text != "resolution 79/1" || el.Links[0].URL != "https://undocs.org/A/RES/79/1" {
		t.Errorf("link = %+v", el.Links[0])
	}
}

func TestRead_FieldNodes(t *testing.T) {
	doc := readBody(t, `
		<w:p>
			<w:r><w:fldChar w:fldCharType="begin"/></w:r>
			<w:r><w:instrText> HYPERLINK "https://undocs.org/A/80/6" </w:instrText></w:r>
			<w:r><w:fldChar w:fldCharType="separate"/></w:r>
			<w:r><w:t>A/80/6</w:t></w:r>
			<w:r><w:fldChar w:fldCharType="end"/></w:r>
		</w:p>`, nil)

	el := doc.Elements[0]
	wantKinds := []NodeKind{
		NodeFieldBegin, NodeInstrText, NodeFieldSeparate, NodeRunText, NodeFieldEnd,
	}
	if len(el.Nodes) != len(wantKinds) {
		t.Fatalf("got %d nodes, want %d: %v", len(el.Nodes), len(wantKinds), el.Nodes)
	}
	for i, kind := range wantKinds {
		if el.Nodes[i].Kind != kind {
			t.Errorf("node %d kind = %v, want %v", i, el.Nodes[i].Kind, kind)
		}
	}
	if want := ` HYPERLINK "https://undocs.org/A/80/6" `; el.Nodes[1].Text != want {
		t.Errorf("instruction text = %q, want %q", el.Nodes[1].Text, want)
	}
	if el.Nodes[3].Text != "A/80/6" {
		t.Errorf("run text = %q, want A/80/6", el.Nodes[3].Text)
	}
}

func TestRead_StyleItalics(t *testing.T) {
	styles := `<?xml version="1.0" encoding="UTF-8"?>
		<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
			<w:style w:type="paragraph" w:styleId="H4">
				<w:rPr><w:i/></w:rPr>
			</w:style>
			<w:style w:type="paragraph" w:styleId="H1">
				<w:rPr><w:i w:val="0"/></w:rPr>
			</w:style>
		</w:styles>`

	doc := readBody(t, `
		<w:p><w:pPr><w:pStyle w:val="H4"/></w:pPr><w:r><w:t>Overall policymaking</w:t></w:r></w:p>
		<w:p><w:pPr><w:pStyle w:val="H1"/></w:pPr><w:r><w:t>Objective</w:t></w:r></w:p>
		<w:p><w:r><w:t>No style</w:t></w:r></w:p>`,
		map[string]string{"word/styles.xml": styles})

	if !doc.Elements[0].Italic {
		t.Error("H4 paragraph not italic")
	}
	if doc.Elements[1].Italic {
		t.Error("H1 paragraph italic despite w:val=0")
	}
	if doc.Elements[2].Italic {
		t.Error("unstyled paragraph italic")
	}
}

func TestRead_Table(t *testing.T) {
	doc := readBody(t, `
		<w:tbl>
			<w:tr>
				<w:tc><w:p><w:r><w:t>General Assembly</w:t></w:r></w:p><w:p><w:r><w:t>mandates</w:t></w:r></w:p></w:tc>
				<w:tc><w:p><w:r><w:t>79/1</w:t></w:r></w:p></w:tc>
			</w:tr>
			<w:tr>
				<w:tc><w:p><w:r><w:t>Security Council</w:t></w:r></w:p></w:tc>
				<w:tc>
					<w:tbl><w:tr><w:tc><w:p><w:r><w:t>nested</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
					<w:p><w:r><w:t>2720</w:t></w:r></w:p>
				</w:tc>
			</w:tr>
		</w:tbl>`, nil)

	if len(doc.Elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(doc.Elements))
	}
	tbl := doc.Elements[0]
	if tbl.Kind != KindTable {
		t.Fatalf("kind = %v, want table", tbl.Kind)
	}
	if len(tbl.Rows) != 2 || len(tbl.Rows[0]) != 2 || len(tbl.Rows[1]) != 2 {
		t.Fatalf("table shape = %v, want 2x2", tbl.Rows)
	}
	if want := "General Assembly\nmandates"; tbl.Rows[0][0].Text() != want {
		t.Errorf("cell = %q, want %q", tbl.Rows[0][0].Text(), want)
	}
	// Content of nested tables is dropped, the host cell keeps its own
	// paragraphs.
	if want := "2720"; tbl.Rows[1][1].Text() != want {
		t.Errorf("cell = %q, want %q", tbl.Rows[1][1].Text(), want)
	}
}

func TestRead_Image(t *testing.T) {
	doc := readBody(t, `
		<w:p>
			<w:r><w:drawing><w:inline><w:graphic><w:graphicData uri="picture"/></w:graphic></w:inline></w:drawing></w:r>
		</w:p>`, nil)

	if !doc.Elements[0].HasImage {
		t.Error("graphicData not detected")
	}
	if doc.Elements[0].Text != "" {
		t.Errorf("text = %q, want empty", doc.Elements[0].Text)
	}
}

func TestRead_WrappedParagraphsNotTaken(t *testing.T) {
	doc := readBody(t, `
		<w:sdt><w:sdtContent><w:p><w:r><w:t>inside a content control</w:t></w:r></w:p></w:sdtContent></w:sdt>
		<w:p><w:r><w:t>top level</w:t></w:r></w:p>`, nil)

	if len(doc.Elements) != 1 {
		t.Fatalf("got %d elements, want only the body-level paragraph", len(doc.Elements))
	}
	if doc.Elements[0].Text != "top level" {
		t.Errorf("text = %q, want %q", doc.Elements[0].Text, "top level")
	}
}

func TestRead_MissingRelsAndStyles(t *testing.T) {
	doc := readBody(t, `<w:p><w:r><w:t>bare document</w:t></w:r></w:p>`, nil)
	if len(doc.Elements) != 1 || doc.Elements[0].Text != "bare document" {
		t.Fatalf("elements = %v", doc.Elements)
	}
}

func TestRead_MissingDocumentPart(t *testing.T) {
	data := docxBytes(t, map[string]string{"word/styles.xml": "<w:styles/>"})
	if _, err := ReadBytes(data); err == nil {
		t.Fatal("want error for archive without word/document.xml")
	}
}

func TestRead_NotAnArchive(t *testing.T) {
	if _, err := ReadBytes([]byte("not a zip file")); err == nil {
		t.Fatal("want error for non-zip input")
	}
}
