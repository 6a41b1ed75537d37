package parse

import (
	"regexp"
	"strings"

	"github.com/ppb-analytics/ppbtree/internal/docx"
)

// Hyperlinks reach the output through two channels: the relationship
// links the reader already resolved (channel A), and links encoded as
// HYPERLINK field instructions in the low-level markup (channel B).
// Both channels see the same document order; some links appear in one
// channel only, some in both.

var instrHyperlinkRe = regexp.MustCompile(`(?i)HYPERLINK\s+"([^"]+)"`)

// fieldScanState drives the single-pass field-code scan.
type fieldScanState int

const (
	scanIdle fieldScanState = iota
	scanAwaitingSeparator
	scanCapturingDisplay
)

// FieldLinks scans a paragraph's markup node sequence for field-coded
// hyperlinks. Capture is best-effort: a field with no URL, no display
// text, or a non-http target is dropped without disturbing the scan.
func FieldLinks(nodes []docx.FieldNode) []docx.Link {
	state := scanIdle
	var url string
	var display strings.Builder
	var out []docx.Link

	for _, n := range nodes {
		switch n.Kind {
		case docx.NodeFieldBegin:
			url = ""
			display.Reset()
			state = scanAwaitingSeparator
		case docx.NodeFieldSeparate:
			if state == scanAwaitingSeparator {
				state = scanCapturingDisplay
			}
		case docx.NodeFieldEnd:
			if state != scanIdle {
				if url != "" && display.Len() > 0 && strings.Contains(url, "http") {
					out = append(out, docx.Link{Text: display.String(), URL: url})
				}
				state = scanIdle
			}
		case docx.NodeInstrText:
			if state != scanIdle {
				if m := instrHyperlinkRe.FindStringSubmatch(n.Text); m != nil {
					url = m[1]
				}
			}
		case docx.NodeRunText:
			if state == scanCapturingDisplay {
				display.WriteString(n.Text)
			}
		}
	}
	return out
}

// Reconcile merges the two channels into one ordered, deduplicated
// list. Heads sharing a URL collapse to channel A's entry. A channel A
// head whose URL never recurs in channel B's remainder is emitted
// immediately; otherwise channel B's head goes first so its unmatched
// entries keep their relative position. The asymmetry is deliberate:
// it reproduces the established ordering downstream consumers index
// against.
func Reconcile(structural, field []docx.Link) []docx.Link {
	out := make([]docx.Link, 0, len(structural)+len(field))
	for len(structural) > 0 || len(field) > 0 {
		switch {
		case len(structural) > 0 && len(field) > 0:
			switch {
			case structural[0].URL == field[0].URL:
				out = append(out, structural[0])
				structural = structural[1:]
				field = field[1:]
			case !containsURL(field, structural[0].URL):
				out = append(out, structural[0])
				structural = structural[1:]
			default:
				out = append(out, field[0])
				field = field[1:]
			}
		case len(structural) > 0:
			out = append(out, structural...)
			structural = nil
		default:
			out = append(out, field...)
			field = nil
		}
	}
	return out
}

// ExtractLinks returns the reconciled hyperlink list for one paragraph.
func ExtractLinks(structural []docx.Link, nodes []docx.FieldNode) []docx.Link {
	return Reconcile(structural, FieldLinks(nodes))
}

func containsURL(links []docx.Link, url string) bool {
	for _, l := range links {
		if l.URL == url {
			return true
		}
	}
	return false
}
