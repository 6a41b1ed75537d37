package parse

import (
	"reflect"
	"testing"

	"github.com/ppb-analytics/ppbtree/internal/docx"
)

func TestFieldLinks(t *testing.T) {
	tests := []struct {
		name  string
		nodes []docx.FieldNode
		want  []docx.Link
	}{
		{
			name: "complete field",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: ` HYPERLINK "https://undocs.org/A/80/6" `},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeRunText, Text: "A/80/6"},
				{Kind: docx.NodeFieldEnd},
			},
			want: []docx.Link{{Text: "A/80/6", URL: "https://undocs.org/A/80/6"}},
		},
		{
			name: "display split across runs",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: `HYPERLINK "https://undocs.org/A/RES/79/1"`},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeRunText, Text: "resolution "},
				{Kind: docx.NodeRunText, Text: "79/1"},
				{Kind: docx.NodeFieldEnd},
			},
			want: []docx.Link{{Text: "resolution 79/1", URL: "https://undocs.org/A/RES/79/1"}},
		},
		{
			name: "no display text dropped",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: `HYPERLINK "https://example.org/page"`},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeFieldEnd},
			},
			want: nil,
		},
		{
			name: "no url dropped",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: "PAGEREF _Toc12345"},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeRunText, Text: "12"},
				{Kind: docx.NodeFieldEnd},
			},
			want: nil,
		},
		{
			name: "non http target dropped",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: `HYPERLINK "mailto:info@un.org"`},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeRunText, Text: "contact"},
				{Kind: docx.NodeFieldEnd},
			},
			want: nil,
		},
		{
			name: "text before separator ignored",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeRunText, Text: "noise"},
				{Kind: docx.NodeInstrText, Text: `HYPERLINK "https://example.org"`},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeRunText, Text: "label"},
				{Kind: docx.NodeFieldEnd},
			},
			want: []docx.Link{{Text: "label", URL: "https://example.org"}},
		},
		{
			name: "stray end without begin",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldEnd},
				{Kind: docx.NodeRunText, Text: "plain"},
			},
			want: nil,
		},
		{
			name: "begin resets unterminated field",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: `HYPERLINK "https://stale.example.org"`},
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: `HYPERLINK "https://fresh.example.org"`},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeRunText, Text: "fresh"},
				{Kind: docx.NodeFieldEnd},
			},
			want: []docx.Link{{Text: "fresh", URL: "https://fresh.example.org"}},
		},
		{
			name: "two fields in one paragraph",
			nodes: []docx.FieldNode{
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: `HYPERLINK "https://one.example.org"`},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeRunText, Text: "one"},
				{Kind: docx.NodeFieldEnd},
				{Kind: docx.NodeRunText, Text: " and "},
				{Kind: docx.NodeFieldBegin},
				{Kind: docx.NodeInstrText, Text: `HYPERLINK "https://two.example.org"`},
				{Kind: docx.NodeFieldSeparate},
				{Kind: docx.NodeRunText, Text: "two"},
				{Kind: docx.NodeFieldEnd},
			},
			want: []docx.Link{
				{Text: "one", URL: "https://one.example.org"},
				{Text: "two", URL: "https://two.example.org"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldLinks(tt.nodes)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FieldLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFieldLinks_InstructionSplitAcrossRuns(t *testing.T) {
	// The URL may arrive whole in a later instruction run; the scan
	// keeps the last instruction match before the separator.
	nodes := []docx.FieldNode{
		{Kind: docx.NodeFieldBegin},
		{Kind: docx.NodeInstrText, Text: " HYPERLINK "},
		{Kind: docx.NodeInstrText, Text: `HYPERLINK "https://undocs.org/ST/SGB/2015/3"`},
		{Kind: docx.NodeFieldSeparate},
		{Kind: docx.NodeRunText, Text: "ST/SGB/2015/3"},
		{Kind: docx.NodeFieldEnd},
	}
	want := []docx.Link{{Text: "ST/SGB/2015/3", URL: "https://undocs.org/ST/SGB/2015/3"}}
	if got := FieldLinks(nodes); !reflect.DeepEqual(got, want) {
		t.Errorf("FieldLinks() = %v, want %v", got, want)
	}
}

func TestReconcile(t *testing.T) {
	structural := []docx.Link{
		{Text: "apple", URL: "https://www.apple.com"},
		{Text: "cherry", URL: "https://www.cherry.com"},
		{Text: "date", URL: "https://www.date.com"},
		{Text: "elderberry", URL: "https://www.elderberry.com"},
		{Text: "fig", URL: "https://www.fig.com"},
		{Text: "grape", URL: "https://www.grape.com"},
	}
	field := []docx.Link{
		{Text: "google", URL: "https://www.google.com"},
		{Text: "banana", URL: "https://www.banana.com"},
		{Text: "cherry", URL: "https://www.cherry.com"},
		{Text: "date", URL: "https://www.date.com"},
		{Text: "fig", URL: "https://www.fig.com"},
	}
	want := []docx.Link{
		{Text: "apple", URL: "https://www.apple.com"},
		{Text: "google", URL: "https://www.google.com"},
		{Text: "banana", URL: "https://www.banana.com"},
		{Text: "cherry", URL: "https://www.cherry.com"},
		{Text: "date", URL: "https://www.date.com"},
		{Text: "elderberry", URL: "https://www.elderberry.com"},
		{Text: "fig", URL: "https://www.fig.com"},
		{Text: "grape", URL: "https://www.grape.com"},
	}

	got := Reconcile(structural, field)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() order mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestReconcile_SharedURLKeepsStructuralDisplay(t *testing.T) {
	structural := []docx.Link{{Text: "full resolution title", URL: "https://undocs.org/A/RES/79/1"}}
	field := []docx.Link{{Text: "79/1", URL: "https://undocs.org/A/RES/79/1"}}

	got := Reconcile(structural, field)
	want := []docx.Link{{Text: "full resolution title", URL: "https://undocs.org/A/RES/79/1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_OneChannelEmpty(t *testing.T) {
	links := []docx.Link{
		{Text: "a", URL: "https://a.example.org"},
		{Text: "b", URL: "https://b.example.org"},
	}

	if got := Reconcile(links, nil); !reflect.DeepEqual(got, links) {
		t.Errorf("Reconcile(links, nil) = %v, want %v", got, links)
	}
	if got := Reconcile(nil, links); !reflect.DeepEqual(got, links) {
		t.Errorf("Reconcile(nil, links) = %v, want %v", got, links)
	}
	if got := Reconcile(nil, nil); len(got) != 0 {
		t.Errorf("Reconcile(nil, nil) = %v, want empty", got)
	}
}

func TestExtractLinks_NeverNil(t *testing.T) {
	if got := ExtractLinks(nil, nil); got == nil {
		t.Fatal("ExtractLinks(nil, nil) = nil, want empty slice")
	}
}
