package milestone

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"dmt/internal/domain"
	"dmt/internal/domain/ast"
)

func TestMetaMarker_RoundTrip(t *testing.T) {
	meta := Meta{
		KeyAuthor:    `Ann "A" <ann>`,
		KeyDate:      "2024-01-02T03:04:05Z",
		KeyState:     "resolved",
		KeyParaID:    "1A2B3C4D",
		KeyDurableID: "0F0F0F0F",
	}
	marker := FormatMetaMarker("9", meta)

	id, got, ok := ParseMetaMarker("> " + marker)
	if !ok {
		t.Fatalf("ParseMetaMarker(%q) failed", marker)
	}
	if id != "9" {
		t.Errorf("id = %q, want 9", id)
	}
	if diff := cmp.Diff(meta, got); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMetaMarker_RepairsPayload(t *testing.T) {
	id, meta, ok := ParseMetaMarker(`<!--CARD_META{#3 author:"Ann", 'state':'resolved',}-->`)
	if !ok || id != "3" {
		t.Fatalf("ParseMetaMarker() = %q, %v", id, ok)
	}
	if meta[KeyAuthor] != "Ann" || meta[KeyState] != "resolved" {
		t.Errorf("meta = %v", meta)
	}
}

func TestParseMetaMarker_EmptyPayload(t *testing.T) {
	id, meta, ok := ParseMetaMarker("<!--CARD_META{#x1}-->")
	if !ok || id != "x1" || len(meta) != 0 {
		t.Errorf("ParseMetaMarker() = %q, %v, %v", id, meta, ok)
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		line string
		want Header
		ok   bool
	}{
		{"[!COMMENT 1: Ann (active)]", Header{Kind: KindComment, ID: "1", Author: "Ann", State: domain.StateActive}, true},
		{"[!reply 2: Bob Smith (RESOLVED)]", Header{Kind: KindReply, ID: "2", Author: "Bob Smith", State: domain.StateResolved}, true},
		{"[!NOTE 1: Ann (active)]", Header{}, false},
		{"[!COMMENT 1: Ann]", Header{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseHeader(tt.line)
		if ok != tt.ok {
			t.Errorf("ParseHeader(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseHeader(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestFormatHeader(t *testing.T) {
	if got := FormatHeader(&domain.Comment{ID: "4"}); got != "[!COMMENT 4: Unknown (active)]" {
		t.Errorf("FormatHeader() = %q", got)
	}
	reply := &domain.Comment{ID: "5", Author: "Bob", ParentID: "4", State: domain.StateResolved}
	if got := FormatHeader(reply); got != "[!REPLY 5: Bob (resolved)]" {
		t.Errorf("FormatHeader() = %q", got)
	}
}

func TestParseCard_FromParagraphs(t *testing.T) {
	// The shape pandoc's markdown reader produces for a card it wrote.
	quote := &ast.BlockQuote{Blocks: []ast.Block{
		&ast.Para{Inlines: append(
			ast.TextToInlines("[!COMMENT 1: Ann (resolved)]\n"),
			&ast.RawInline{Format: "html", Text: `<!--CARD_META{#1 "author":"Ann","state":"resolved","paraId":"AB12"}-->`},
			&ast.SoftBreak{},
			&ast.Str{Text: "First"},
			&ast.Space{},
			&ast.Str{Text: "line"},
		)},
		&ast.Para{Inlines: ast.TextToInlines("Second paragraph")},
		&ast.BlockQuote{Blocks: []ast.Block{
			&ast.Para{Inlines: ast.TextToInlines("[!REPLY 2: Bob (active)]")},
		}},
	}}

	got := ParseCard(quote, "")
	want := []*domain.Comment{
		{ID: "1", Author: "Ann", State: domain.StateResolved, ParaID: "AB12", Body: "First line\n\nSecond paragraph"},
		{ID: "2", Author: "Bob", State: domain.StateActive, ParentID: "1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseCard() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCard_NotACard(t *testing.T) {
	quote := &ast.BlockQuote{Blocks: []ast.Block{
		&ast.Para{Inlines: ast.TextToInlines("Just a quotation.")},
	}}
	if got := ParseCard(quote, ""); got != nil {
		t.Errorf("ParseCard() = %v, want nil", got)
	}
}
