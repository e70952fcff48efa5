package milestone

import (
	"strings"

	"dmt/internal/domain"
	"dmt/internal/domain/ast"
)

// CardSet holds cards keyed by comment id in first-seen order.
type CardSet struct {
	byID  map[string]*domain.Comment
	order []string
}

// NewCardSet returns an empty set.
func NewCardSet() *CardSet {
	return &CardSet{byID: make(map[string]*domain.Comment)}
}

// Put stores a card. A later card with the same id replaces the earlier
// one but keeps its position.
func (s *CardSet) Put(c *domain.Comment) {
	if _, ok := s.byID[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.byID[c.ID] = c
}

// Get returns the card for id.
func (s *CardSet) Get(id string) (*domain.Comment, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Len returns the number of cards.
func (s *CardSet) Len() int {
	return len(s.order)
}

// Cards returns the cards in first-seen order.
func (s *CardSet) Cards() []*domain.Comment {
	out := make([]*domain.Comment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// RootIDs returns cards without a parent.
func (s *CardSet) RootIDs() []string {
	var out []string
	for _, id := range s.order {
		if strings.TrimSpace(s.byID[id].ParentID) == "" {
			out = append(out, id)
		}
	}
	return out
}

// DecodeResult reports what Decode recovered.
type DecodeResult struct {
	Cards *CardSet
	// Removed counts card blocks taken out of the document.
	Removed int
	// Expanded counts milestone tokens turned back into spans.
	Expanded int
	// Synthesized lists start tokens that had no card. They become
	// comments without a body.
	Synthesized []string
}

// NeedsRender reports whether the document differs from its input.
func (r DecodeResult) NeedsRender() bool {
	return r.Removed > 0 || r.Expanded > 0
}

// Decode removes comment cards from doc and turns milestone tokens back
// into comment-start and comment-end spans carrying the card metadata.
func Decode(doc *ast.Document) DecodeResult {
	cards, removed := ParseCards(doc)
	res := DecodeResult{Cards: cards, Removed: removed}

	seen := make(map[string]bool)
	res.Expanded = ExpandTokens(doc, cards, func(id string, edge Edge) {
		if edge == EdgeStart && !seen[id] {
			seen[id] = true
			if _, ok := cards.Get(id); !ok {
				res.Synthesized = append(res.Synthesized, id)
			}
		}
	})
	return res
}

// ParseCards collects and removes every card block, at any nesting depth.
func ParseCards(doc *ast.Document) (*CardSet, int) {
	cards := NewCardSet()
	removed := 0
	doc.Blocks = ast.MapBlocks(doc.Blocks, func(blocks []ast.Block) []ast.Block {
		kept := blocks[:0:0]
		for _, b := range blocks {
			if quote, ok := b.(*ast.BlockQuote); ok {
				if entries := ParseCard(quote, ""); len(entries) > 0 {
					for _, c := range entries {
						cards.Put(c)
						removed++
					}
					continue
				}
			}
			kept = append(kept, b)
		}
		return kept
	})
	return cards, removed
}

// ExpandTokens replaces milestone tokens in prose with comment spans. Start
// spans receive the metadata of the matching card. onToken, when set, is
// called for each expanded token.
func ExpandTokens(doc *ast.Document, cards *CardSet, onToken func(id string, edge Edge)) int {
	expanded := 0
	ast.MapInlines(doc.Blocks, func(inlines []ast.Inline) []ast.Inline {
		out, n := expandInlineRuns(inlines, cards, onToken)
		expanded += n
		return out
	})
	ast.VisitBlocks(doc.Blocks, func(b ast.Block) {
		if h, ok := b.(*ast.Header); ok && strings.Contains(strings.ToLower(h.Attr.ID), "dc_comment") {
			h.Attr.ID = ""
		}
	})
	return expanded
}

func expandInlineRuns(inlines []ast.Inline, cards *CardSet, onToken func(string, Edge)) ([]ast.Inline, int) {
	var out []ast.Inline
	total := 0
	for i := 0; i < len(inlines); {
		if _, ok := ast.FlowText(inlines[i]); !ok {
			out = append(out, inlines[i])
			i++
			continue
		}
		start := i
		var b strings.Builder
		for i < len(inlines) {
			text, ok := ast.FlowText(inlines[i])
			if !ok {
				break
			}
			b.WriteString(text)
			i++
		}
		replacement, n := expandText(b.String(), cards, onToken)
		if n == 0 {
			out = append(out, inlines[start:i]...)
			continue
		}
		out = append(out, replacement...)
		total += n
	}
	if total == 0 {
		return inlines, 0
	}
	return out, total
}

func expandText(text string, cards *CardSet, onToken func(string, Edge)) ([]ast.Inline, int) {
	tokens := FindTokens(text)
	if len(tokens) == 0 {
		return nil, 0
	}
	var out []ast.Inline
	cursor := 0
	for _, tok := range tokens {
		if tok.Start > cursor {
			out = append(out, ast.TextToInlines(text[cursor:tok.Start])...)
		}
		out = append(out, CommentSpan(tok.ID, tok.Edge, cards))
		if onToken != nil {
			onToken(tok.ID, tok.Edge)
		}
		cursor = tok.End
	}
	if cursor < len(text) {
		out = append(out, ast.TextToInlines(text[cursor:])...)
	}
	return out, len(tokens)
}

// CommentSpan builds the empty span pandoc's docx writer turns into a
// comment range boundary.
func CommentSpan(id string, edge Edge, cards *CardSet) *ast.Span {
	if edge == EdgeEnd {
		return &ast.Span{Attr: ast.Attr{
			Classes: []string{ClassCommentEnd},
			KVs:     []ast.KeyValue{{Key: "id", Value: id}},
		}}
	}
	attr := ast.Attr{
		Classes: []string{ClassCommentStart},
		KVs:     []ast.KeyValue{{Key: "id", Value: id}},
	}
	if cards != nil {
		if card, ok := cards.Get(id); ok {
			meta := MetaOf(card)
			for _, key := range MetaKeys {
				if v := meta[key]; v != "" {
					attr.KVs = append(attr.KVs, ast.KeyValue{Key: key, Value: v})
				}
			}
		}
	}
	return &ast.Span{Attr: attr}
}
