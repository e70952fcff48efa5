package milestone

import (
	"strings"

	"dmt/internal/domain"
	"dmt/internal/domain/ast"
)

// EncodeResult reports what Encode changed.
type EncodeResult struct {
	// Changed counts comment spans replaced or removed.
	Changed int
	// Roots lists root comments in the order their start token appears.
	Roots []string
	// Cards counts top-level cards inserted.
	Cards int
}

// NeedsRender reports whether the document differs from its input.
func (r EncodeResult) NeedsRender() bool {
	return r.Changed > 0 || len(r.Roots) > 0
}

// SpanCommentID returns the comment id of a span attribute, taken from the
// identifier slot or the "id" key.
func SpanCommentID(a *ast.Attr) string {
	if id := strings.TrimSpace(a.ID); id != "" {
		return id
	}
	return strings.TrimSpace(a.Value("id"))
}

// Encode rewrites comment spans into milestone tokens and inserts one card
// per root thread. Reply spans are dropped from prose; replies live only in
// their parent's card.
func Encode(doc *ast.Document, g *domain.Graph) EncodeResult {
	var res EncodeResult
	children := g.ChildIDs()
	seenRoot := make(map[string]bool)

	ast.MapInlines(doc.Blocks, func(inlines []ast.Inline) []ast.Inline {
		out := make([]ast.Inline, 0, len(inlines))
		for _, in := range inlines {
			span, ok := in.(*ast.Span)
			if !ok {
				out = append(out, in)
				continue
			}
			id := SpanCommentID(&span.Attr)
			var edge Edge
			switch {
			case id != "" && span.Attr.HasClass(ClassCommentStart):
				edge = EdgeStart
			case id != "" && span.Attr.HasClass(ClassCommentEnd):
				edge = EdgeEnd
			default:
				out = append(out, in)
				continue
			}
			res.Changed++
			if children[id] {
				continue
			}
			out = append(out, &ast.Str{Text: FormatToken(id, edge)})
			if edge == EdgeStart && !seenRoot[id] {
				seenRoot[id] = true
				res.Roots = append(res.Roots, id)
			}
		}
		return out
	})

	if len(res.Roots) == 0 {
		return res
	}

	firstStart := make(map[string]int)
	lastEnd := make(map[string]int)
	for idx, block := range doc.Blocks {
		for _, tok := range blockTokens(block) {
			if !seenRoot[tok.ID] {
				continue
			}
			if tok.Edge == EdgeStart {
				if _, ok := firstStart[tok.ID]; !ok {
					firstStart[tok.ID] = idx
				}
			} else {
				lastEnd[tok.ID] = idx
			}
		}
	}

	after := make(map[int][]ast.Block)
	var tail []ast.Block
	for _, root := range res.Roots {
		card := buildThread(g, root, make(map[string]bool))
		if card == nil {
			continue
		}
		res.Cards++
		if idx, ok := lastEnd[root]; ok {
			after[idx] = append(after[idx], card)
		} else if idx, ok := firstStart[root]; ok {
			after[idx] = append(after[idx], card)
		} else {
			tail = append(tail, card)
		}
	}

	blocks := make([]ast.Block, 0, len(doc.Blocks)+res.Cards)
	for idx, block := range doc.Blocks {
		blocks = append(blocks, block)
		blocks = append(blocks, after[idx]...)
	}
	doc.Blocks = append(blocks, tail...)
	return res
}

// buildThread nests the cards of id and its replies. seen guards against
// cycles in malformed input.
func buildThread(g *domain.Graph, id string, seen map[string]bool) ast.Block {
	if seen[id] {
		return nil
	}
	seen[id] = true
	c, ok := g.Get(id)
	if !ok {
		c = &domain.Comment{ID: id}
	}
	var nested []ast.Block
	for _, child := range g.Children(id) {
		if card := buildThread(g, child, seen); card != nil {
			nested = append(nested, card)
		}
	}
	view := *c
	view.ParentID = g.Parent(id)
	return BuildCard(&view, nested)
}

// blockTokens returns milestone tokens found in Str nodes of a block subtree.
func blockTokens(block ast.Block) []Token {
	var out []Token
	ast.VisitInlines([]ast.Block{block}, func(in ast.Inline) bool {
		if s, ok := in.(*ast.Str); ok {
			out = append(out, FindTokens(s.Text)...)
		}
		return true
	})
	return out
}
