package milestone

import (
	"strings"

	"dmt/internal/domain"
	"dmt/internal/domain/ast"
)

// normalizeSpanID moves a comment span's identifier into its "id" key.
func normalizeSpanID(a *ast.Attr) bool {
	if !a.HasClass(ClassCommentStart) && !a.HasClass(ClassCommentEnd) {
		return false
	}
	identifier := strings.TrimSpace(a.ID)
	if identifier == "" {
		return false
	}
	changed := false
	if v, ok := a.Get("id"); ok {
		if v == "" {
			a.Set("id", identifier)
			changed = true
		}
	} else {
		a.KVs = append([]ast.KeyValue{{Key: "id", Value: identifier}}, a.KVs...)
		changed = true
	}
	if a.ID != "" {
		a.ID = ""
		changed = true
	}
	return changed
}

// Annotate writes thread metadata from g onto every comment-start span.
// Attributes that already carry a value are left alone, so a second call
// returns zero.
func Annotate(doc *ast.Document, g *domain.Graph) int {
	if g == nil || g.Len() == 0 {
		return 0
	}
	changed := 0
	ast.VisitSpans(doc.Blocks, func(s *ast.Span) {
		touched := normalizeSpanID(&s.Attr)
		if s.Attr.HasClass(ClassCommentStart) {
			if id := SpanCommentID(&s.Attr); id != "" {
				touched = annotateSpan(&s.Attr, id, g) || touched
			}
		}
		if touched {
			changed++
		}
	})
	return changed
}

func annotateSpan(a *ast.Attr, id string, g *domain.Graph) bool {
	c, ok := g.Get(id)
	if !ok {
		c = &domain.Comment{ID: id}
	}
	changed := a.Ensure(KeyParent, g.Parent(id))
	changed = a.Ensure(KeyState, string(domain.ParseState(string(c.State)))) || changed
	changed = a.Ensure(KeyParaID, c.ParaID) || changed
	changed = a.Ensure(KeyDurableID, c.DurableID) || changed
	changed = a.Ensure(KeyPresenceProvider, c.Presence.ProviderID) || changed
	changed = a.Ensure(KeyPresenceUserID, c.Presence.UserID) || changed
	return changed
}

// StripTransportAttrs removes round-trip identifiers from comment-start
// spans before markdown goes to pandoc's docx writer.
func StripTransportAttrs(doc *ast.Document) int {
	changed := 0
	ast.VisitSpans(doc.Blocks, func(s *ast.Span) {
		touched := normalizeSpanID(&s.Attr)
		if s.Attr.HasClass(ClassCommentStart) {
			touched = s.Attr.Remove(TransportKeys...) || touched
		}
		if touched {
			changed++
		}
	})
	return changed
}
