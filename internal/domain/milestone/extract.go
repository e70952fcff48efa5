package milestone

import (
	"strings"

	"dmt/internal/domain"
	"dmt/internal/domain/ast"
)

// ExtractComments builds the validated comment graph of a markdown
// document whose tokens were expanded to spans. Comment-start spans supply
// ids in document order, their content and attributes. Cards supply the
// authoritative body and metadata and add replies that have no span.
func ExtractComments(doc *ast.Document, cards *CardSet) (*domain.Graph, error) {
	byID := make(map[string]*domain.Comment)
	var order []string
	ensure := func(id string) *domain.Comment {
		c, ok := byID[id]
		if !ok {
			c = &domain.Comment{ID: id, State: domain.StateActive}
			byID[id] = c
			order = append(order, id)
		}
		return c
	}

	ast.VisitInlines(doc.Blocks, func(in ast.Inline) bool {
		span, ok := in.(*ast.Span)
		if !ok || !span.Attr.HasClass(ClassCommentStart) {
			return true
		}
		id := SpanCommentID(&span.Attr)
		if id == "" {
			return true
		}
		c := ensure(id)
		mergeBody(c, domain.NormalizeCommentText(ast.BodyText(span.Inlines)))
		applySpanMeta(c, &span.Attr)
		return false
	})

	if cards != nil {
		for _, card := range cards.Cards() {
			c := ensure(card.ID)
			if body := domain.NormalizeCommentText(card.Body); body != "" {
				c.Body = body
			}
			if c.Author == "" {
				c.Author = strings.TrimSpace(card.Author)
			}
			if c.Date == "" {
				c.Date = strings.TrimSpace(card.Date)
			}
			if p := strings.TrimSpace(card.ParentID); p != "" {
				c.ParentID = p
			}
			c.State = domain.ParseState(string(card.State))
			if v := strings.TrimSpace(card.ParaID); v != "" {
				c.ParaID = v
			}
			if v := strings.TrimSpace(card.DurableID); v != "" {
				c.DurableID = v
			}
			if !card.Presence.IsZero() {
				c.Presence = card.Presence
			}
		}
	}

	candidates := make([]*domain.Comment, 0, len(order))
	for _, id := range order {
		c := byID[id]
		c.Body = domain.NormalizeCommentText(c.Body)
		c.Author = strings.TrimSpace(c.Author)
		c.Date = strings.TrimSpace(c.Date)
		candidates = append(candidates, c)
	}
	return domain.BuildValidGraph(candidates)
}

// mergeBody appends a body fragment unless it is already contained.
func mergeBody(c *domain.Comment, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	existing := strings.TrimSpace(c.Body)
	switch {
	case existing == "":
		c.Body = text
	case text != existing && !strings.Contains(existing, text):
		c.Body = existing + "\n\n" + text
	}
}

func applySpanMeta(c *domain.Comment, a *ast.Attr) {
	fillEmpty := func(dst *string, key string) {
		if v := a.Value(key); v != "" && *dst == "" {
			*dst = v
		}
	}
	overwrite := func(dst *string, key string) {
		if v := strings.TrimSpace(a.Value(key)); v != "" {
			*dst = v
		}
	}
	fillEmpty(&c.Author, KeyAuthor)
	fillEmpty(&c.Date, KeyDate)
	fillEmpty(&c.Presence.ProviderID, KeyPresenceProvider)
	fillEmpty(&c.Presence.UserID, KeyPresenceUserID)
	overwrite(&c.ParentID, KeyParent)
	overwrite(&c.ParaID, KeyParaID)
	overwrite(&c.DurableID, KeyDurableID)
	if v, ok := a.Get(KeyState); ok {
		c.State = domain.ParseState(v)
	}
}

// AnchorTexts returns the prose each comment range covers, whitespace
// collapsed. Ranges left open at the end of the document run to its end.
func AnchorTexts(doc *ast.Document) map[string]string {
	open := make(map[string]*strings.Builder)
	var order []string
	done := make(map[string]string)

	ast.VisitInlines(doc.Blocks, func(in ast.Inline) bool {
		if span, ok := in.(*ast.Span); ok {
			id := SpanCommentID(&span.Attr)
			switch {
			case id != "" && span.Attr.HasClass(ClassCommentStart):
				if _, seen := open[id]; !seen {
					open[id] = &strings.Builder{}
					order = append(order, id)
				}
				return false
			case id != "" && span.Attr.HasClass(ClassCommentEnd):
				if b, ok := open[id]; ok {
					done[id] = b.String()
				}
				return false
			}
		}
		if text, ok := ast.FlowText(in); ok {
			for _, id := range order {
				if _, closed := done[id]; !closed {
					open[id].WriteString(text)
				}
			}
		}
		return true
	})

	out := make(map[string]string, len(order))
	for _, id := range order {
		text, ok := done[id]
		if !ok {
			text = open[id].String()
		}
		out[id] = strings.Join(strings.Fields(text), " ")
	}
	return out
}
