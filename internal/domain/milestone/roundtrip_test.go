package milestone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmt/internal/domain"
	"dmt/internal/domain/ast"
)

func commentSpan(id string, class string, kvs ...ast.KeyValue) *ast.Span {
	return &ast.Span{Attr: ast.Attr{
		Classes: []string{class},
		KVs:     append([]ast.KeyValue{{Key: "id", Value: id}}, kvs...),
	}}
}

func threadGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g, err := domain.BuildValidGraph([]*domain.Comment{
		{ID: "1", Author: "Ann", Date: "2024-05-01T10:00:00Z", Body: "Check this.", ParaID: "1111AAAA", DurableID: "2222BBBB"},
		{ID: "2", Author: "Bob", Body: "Done.", ParentID: "1", State: domain.StateResolved},
	})
	require.NoError(t, err)
	return g
}

// docxShapedDoc mirrors what pandoc's docx reader emits: one range per
// comment, replies sharing the parent's range.
func docxShapedDoc() *ast.Document {
	return &ast.Document{
		APIVersion: []int{1, 23, 1},
		Blocks: []ast.Block{
			&ast.Para{Inlines: []ast.Inline{
				&ast.Str{Text: "Before"},
				&ast.Space{},
				commentSpan("1", ClassCommentStart),
				commentSpan("2", ClassCommentStart),
				&ast.Str{Text: "target"},
				commentSpan("2", ClassCommentEnd),
				commentSpan("1", ClassCommentEnd),
				&ast.Space{},
				&ast.Str{Text: "after."},
			}},
			&ast.Para{Inlines: ast.TextToInlines("Unrelated paragraph.")},
		},
	}
}

func TestEncode_ReplacesSpansAndPlacesCards(t *testing.T) {
	doc := docxShapedDoc()
	res := Encode(doc, threadGraph(t))

	assert.Equal(t, 4, res.Changed)
	assert.Equal(t, []string{"1"}, res.Roots)
	assert.Equal(t, 1, res.Cards)
	assert.True(t, res.NeedsRender())

	require.Len(t, doc.Blocks, 3)
	para := doc.Blocks[0].(*ast.Para)
	assert.Equal(t, "Before ==///1.START///==target==///1.END///== after.", ast.CardText(para.Inlines))

	card, ok := doc.Blocks[1].(*ast.BlockQuote)
	require.True(t, ok, "card follows the paragraph holding the end token")
	assert.Equal(t, "[!COMMENT 1: Ann (active)]", card.Blocks[0].(*ast.RawBlock).Text)

	reply := card.Blocks[len(card.Blocks)-1].(*ast.BlockQuote)
	assert.Equal(t, "[!REPLY 2: Bob (resolved)]", reply.Blocks[0].(*ast.RawBlock).Text)
	assert.Equal(t, `<!--CARD_META{#2 "author":"Bob","parent":"1","state":"resolved"}-->`, reply.Blocks[1].(*ast.RawBlock).Text)
}

func TestEncode_CardFollowsStartWithoutEnd(t *testing.T) {
	g := threadGraph(t)
	doc := &ast.Document{Blocks: []ast.Block{
		&ast.Para{Inlines: []ast.Inline{commentSpan("1", ClassCommentStart)}},
		&ast.Para{Inlines: ast.TextToInlines("Next.")},
	}}
	res := Encode(doc, g)

	require.Equal(t, 1, res.Cards)
	require.Len(t, doc.Blocks, 3)
	_, ok := doc.Blocks[1].(*ast.BlockQuote)
	assert.True(t, ok, "card goes after the block holding the start token")
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	g := threadGraph(t)
	doc := docxShapedDoc()
	Encode(doc, g)

	res := Decode(doc)
	assert.Equal(t, 2, res.Removed)
	assert.Equal(t, 2, res.Expanded)
	assert.Empty(t, res.Synthesized)
	require.Len(t, doc.Blocks, 2, "cards are removed from the document")

	var spans []*ast.Span
	ast.VisitSpans(doc.Blocks, func(s *ast.Span) { spans = append(spans, s) })
	require.Len(t, spans, 2)
	assert.True(t, spans[0].Attr.HasClass(ClassCommentStart))
	assert.Equal(t, "Ann", spans[0].Attr.Value(KeyAuthor))
	assert.Equal(t, "1111AAAA", spans[0].Attr.Value(KeyParaID))
	assert.True(t, spans[1].Attr.HasClass(ClassCommentEnd))
	assert.Len(t, spans[1].Attr.KVs, 1)

	got, err := ExtractComments(doc, res.Cards)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, got.TopologicalOrder())

	root, _ := got.Get("1")
	assert.Equal(t, "Check this.", root.Body)
	assert.Equal(t, "2222BBBB", root.DurableID)
	assert.Equal(t, domain.StateActive, root.State)

	reply, _ := got.Get("2")
	assert.Equal(t, "1", got.Parent("2"))
	assert.Equal(t, "Done.", reply.Body)
	assert.Equal(t, domain.StateResolved, reply.State)
}

func TestDecode_SynthesizesCardlessStarts(t *testing.T) {
	doc := &ast.Document{Blocks: []ast.Block{
		&ast.Para{Inlines: ast.TextToInlines("a ///9.START/// b ///9.END///")},
	}}
	res := Decode(doc)

	assert.Equal(t, 2, res.Expanded)
	assert.Equal(t, []string{"9"}, res.Synthesized)

	g, err := ExtractComments(doc, res.Cards)
	require.NoError(t, err)
	c, ok := g.Get("9")
	require.True(t, ok)
	assert.Empty(t, c.Body)
}

func TestDecode_ClearsCommentHeaderIDs(t *testing.T) {
	doc := &ast.Document{Blocks: []ast.Block{
		&ast.Header{Level: 2, Attr: ast.Attr{ID: "dc_comment-1"}, Inlines: ast.TextToInlines("Title")},
	}}
	Decode(doc)
	assert.Empty(t, doc.Blocks[0].(*ast.Header).Attr.ID)
}

func TestExtractComments_RejectsCycles(t *testing.T) {
	cards := NewCardSet()
	cards.Put(&domain.Comment{ID: "1", ParentID: "2"})
	cards.Put(&domain.Comment{ID: "2", ParentID: "1"})

	_, err := ExtractComments(&ast.Document{}, cards)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrThreadIntegrity))
	assert.Contains(t, err.Error(), "thread cycle detected")
}

func TestExtractComments_SpanAndCardPrecedence(t *testing.T) {
	doc := &ast.Document{Blocks: []ast.Block{
		&ast.Para{Inlines: []ast.Inline{
			&ast.Span{
				Attr: ast.Attr{
					Classes: []string{ClassCommentStart},
					KVs: []ast.KeyValue{
						{Key: "id", Value: "1"},
						{Key: KeyAuthor, Value: "Span Author"},
						{Key: KeyParaID, Value: "SPAN0001"},
					},
				},
				Inlines: ast.TextToInlines("span body"),
			},
		}},
	}}
	cards := NewCardSet()
	cards.Put(&domain.Comment{ID: "1", Author: "Card Author", Body: "card body", ParaID: "CARD0001", State: domain.StateResolved})

	g, err := ExtractComments(doc, cards)
	require.NoError(t, err)
	c, _ := g.Get("1")
	assert.Equal(t, "Span Author", c.Author)
	assert.Equal(t, "card body", c.Body)
	assert.Equal(t, "CARD0001", c.ParaID)
	assert.Equal(t, domain.StateResolved, c.State)
}

func TestAnnotate_Idempotent(t *testing.T) {
	g := threadGraph(t)
	doc := &ast.Document{Blocks: []ast.Block{
		&ast.Para{Inlines: []ast.Inline{
			&ast.Span{Attr: ast.Attr{ID: "1", Classes: []string{ClassCommentStart}}},
			commentSpan("2", ClassCommentStart),
			commentSpan("2", ClassCommentEnd),
			&ast.Span{Attr: ast.Attr{ID: "1", Classes: []string{ClassCommentEnd}}},
		}},
	}}

	assert.Equal(t, 3, Annotate(doc, g))
	assert.Equal(t, 0, Annotate(doc, g))

	para := doc.Blocks[0].(*ast.Para)
	root := para.Inlines[0].(*ast.Span)
	assert.Empty(t, root.Attr.ID)
	assert.Equal(t, "1", root.Attr.KVs[0].Value)
	assert.Equal(t, "active", root.Attr.Value(KeyState))
	assert.Equal(t, "1111AAAA", root.Attr.Value(KeyParaID))
	_, hasParent := root.Attr.Get(KeyParent)
	assert.False(t, hasParent)

	reply := para.Inlines[1].(*ast.Span)
	assert.Equal(t, "1", reply.Attr.Value(KeyParent))
	assert.Equal(t, "resolved", reply.Attr.Value(KeyState))

	assert.Equal(t, 1, StripTransportAttrs(doc))
	_, hasPara := root.Attr.Get(KeyParaID)
	assert.False(t, hasPara)
}

func TestAnchorTexts(t *testing.T) {
	doc := docxShapedDoc()
	doc.Blocks = append(doc.Blocks, &ast.Para{Inlines: []ast.Inline{
		commentSpan("3", ClassCommentStart),
		&ast.Str{Text: "dangling"},
		&ast.Space{},
		&ast.Str{Text: "range"},
	}})

	got := AnchorTexts(doc)
	assert.Equal(t, map[string]string{
		"1": "target",
		"2": "target",
		"3": "dangling range",
	}, got)
}
