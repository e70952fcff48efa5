package ast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{"pandoc-api-version":[1,23,1],"meta":{},"blocks":[
{"t":"Header","c":[1,["intro",[],[]],[{"t":"Str","c":"Intro"}]]},
{"t":"Para","c":[
  {"t":"Span","c":[["",["comment-start"],[["id","1"],["author","Ann"]]],[{"t":"Str","c":"Note"}]]},
  {"t":"Str","c":"Hello"},{"t":"Space"},
  {"t":"Emph","c":[{"t":"Str","c":"world"}]},{"t":"SoftBreak"},
  {"t":"Quoted","c":[{"t":"SingleQuote"},[{"t":"Str","c":"q"}]]},
  {"t":"Math","c":[{"t":"InlineMath"},"x^2"]},
  {"t":"Link","c":[["",[],[]],[{"t":"Str","c":"site"}],["https://example.com",""]]},
  {"t":"Image","c":[["",[],[["width","0.01in"]]],[],["media/image1.png","shape"]]},
  {"t":"Note","c":[{"t":"Para","c":[{"t":"Str","c":"fn"}]}]},
  {"t":"Span","c":[["",["comment-end"],[["id","1"]]],[]]},
  {"t":"Future","c":[1,2]}
]},
{"t":"BlockQuote","c":[{"t":"RawBlock","c":["html","<!--x-->"]}]},
{"t":"OrderedList","c":[[3,{"t":"LowerAlpha"},{"t":"OneParen"}],[[{"t":"Plain","c":[{"t":"Str","c":"a"}]}]]]},
{"t":"BulletList","c":[[{"t":"Plain","c":[]}]]},
{"t":"DefinitionList","c":[[[{"t":"Str","c":"term"}],[[{"t":"Para","c":[{"t":"Str","c":"def"}]}]]]]},
{"t":"CodeBlock","c":[["",["go"],[]],"x := 1"]},
{"t":"HorizontalRule"},
{"t":"Div","c":[["d",["c"],[]],[{"t":"Para","c":[{"t":"Code","c":[["",[],[]],"code"]}]}]]},
{"t":"Table","c":[["",[],[]],[null,[]],[[{"t":"AlignDefault"},{"t":"ColWidthDefault"}]],
  [["",[],[]],[[["",[],[]],[[["",[],[]],{"t":"AlignDefault"},1,1,[{"t":"Plain","c":[{"t":"Str","c":"H"}]}]]]]]],
  [[["",[],[]],0,[],[[["",[],[]],[[["",[],[]],{"t":"AlignLeft"},1,1,[{"t":"Plain","c":[{"t":"Str","c":"B"}]}]]]]]]],
  [["",[],[]],[]]]},
{"t":"Figure","c":[["fig",[],[]],[null,[{"t":"Plain","c":[{"t":"Str","c":"cap"}]}]],[{"t":"Plain","c":[{"t":"Str","c":"img"}]}]]},
{"t":"LineBlock","c":[[{"t":"Str","c":"l1"}],[{"t":"Str","c":"l2"}]]}
]}`

func TestDecodeEncode_RoundTrip(t *testing.T) {
	doc, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 12)

	out, err := Encode(doc)
	require.NoError(t, err)
	assert.JSONEq(t, sampleDoc, string(out))
}

func TestDecode_Types(t *testing.T) {
	doc, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)

	para, ok := doc.Blocks[1].(*Para)
	require.True(t, ok)
	span, ok := para.Inlines[0].(*Span)
	require.True(t, ok)
	assert.True(t, span.Attr.HasClass("comment-start"))
	assert.Equal(t, "Ann", span.Attr.Value("author"))

	styled, ok := para.Inlines[3].(*Styled)
	require.True(t, ok)
	assert.Equal(t, "Emph", styled.Tag)

	unknown, ok := para.Inlines[len(para.Inlines)-1].(*UnknownInline)
	require.True(t, ok)
	assert.Equal(t, "Future", unknown.Tag)

	table, ok := doc.Blocks[9].(*Table)
	require.True(t, ok)
	require.Len(t, table.Bodies, 1)
	assert.Equal(t, 1, table.Bodies[0].Body[0].Cells[0].ColSpan)
}

func TestEncode_EmptyListsAreNotNull(t *testing.T) {
	doc := &Document{
		APIVersion: []int{1, 23},
		Blocks: []Block{
			&Para{},
			&BlockQuote{},
			&Plain{Inlines: []Inline{&Span{}}},
		},
	}
	out, err := Encode(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pandoc-api-version":[1,23],"meta":{},"blocks":[
		{"t":"Para","c":[]},
		{"t":"BlockQuote","c":[]},
		{"t":"Plain","c":[{"t":"Span","c":[["",[],[]],[]]}]}
	]}`, string(out))
}

func TestEncode_DoesNotEscapeHTML(t *testing.T) {
	doc := &Document{APIVersion: []int{1, 23}, Blocks: []Block{&RawBlock{Format: "html", Text: "<!--CARD_META{#1}-->"}}}
	out, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<!--CARD_META{#1}-->")
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"missing version", `{"meta":{},"blocks":[]}`},
		{"bad header", `{"pandoc-api-version":[1,23],"meta":{},"blocks":[{"t":"Header","c":[1]}]}`},
		{"bad attr", `{"pandoc-api-version":[1,23],"meta":{},"blocks":[{"t":"Div","c":[["x"],[]]}]}`},
		{"str not string", `{"pandoc-api-version":[1,23],"meta":{},"blocks":[{"t":"Para","c":[{"t":"Str","c":1}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedAST), "got %v", err)
		})
	}
}
