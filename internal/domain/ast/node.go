// Package ast models the pandoc JSON document tree as a closed set of node
// types. Anything outside the known set round-trips untouched through
// UnknownBlock and UnknownInline.
package ast

import "encoding/json"

// Document is a pandoc document.
type Document struct {
	APIVersion []int
	Meta       json.RawMessage
	Blocks     []Block
}

// Block is a block-level node.
type Block interface {
	isBlock()
}

// Inline is an inline node.
type Inline interface {
	isInline()
}

// Blocks

type Plain struct{ Inlines []Inline }

type Para struct{ Inlines []Inline }

type LineBlock struct{ Lines [][]Inline }

type CodeBlock struct {
	Attr Attr
	Text string
}

type RawBlock struct {
	Format string
	Text   string
}

type BlockQuote struct{ Blocks []Block }

type OrderedList struct {
	ListAttrs json.RawMessage
	Items     [][]Block
}

type BulletList struct{ Items [][]Block }

type DefinitionItem struct {
	Term        []Inline
	Definitions [][]Block
}

type DefinitionList struct{ Items []DefinitionItem }

type Header struct {
	Level   int
	Attr    Attr
	Inlines []Inline
}

type HorizontalRule struct{}

type Caption struct {
	Short  json.RawMessage // null or a list of inlines
	Blocks []Block
}

type Cell struct {
	Attr    Attr
	Align   json.RawMessage
	RowSpan int
	ColSpan int
	Blocks  []Block
}

type Row struct {
	Attr  Attr
	Cells []Cell
}

type TableHead struct {
	Attr Attr
	Rows []Row
}

type TableBody struct {
	Attr        Attr
	RowHeadCols int
	Head        []Row
	Body        []Row
}

type TableFoot struct {
	Attr Attr
	Rows []Row
}

type Table struct {
	Attr     Attr
	Caption  Caption
	ColSpecs json.RawMessage
	Head     TableHead
	Bodies   []TableBody
	Foot     TableFoot
}

type Figure struct {
	Attr    Attr
	Caption Caption
	Blocks  []Block
}

type Div struct {
	Attr   Attr
	Blocks []Block
}

// UnknownBlock keeps a node this package does not model.
type UnknownBlock struct {
	Tag     string
	Content json.RawMessage
}

func (*Plain) isBlock()          {}
func (*Para) isBlock()           {}
func (*LineBlock) isBlock()      {}
func (*CodeBlock) isBlock()      {}
func (*RawBlock) isBlock()       {}
func (*BlockQuote) isBlock()     {}
func (*OrderedList) isBlock()    {}
func (*BulletList) isBlock()     {}
func (*DefinitionList) isBlock() {}
func (*Header) isBlock()         {}
func (*HorizontalRule) isBlock() {}
func (*Table) isBlock()          {}
func (*Figure) isBlock()         {}
func (*Div) isBlock()            {}
func (*UnknownBlock) isBlock()   {}

// Inlines

type Str struct{ Text string }

// Styled covers the constructors that only wrap inlines: Emph, Underline,
// Strong, Strikeout, Superscript, Subscript and SmallCaps.
type Styled struct {
	Tag     string
	Inlines []Inline
}

type Quoted struct {
	QuoteType string // SingleQuote or DoubleQuote
	Inlines   []Inline
}

type Cite struct {
	Citations json.RawMessage
	Inlines   []Inline
}

type Code struct {
	Attr Attr
	Text string
}

type Space struct{}

type SoftBreak struct{}

type LineBreak struct{}

type Math struct {
	MathType string // InlineMath or DisplayMath
	Text     string
}

type RawInline struct {
	Format string
	Text   string
}

type Target struct {
	URL   string
	Title string
}

type Link struct {
	Attr    Attr
	Inlines []Inline
	Target  Target
}

type Image struct {
	Attr    Attr
	Inlines []Inline
	Target  Target
}

type Note struct{ Blocks []Block }

type Span struct {
	Attr    Attr
	Inlines []Inline
}

// UnknownInline keeps a node this package does not model.
type UnknownInline struct {
	Tag     string
	Content json.RawMessage
}

func (*Str) isInline()           {}
func (*Styled) isInline()        {}
func (*Quoted) isInline()        {}
func (*Cite) isInline()          {}
func (*Code) isInline()          {}
func (*Space) isInline()         {}
func (*SoftBreak) isInline()     {}
func (*LineBreak) isInline()     {}
func (*Math) isInline()          {}
func (*RawInline) isInline()     {}
func (*Link) isInline()          {}
func (*Image) isInline()         {}
func (*Note) isInline()          {}
func (*Span) isInline()          {}
func (*UnknownInline) isInline() {}

var styledTags = map[string]bool{
	"Emph":        true,
	"Underline":   true,
	"Strong":      true,
	"Strikeout":   true,
	"Superscript": true,
	"Subscript":   true,
	"SmallCaps":   true,
}

// IsStyledTag reports whether tag is one of the Styled constructors.
func IsStyledTag(tag string) bool {
	return styledTags[tag]
}
