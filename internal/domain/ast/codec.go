package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedAST is returned when JSON does not have the pandoc shape.
var ErrMalformedAST = errors.New("malformed pandoc AST")

// ShapeError describes the first shape mismatch found while decoding.
type ShapeError struct {
	Node   string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("malformed pandoc AST at %s: %s", e.Node, e.Reason)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrMalformedAST
}

func shapeErr(node, format string, args ...any) error {
	return &ShapeError{Node: node, Reason: fmt.Sprintf(format, args...)}
}

type rawNode struct {
	T string          `json:"t"`
	C json.RawMessage `json:"c,omitempty"`
}

type rawDocument struct {
	APIVersion []int             `json:"pandoc-api-version"`
	Meta       json.RawMessage   `json:"meta"`
	Blocks     []json.RawMessage `json:"blocks"`
}

// Decode parses pandoc JSON output into a Document.
func Decode(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ShapeError{Node: "document", Reason: err.Error()}
	}
	if raw.APIVersion == nil {
		return nil, shapeErr("document", "missing pandoc-api-version")
	}
	doc := &Document{APIVersion: raw.APIVersion, Meta: raw.Meta}
	for _, b := range raw.Blocks {
		block, err := decodeBlock(b)
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, block)
	}
	return doc, nil
}

// Encode serializes a Document to pandoc JSON.
func Encode(doc *Document) ([]byte, error) {
	meta := doc.Meta
	if len(bytes.TrimSpace(meta)) == 0 || bytes.Equal(bytes.TrimSpace(meta), []byte("null")) {
		meta = json.RawMessage("{}")
	}
	version := doc.APIVersion
	if version == nil {
		version = []int{}
	}
	out := struct {
		APIVersion []int           `json:"pandoc-api-version"`
		Meta       json.RawMessage `json:"meta"`
		Blocks     []any           `json:"blocks"`
	}{version, meta, encodeBlocks(doc.Blocks)}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode pandoc AST: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// tuple splits a JSON array and checks its length.
func tuple(node string, raw json.RawMessage, n int) ([]json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, shapeErr(node, "expected array: %v", err)
	}
	if len(parts) != n {
		return nil, shapeErr(node, "expected %d fields, got %d", n, len(parts))
	}
	return parts, nil
}

func decodeString(node string, raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", shapeErr(node, "expected string")
	}
	return s, nil
}

func decodeInt(node string, raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, shapeErr(node, "expected integer")
	}
	return n, nil
}

func decodeTag(node string, raw json.RawMessage) (string, error) {
	var n rawNode
	if err := json.Unmarshal(raw, &n); err != nil || n.T == "" {
		return "", shapeErr(node, "expected tagged object")
	}
	return n.T, nil
}

func decodeAttr(raw json.RawMessage) (Attr, error) {
	parts, err := tuple("Attr", raw, 3)
	if err != nil {
		return Attr{}, err
	}
	var a Attr
	if a.ID, err = decodeString("Attr", parts[0]); err != nil {
		return Attr{}, err
	}
	if err := json.Unmarshal(parts[1], &a.Classes); err != nil {
		return Attr{}, shapeErr("Attr", "expected class list")
	}
	var kvs [][]string
	if err := json.Unmarshal(parts[2], &kvs); err != nil {
		return Attr{}, shapeErr("Attr", "expected key/value list")
	}
	for _, kv := range kvs {
		if len(kv) != 2 {
			return Attr{}, shapeErr("Attr", "key/value pair with %d items", len(kv))
		}
		a.KVs = append(a.KVs, KeyValue{Key: kv[0], Value: kv[1]})
	}
	return a, nil
}

func decodeInlines(raw json.RawMessage) ([]Inline, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, shapeErr("inlines", "expected array")
	}
	out := make([]Inline, 0, len(items))
	for _, item := range items {
		in, err := decodeInline(item)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func decodeBlocks(raw json.RawMessage) ([]Block, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, shapeErr("blocks", "expected array")
	}
	out := make([]Block, 0, len(items))
	for _, item := range items {
		b, err := decodeBlock(item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func decodeBlockLists(raw json.RawMessage) ([][]Block, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, shapeErr("list items", "expected array")
	}
	out := make([][]Block, 0, len(items))
	for _, item := range items {
		blocks, err := decodeBlocks(item)
		if err != nil {
			return nil, err
		}
		out = append(out, blocks)
	}
	return out, nil
}

func decodeBlock(raw json.RawMessage) (Block, error) {
	var n rawNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, shapeErr("block", "expected object: %v", err)
	}
	switch n.T {
	case "Plain", "Para":
		inlines, err := decodeInlines(n.C)
		if err != nil {
			return nil, err
		}
		if n.T == "Plain" {
			return &Plain{Inlines: inlines}, nil
		}
		return &Para{Inlines: inlines}, nil
	case "LineBlock":
		var lines []json.RawMessage
		if err := json.Unmarshal(n.C, &lines); err != nil {
			return nil, shapeErr(n.T, "expected array")
		}
		lb := &LineBlock{Lines: make([][]Inline, 0, len(lines))}
		for _, line := range lines {
			inlines, err := decodeInlines(line)
			if err != nil {
				return nil, err
			}
			lb.Lines = append(lb.Lines, inlines)
		}
		return lb, nil
	case "CodeBlock":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		text, err := decodeString(n.T, parts[1])
		if err != nil {
			return nil, err
		}
		return &CodeBlock{Attr: attr, Text: text}, nil
	case "RawBlock":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		format, err := decodeString(n.T, parts[0])
		if err != nil {
			return nil, err
		}
		text, err := decodeString(n.T, parts[1])
		if err != nil {
			return nil, err
		}
		return &RawBlock{Format: format, Text: text}, nil
	case "BlockQuote":
		blocks, err := decodeBlocks(n.C)
		if err != nil {
			return nil, err
		}
		return &BlockQuote{Blocks: blocks}, nil
	case "OrderedList":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		items, err := decodeBlockLists(parts[1])
		if err != nil {
			return nil, err
		}
		return &OrderedList{ListAttrs: parts[0], Items: items}, nil
	case "BulletList":
		items, err := decodeBlockLists(n.C)
		if err != nil {
			return nil, err
		}
		return &BulletList{Items: items}, nil
	case "DefinitionList":
		var entries []json.RawMessage
		if err := json.Unmarshal(n.C, &entries); err != nil {
			return nil, shapeErr(n.T, "expected array")
		}
		dl := &DefinitionList{Items: make([]DefinitionItem, 0, len(entries))}
		for _, entry := range entries {
			parts, err := tuple(n.T, entry, 2)
			if err != nil {
				return nil, err
			}
			term, err := decodeInlines(parts[0])
			if err != nil {
				return nil, err
			}
			defs, err := decodeBlockLists(parts[1])
			if err != nil {
				return nil, err
			}
			dl.Items = append(dl.Items, DefinitionItem{Term: term, Definitions: defs})
		}
		return dl, nil
	case "Header":
		parts, err := tuple(n.T, n.C, 3)
		if err != nil {
			return nil, err
		}
		level, err := decodeInt(n.T, parts[0])
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[1])
		if err != nil {
			return nil, err
		}
		inlines, err := decodeInlines(parts[2])
		if err != nil {
			return nil, err
		}
		return &Header{Level: level, Attr: attr, Inlines: inlines}, nil
	case "HorizontalRule":
		return &HorizontalRule{}, nil
	case "Table":
		return decodeTable(n.C)
	case "Figure":
		parts, err := tuple(n.T, n.C, 3)
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		caption, err := decodeCaption(parts[1])
		if err != nil {
			return nil, err
		}
		blocks, err := decodeBlocks(parts[2])
		if err != nil {
			return nil, err
		}
		return &Figure{Attr: attr, Caption: caption, Blocks: blocks}, nil
	case "Div":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		blocks, err := decodeBlocks(parts[1])
		if err != nil {
			return nil, err
		}
		return &Div{Attr: attr, Blocks: blocks}, nil
	case "":
		return nil, shapeErr("block", "missing tag")
	default:
		return &UnknownBlock{Tag: n.T, Content: n.C}, nil
	}
}

func decodeCaption(raw json.RawMessage) (Caption, error) {
	parts, err := tuple("Caption", raw, 2)
	if err != nil {
		return Caption{}, err
	}
	blocks, err := decodeBlocks(parts[1])
	if err != nil {
		return Caption{}, err
	}
	return Caption{Short: parts[0], Blocks: blocks}, nil
}

func decodeRows(raw json.RawMessage) ([]Row, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, shapeErr("Row", "expected array")
	}
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		parts, err := tuple("Row", item, 2)
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		var rawCells []json.RawMessage
		if err := json.Unmarshal(parts[1], &rawCells); err != nil {
			return nil, shapeErr("Row", "expected cell list")
		}
		row := Row{Attr: attr, Cells: make([]Cell, 0, len(rawCells))}
		for _, rc := range rawCells {
			cell, err := decodeCell(rc)
			if err != nil {
				return nil, err
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeCell(raw json.RawMessage) (Cell, error) {
	parts, err := tuple("Cell", raw, 5)
	if err != nil {
		return Cell{}, err
	}
	attr, err := decodeAttr(parts[0])
	if err != nil {
		return Cell{}, err
	}
	rowSpan, err := decodeInt("Cell", parts[2])
	if err != nil {
		return Cell{}, err
	}
	colSpan, err := decodeInt("Cell", parts[3])
	if err != nil {
		return Cell{}, err
	}
	blocks, err := decodeBlocks(parts[4])
	if err != nil {
		return Cell{}, err
	}
	return Cell{Attr: attr, Align: parts[1], RowSpan: rowSpan, ColSpan: colSpan, Blocks: blocks}, nil
}

func decodeTable(raw json.RawMessage) (Block, error) {
	parts, err := tuple("Table", raw, 6)
	if err != nil {
		return nil, err
	}
	t := &Table{ColSpecs: parts[2]}
	if t.Attr, err = decodeAttr(parts[0]); err != nil {
		return nil, err
	}
	if t.Caption, err = decodeCaption(parts[1]); err != nil {
		return nil, err
	}

	head, err := tuple("TableHead", parts[3], 2)
	if err != nil {
		return nil, err
	}
	if t.Head.Attr, err = decodeAttr(head[0]); err != nil {
		return nil, err
	}
	if t.Head.Rows, err = decodeRows(head[1]); err != nil {
		return nil, err
	}

	var bodies []json.RawMessage
	if err := json.Unmarshal(parts[4], &bodies); err != nil {
		return nil, shapeErr("TableBody", "expected array")
	}
	for _, rb := range bodies {
		bp, err := tuple("TableBody", rb, 4)
		if err != nil {
			return nil, err
		}
		var body TableBody
		if body.Attr, err = decodeAttr(bp[0]); err != nil {
			return nil, err
		}
		if body.RowHeadCols, err = decodeInt("TableBody", bp[1]); err != nil {
			return nil, err
		}
		if body.Head, err = decodeRows(bp[2]); err != nil {
			return nil, err
		}
		if body.Body, err = decodeRows(bp[3]); err != nil {
			return nil, err
		}
		t.Bodies = append(t.Bodies, body)
	}

	foot, err := tuple("TableFoot", parts[5], 2)
	if err != nil {
		return nil, err
	}
	if t.Foot.Attr, err = decodeAttr(foot[0]); err != nil {
		return nil, err
	}
	if t.Foot.Rows, err = decodeRows(foot[1]); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeTarget(raw json.RawMessage) (Target, error) {
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return Target{}, shapeErr("Target", "expected [url, title]")
	}
	return Target{URL: pair[0], Title: pair[1]}, nil
}

func decodeInline(raw json.RawMessage) (Inline, error) {
	var n rawNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, shapeErr("inline", "expected object: %v", err)
	}
	switch n.T {
	case "Str":
		text, err := decodeString(n.T, n.C)
		if err != nil {
			return nil, err
		}
		return &Str{Text: text}, nil
	case "Emph", "Underline", "Strong", "Strikeout", "Superscript", "Subscript", "SmallCaps":
		inlines, err := decodeInlines(n.C)
		if err != nil {
			return nil, err
		}
		return &Styled{Tag: n.T, Inlines: inlines}, nil
	case "Quoted":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		qt, err := decodeTag(n.T, parts[0])
		if err != nil {
			return nil, err
		}
		inlines, err := decodeInlines(parts[1])
		if err != nil {
			return nil, err
		}
		return &Quoted{QuoteType: qt, Inlines: inlines}, nil
	case "Cite":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		inlines, err := decodeInlines(parts[1])
		if err != nil {
			return nil, err
		}
		return &Cite{Citations: parts[0], Inlines: inlines}, nil
	case "Code":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		text, err := decodeString(n.T, parts[1])
		if err != nil {
			return nil, err
		}
		return &Code{Attr: attr, Text: text}, nil
	case "Space":
		return &Space{}, nil
	case "SoftBreak":
		return &SoftBreak{}, nil
	case "LineBreak":
		return &LineBreak{}, nil
	case "Math":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		mt, err := decodeTag(n.T, parts[0])
		if err != nil {
			return nil, err
		}
		text, err := decodeString(n.T, parts[1])
		if err != nil {
			return nil, err
		}
		return &Math{MathType: mt, Text: text}, nil
	case "RawInline":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		format, err := decodeString(n.T, parts[0])
		if err != nil {
			return nil, err
		}
		text, err := decodeString(n.T, parts[1])
		if err != nil {
			return nil, err
		}
		return &RawInline{Format: format, Text: text}, nil
	case "Link", "Image":
		parts, err := tuple(n.T, n.C, 3)
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		inlines, err := decodeInlines(parts[1])
		if err != nil {
			return nil, err
		}
		target, err := decodeTarget(parts[2])
		if err != nil {
			return nil, err
		}
		if n.T == "Image" {
			return &Image{Attr: attr, Inlines: inlines, Target: target}, nil
		}
		return &Link{Attr: attr, Inlines: inlines, Target: target}, nil
	case "Note":
		blocks, err := decodeBlocks(n.C)
		if err != nil {
			return nil, err
		}
		return &Note{Blocks: blocks}, nil
	case "Span":
		parts, err := tuple(n.T, n.C, 2)
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttr(parts[0])
		if err != nil {
			return nil, err
		}
		inlines, err := decodeInlines(parts[1])
		if err != nil {
			return nil, err
		}
		return &Span{Attr: attr, Inlines: inlines}, nil
	case "":
		return nil, shapeErr("inline", "missing tag")
	default:
		return &UnknownInline{Tag: n.T, Content: n.C}, nil
	}
}

// Encoding builds generic values so empty lists always serialize as [].

type encNode struct {
	T string `json:"t"`
	C any    `json:"c,omitempty"`
}

func tagged(tag string) encNode {
	return encNode{T: tag}
}

func encodeAttr(a Attr) []any {
	classes := make([]string, 0, len(a.Classes))
	classes = append(classes, a.Classes...)
	kvs := make([][]string, 0, len(a.KVs))
	for _, kv := range a.KVs {
		kvs = append(kvs, []string{kv.Key, kv.Value})
	}
	return []any{a.ID, classes, kvs}
}

func encodeInlines(inlines []Inline) []any {
	out := make([]any, 0, len(inlines))
	for _, in := range inlines {
		out = append(out, encodeInline(in))
	}
	return out
}

func encodeBlocks(blocks []Block) []any {
	out := make([]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, encodeBlock(b))
	}
	return out
}

func encodeBlockLists(lists [][]Block) []any {
	out := make([]any, 0, len(lists))
	for _, l := range lists {
		out = append(out, encodeBlocks(l))
	}
	return out
}

func rawOr(raw json.RawMessage, fallback string) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage(fallback)
	}
	return raw
}

func encodeCaption(c Caption) []any {
	return []any{rawOr(c.Short, "null"), encodeBlocks(c.Blocks)}
}

func encodeRows(rows []Row) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		cells := make([]any, 0, len(r.Cells))
		for _, c := range r.Cells {
			cells = append(cells, []any{
				encodeAttr(c.Attr),
				rawOr(c.Align, `{"t":"AlignDefault"}`),
				c.RowSpan,
				c.ColSpan,
				encodeBlocks(c.Blocks),
			})
		}
		out = append(out, []any{encodeAttr(r.Attr), cells})
	}
	return out
}

func encodeBlock(b Block) any {
	switch v := b.(type) {
	case *Plain:
		return encNode{"Plain", encodeInlines(v.Inlines)}
	case *Para:
		return encNode{"Para", encodeInlines(v.Inlines)}
	case *LineBlock:
		lines := make([]any, 0, len(v.Lines))
		for _, l := range v.Lines {
			lines = append(lines, encodeInlines(l))
		}
		return encNode{"LineBlock", lines}
	case *CodeBlock:
		return encNode{"CodeBlock", []any{encodeAttr(v.Attr), v.Text}}
	case *RawBlock:
		return encNode{"RawBlock", []any{v.Format, v.Text}}
	case *BlockQuote:
		return encNode{"BlockQuote", encodeBlocks(v.Blocks)}
	case *OrderedList:
		return encNode{"OrderedList", []any{
			rawOr(v.ListAttrs, `[1,{"t":"Decimal"},{"t":"Period"}]`),
			encodeBlockLists(v.Items),
		}}
	case *BulletList:
		return encNode{"BulletList", encodeBlockLists(v.Items)}
	case *DefinitionList:
		items := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			items = append(items, []any{encodeInlines(item.Term), encodeBlockLists(item.Definitions)})
		}
		return encNode{"DefinitionList", items}
	case *Header:
		return encNode{"Header", []any{v.Level, encodeAttr(v.Attr), encodeInlines(v.Inlines)}}
	case *HorizontalRule:
		return tagged("HorizontalRule")
	case *Table:
		bodies := make([]any, 0, len(v.Bodies))
		for _, body := range v.Bodies {
			bodies = append(bodies, []any{
				encodeAttr(body.Attr), body.RowHeadCols, encodeRows(body.Head), encodeRows(body.Body),
			})
		}
		return encNode{"Table", []any{
			encodeAttr(v.Attr),
			encodeCaption(v.Caption),
			rawOr(v.ColSpecs, "[]"),
			[]any{encodeAttr(v.Head.Attr), encodeRows(v.Head.Rows)},
			bodies,
			[]any{encodeAttr(v.Foot.Attr), encodeRows(v.Foot.Rows)},
		}}
	case *Figure:
		return encNode{"Figure", []any{encodeAttr(v.Attr), encodeCaption(v.Caption), encodeBlocks(v.Blocks)}}
	case *Div:
		return encNode{"Div", []any{encodeAttr(v.Attr), encodeBlocks(v.Blocks)}}
	case *UnknownBlock:
		return encodeUnknown(v.Tag, v.Content)
	default:
		panic(fmt.Sprintf("ast: unhandled block type %T", b))
	}
}

func encodeInline(in Inline) any {
	switch v := in.(type) {
	case *Str:
		return encNode{"Str", v.Text}
	case *Styled:
		return encNode{v.Tag, encodeInlines(v.Inlines)}
	case *Quoted:
		return encNode{"Quoted", []any{tagged(v.QuoteType), encodeInlines(v.Inlines)}}
	case *Cite:
		return encNode{"Cite", []any{rawOr(v.Citations, "[]"), encodeInlines(v.Inlines)}}
	case *Code:
		return encNode{"Code", []any{encodeAttr(v.Attr), v.Text}}
	case *Space:
		return tagged("Space")
	case *SoftBreak:
		return tagged("SoftBreak")
	case *LineBreak:
		return tagged("LineBreak")
	case *Math:
		return encNode{"Math", []any{tagged(v.MathType), v.Text}}
	case *RawInline:
		return encNode{"RawInline", []any{v.Format, v.Text}}
	case *Link:
		return encNode{"Link", []any{encodeAttr(v.Attr), encodeInlines(v.Inlines), []string{v.Target.URL, v.Target.Title}}}
	case *Image:
		return encNode{"Image", []any{encodeAttr(v.Attr), encodeInlines(v.Inlines), []string{v.Target.URL, v.Target.Title}}}
	case *Note:
		return encNode{"Note", encodeBlocks(v.Blocks)}
	case *Span:
		return encNode{"Span", []any{encodeAttr(v.Attr), encodeInlines(v.Inlines)}}
	case *UnknownInline:
		return encodeUnknown(v.Tag, v.Content)
	default:
		panic(fmt.Sprintf("ast: unhandled inline type %T", in))
	}
}

func encodeUnknown(tag string, content json.RawMessage) encNode {
	if len(bytes.TrimSpace(content)) == 0 {
		return tagged(tag)
	}
	return encNode{tag, content}
}
