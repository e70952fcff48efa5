package ast

// MapInlines rewrites every inline list reachable from blocks. fn sees a
// list before its nodes are descended into, so nodes fn drops or replaces
// are never visited.
func MapInlines(blocks []Block, fn func([]Inline) []Inline) {
	for _, b := range blocks {
		mapBlockInlines(b, fn)
	}
}

func mapBlockInlines(b Block, fn func([]Inline) []Inline) {
	switch v := b.(type) {
	case *Plain:
		v.Inlines = mapInlineList(v.Inlines, fn)
	case *Para:
		v.Inlines = mapInlineList(v.Inlines, fn)
	case *LineBlock:
		for i := range v.Lines {
			v.Lines[i] = mapInlineList(v.Lines[i], fn)
		}
	case *Header:
		v.Inlines = mapInlineList(v.Inlines, fn)
	case *BlockQuote:
		MapInlines(v.Blocks, fn)
	case *OrderedList:
		for _, item := range v.Items {
			MapInlines(item, fn)
		}
	case *BulletList:
		for _, item := range v.Items {
			MapInlines(item, fn)
		}
	case *DefinitionList:
		for i := range v.Items {
			v.Items[i].Term = mapInlineList(v.Items[i].Term, fn)
			for _, def := range v.Items[i].Definitions {
				MapInlines(def, fn)
			}
		}
	case *Div:
		MapInlines(v.Blocks, fn)
	case *Figure:
		MapInlines(v.Caption.Blocks, fn)
		MapInlines(v.Blocks, fn)
	case *Table:
		MapInlines(v.Caption.Blocks, fn)
		v.eachCell(func(c *Cell) { MapInlines(c.Blocks, fn) })
	}
}

func mapInlineList(inlines []Inline, fn func([]Inline) []Inline) []Inline {
	inlines = fn(inlines)
	for _, in := range inlines {
		switch v := in.(type) {
		case *Styled:
			v.Inlines = mapInlineList(v.Inlines, fn)
		case *Quoted:
			v.Inlines = mapInlineList(v.Inlines, fn)
		case *Cite:
			v.Inlines = mapInlineList(v.Inlines, fn)
		case *Link:
			v.Inlines = mapInlineList(v.Inlines, fn)
		case *Image:
			v.Inlines = mapInlineList(v.Inlines, fn)
		case *Span:
			v.Inlines = mapInlineList(v.Inlines, fn)
		case *Note:
			MapInlines(v.Blocks, fn)
		}
	}
	return inlines
}

// VisitSpans calls fn for every span reachable from blocks, outermost first.
func VisitSpans(blocks []Block, fn func(*Span)) {
	MapInlines(blocks, func(inlines []Inline) []Inline {
		for _, in := range inlines {
			if s, ok := in.(*Span); ok {
				fn(s)
			}
		}
		return inlines
	})
}

// VisitInlines calls fn for every inline reachable from blocks in
// document order. Returning false from fn skips the node's children.
func VisitInlines(blocks []Block, fn func(Inline) bool) {
	for _, b := range blocks {
		visitBlock(b, fn)
	}
}

func visitBlock(b Block, fn func(Inline) bool) {
	switch v := b.(type) {
	case *Plain:
		visitInlineList(v.Inlines, fn)
	case *Para:
		visitInlineList(v.Inlines, fn)
	case *LineBlock:
		for _, line := range v.Lines {
			visitInlineList(line, fn)
		}
	case *Header:
		visitInlineList(v.Inlines, fn)
	case *BlockQuote:
		VisitInlines(v.Blocks, fn)
	case *OrderedList:
		for _, item := range v.Items {
			VisitInlines(item, fn)
		}
	case *BulletList:
		for _, item := range v.Items {
			VisitInlines(item, fn)
		}
	case *DefinitionList:
		for _, item := range v.Items {
			visitInlineList(item.Term, fn)
			for _, def := range item.Definitions {
				VisitInlines(def, fn)
			}
		}
	case *Div:
		VisitInlines(v.Blocks, fn)
	case *Figure:
		VisitInlines(v.Caption.Blocks, fn)
		VisitInlines(v.Blocks, fn)
	case *Table:
		VisitInlines(v.Caption.Blocks, fn)
		v.eachCell(func(c *Cell) { VisitInlines(c.Blocks, fn) })
	}
}

func visitInlineList(inlines []Inline, fn func(Inline) bool) {
	for _, in := range inlines {
		if !fn(in) {
			continue
		}
		if children := InlineChildren(in); children != nil {
			visitInlineList(children, fn)
		}
		if n, ok := in.(*Note); ok {
			VisitInlines(n.Blocks, fn)
		}
	}
}

// InlineChildren returns the nested inline list of a container node.
func InlineChildren(in Inline) []Inline {
	switch v := in.(type) {
	case *Styled:
		return v.Inlines
	case *Quoted:
		return v.Inlines
	case *Cite:
		return v.Inlines
	case *Link:
		return v.Inlines
	case *Image:
		return v.Inlines
	case *Span:
		return v.Inlines
	}
	return nil
}

// MapBlocks rewrites every block list reachable from blocks, including the
// top-level list itself, and returns the new top-level list. fn sees a list
// before its blocks are descended into.
func MapBlocks(blocks []Block, fn func([]Block) []Block) []Block {
	blocks = fn(blocks)
	for _, b := range blocks {
		switch v := b.(type) {
		case *BlockQuote:
			v.Blocks = MapBlocks(v.Blocks, fn)
		case *OrderedList:
			for i := range v.Items {
				v.Items[i] = MapBlocks(v.Items[i], fn)
			}
		case *BulletList:
			for i := range v.Items {
				v.Items[i] = MapBlocks(v.Items[i], fn)
			}
		case *DefinitionList:
			for i := range v.Items {
				for j := range v.Items[i].Definitions {
					v.Items[i].Definitions[j] = MapBlocks(v.Items[i].Definitions[j], fn)
				}
			}
		case *Div:
			v.Blocks = MapBlocks(v.Blocks, fn)
		case *Figure:
			v.Blocks = MapBlocks(v.Blocks, fn)
		case *Table:
			v.eachCell(func(c *Cell) { c.Blocks = MapBlocks(c.Blocks, fn) })
		}
	}
	return blocks
}

func (t *Table) eachCell(fn func(*Cell)) {
	rows := func(rs []Row) {
		for i := range rs {
			for j := range rs[i].Cells {
				fn(&rs[i].Cells[j])
			}
		}
	}
	rows(t.Head.Rows)
	for i := range t.Bodies {
		rows(t.Bodies[i].Head)
		rows(t.Bodies[i].Body)
	}
	rows(t.Foot.Rows)
}

// VisitBlocks calls fn for every block reachable from blocks, parents first.
func VisitBlocks(blocks []Block, fn func(Block)) {
	MapBlocks(blocks, func(bs []Block) []Block {
		for _, b := range bs {
			fn(b)
		}
		return bs
	})
}
