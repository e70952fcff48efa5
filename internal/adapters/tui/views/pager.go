package views

import "fmt"

// threadPager pages over the visible rows of the thread tree. Replacing
// the rows after a collapse or expand keeps the cursor on the same comment.
type threadPager struct {
	size   int
	rows   []*threadNode
	cursor int
	offset int
}

func newThreadPager(size int) *threadPager {
	if size <= 0 {
		size = 10
	}
	return &threadPager{size: size}
}

// SetRows replaces the visible rows. The selection follows the previously
// selected comment, or its nearest visible ancestor when it was hidden.
func (p *threadPager) SetRows(rows []*threadNode) {
	selected := p.Selected()
	p.rows = rows
	for n := selected; n != nil; n = n.parent {
		if p.Select(n) {
			return
		}
	}
	p.moveTo(p.cursor)
}

// Rows returns every visible row
func (p *threadPager) Rows() []*threadNode {
	return p.rows
}

// Selected returns the row under the cursor, or nil when there are none
func (p *threadPager) Selected() *threadNode {
	if p.cursor >= 0 && p.cursor < len(p.rows) {
		return p.rows[p.cursor]
	}
	return nil
}

// Select moves the cursor to n and reports whether n is visible
func (p *threadPager) Select(n *threadNode) bool {
	for i, row := range p.rows {
		if row == n {
			p.moveTo(i)
			return true
		}
	}
	return false
}

// Up moves the cursor one row up
func (p *threadPager) Up() {
	p.moveTo(p.cursor - 1)
}

// Down moves the cursor one row down
func (p *threadPager) Down() {
	p.moveTo(p.cursor + 1)
}

// NextThread moves the cursor to the next root comment
func (p *threadPager) NextThread() {
	for i := p.cursor + 1; i < len(p.rows); i++ {
		if p.rows[i].depth == 0 {
			p.moveTo(i)
			return
		}
	}
}

// PrevThread moves the cursor to the root of the current thread, or to the
// previous root when it is already on one
func (p *threadPager) PrevThread() {
	for i := p.cursor - 1; i >= 0; i-- {
		if p.rows[i].depth == 0 {
			p.moveTo(i)
			return
		}
	}
}

// NextPage moves the cursor to the first row of the next page
func (p *threadPager) NextPage() {
	if p.offset+p.size < len(p.rows) {
		p.moveTo(p.offset + p.size)
	}
}

// PrevPage moves the cursor to the first row of the previous page
func (p *threadPager) PrevPage() {
	if p.offset > 0 {
		p.moveTo(p.offset - p.size)
	}
}

// Page returns the rows of the current page
func (p *threadPager) Page() []*threadNode {
	end := min(p.offset+p.size, len(p.rows))
	return p.rows[p.offset:end]
}

// Indicator reads "page n/total", or "" when everything fits on one page
func (p *threadPager) Indicator() string {
	total := (len(p.rows) + p.size - 1) / p.size
	if total <= 1 {
		return ""
	}
	return fmt.Sprintf("page %d/%d", p.offset/p.size+1, total)
}

func (p *threadPager) moveTo(i int) {
	i = min(i, len(p.rows)-1)
	p.cursor = max(i, 0)
	p.offset = (p.cursor / p.size) * p.size
}
