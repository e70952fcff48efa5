package domain

import (
	"fmt"
	"slices"
	"strings"
)

// State is the resolution state of a comment.
type State string

const (
	StateActive   State = "active"
	StateResolved State = "resolved"
)

// ParseState maps any token to a State. Anything but "resolved" is active.
func ParseState(token string) State {
	if strings.EqualFold(strings.TrimSpace(token), string(StateResolved)) {
		return StateResolved
	}
	return StateActive
}

// Resolved reports whether the state is resolved.
func (s State) Resolved() bool {
	return s == StateResolved
}

// Presence is the author identity metadata Word keeps in people.xml.
type Presence struct {
	ProviderID string
	UserID     string
}

// IsZero reports whether no presence data is set.
func (p Presence) IsZero() bool {
	return p.ProviderID == "" && p.UserID == ""
}

// Comment is one review comment
type Comment struct {
	ID         string
	Author     string
	Date       string // ISO-8601 or empty
	Body       string // normalized, newline separated
	State      State
	ParentID   string // empty for roots
	ParaID     string
	DurableID  string
	Presence   Presence
	AnchorText string // best-effort snapshot, diagnostics only
}

// IsReply reports whether the comment names a parent.
func (c *Comment) IsReply() bool {
	return c.ParentID != ""
}

// Graph is an arena of comments addressed by id. Insertion order is the
// first-seen order and drives child ordering everywhere.
type Graph struct {
	comments map[string]*Comment
	order    []string
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{comments: make(map[string]*Comment)}
}

// Add inserts a comment. Ids must be unique.
func (g *Graph) Add(c *Comment) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("comment id is required")
	}
	if _, ok := g.comments[c.ID]; ok {
		return &DuplicateCommentError{ID: c.ID}
	}
	if c.State == "" {
		c.State = StateActive
	}
	g.comments[c.ID] = c
	g.order = append(g.order, c.ID)
	return nil
}

// Get returns the comment with the given id
func (g *Graph) Get(id string) (*Comment, bool) {
	c, ok := g.comments[id]
	return c, ok
}

// Has reports whether id is part of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.comments[id]
	return ok
}

// Len returns the number of comments.
func (g *Graph) Len() int {
	return len(g.order)
}

// IDs returns all ids in first-seen order.
func (g *Graph) IDs() []string {
	return slices.Clone(g.order)
}

// Comments returns all comments in first-seen order.
func (g *Graph) Comments() []*Comment {
	out := make([]*Comment, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.comments[id])
	}
	return out
}

// Parent returns the parent id of a comment, or "" when the comment is a
// root or its parent is not part of the graph.
func (g *Graph) Parent(id string) string {
	c, ok := g.comments[id]
	if !ok || c.ParentID == "" || c.ParentID == id {
		return ""
	}
	if _, ok := g.comments[c.ParentID]; !ok {
		return ""
	}
	return c.ParentID
}

// IsRoot reports whether the comment has no parent inside the graph.
func (g *Graph) IsRoot(id string) bool {
	return g.Parent(id) == ""
}

// Children returns the direct children of id in first-seen order.
func (g *Graph) Children(id string) []string {
	var out []string
	for _, cid := range g.order {
		if cid != id && g.Parent(cid) == id {
			out = append(out, cid)
		}
	}
	return out
}

// Roots returns comments without a parent in the graph.
func (g *Graph) Roots() []string {
	var out []string
	for _, id := range g.order {
		if g.IsRoot(id) {
			out = append(out, id)
		}
	}
	return out
}

// ChildIDs returns the set of comments that have a parent in the graph.
func (g *Graph) ChildIDs() map[string]bool {
	out := make(map[string]bool)
	for _, id := range g.order {
		if !g.IsRoot(id) {
			out[id] = true
		}
	}
	return out
}

// ParentMap returns child id -> parent id for every reply.
func (g *Graph) ParentMap() map[string]string {
	out := make(map[string]string)
	for _, id := range g.order {
		if p := g.Parent(id); p != "" {
			out[id] = p
		}
	}
	return out
}

// Thread returns root followed by its transitive replies, depth first.
func (g *Graph) Thread(root string) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		if seen[id] || !g.Has(id) {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, child := range g.Children(id) {
			walk(child)
		}
	}
	walk(root)
	return out
}

// Depth returns the number of ancestors of id.
func (g *Graph) Depth(id string) int {
	depth := 0
	seen := map[string]bool{id: true}
	for p := g.Parent(id); p != "" && !seen[p]; p = g.Parent(p) {
		seen[p] = true
		depth++
	}
	return depth
}

// Authors returns the distinct non-empty authors, sorted.
func (g *Graph) Authors() []string {
	set := make(map[string]bool)
	for _, c := range g.comments {
		if a := strings.TrimSpace(c.Author); a != "" {
			set[a] = true
		}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// PresenceByAuthor collects presence metadata keyed by author. Later
// comments win when one author carries several values.
func (g *Graph) PresenceByAuthor() map[string]Presence {
	out := make(map[string]Presence)
	for _, id := range g.order {
		c := g.comments[id]
		author := strings.TrimSpace(c.Author)
		if author == "" || c.Presence.IsZero() {
			continue
		}
		out[author] = c.Presence
	}
	return out
}

// TopologicalOrder returns the graph ids ordered so parents precede replies.
func (g *Graph) TopologicalOrder() []string {
	return TopologicalOrder(g.order, g.ParentMap())
}
