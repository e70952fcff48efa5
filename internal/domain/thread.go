package domain

import "strings"

// BuildValidGraph assembles a graph from candidate comments in first-seen
// order. Every non-empty ParentID is checked: it must name another candidate
// and the accepted links must be acyclic. All problems are collected into a
// single ThreadIntegrityError and nothing is returned in that case.
func BuildValidGraph(candidates []*Comment) (*Graph, error) {
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}

	var issues []string
	accepted := make(map[string]string)
	var order []string
	for _, c := range candidates {
		order = append(order, c.ID)
		parent := strings.TrimSpace(c.ParentID)
		if parent == "" {
			continue
		}
		switch {
		case parent == c.ID:
			issues = append(issues, "comment "+c.ID+" cannot be its own parent")
		case !known[parent]:
			issues = append(issues, "comment "+c.ID+" references unknown parent "+parent)
		default:
			accepted[c.ID] = parent
		}
	}

	for _, cycle := range findCycles(order, accepted) {
		issues = append(issues, "thread cycle detected: "+strings.Join(cycle, " -> "))
	}
	if len(issues) > 0 {
		return nil, &ThreadIntegrityError{Issues: issues}
	}

	g := NewGraph()
	for _, c := range candidates {
		c.ParentID = accepted[c.ID]
		if err := g.Add(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

const (
	white = iota
	gray
	black
)

// findCycles walks every parent chain with white/gray/black coloring and
// returns each closing chain, e.g. [a b a].
func findCycles(order []string, parent map[string]string) [][]string {
	color := make(map[string]int, len(order))
	var cycles [][]string
	for _, start := range order {
		if _, ok := parent[start]; !ok || color[start] != white {
			continue
		}
		var stack []string
		id := start
		for id != "" && color[id] == white {
			color[id] = gray
			stack = append(stack, id)
			id = parent[id]
		}
		if id != "" && color[id] == gray {
			idx := indexOf(stack, id)
			cycle := append(append([]string{}, stack[idx:]...), id)
			cycles = append(cycles, cycle)
		}
		for _, visited := range stack {
			color[visited] = black
		}
	}
	return cycles
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return 0
}

// TopologicalOrder orders ids so that each comment follows its parent.
// Ties keep the input order. Ids whose parents can never be emitted (only
// possible on cyclic input) are appended in input order.
func TopologicalOrder(ids []string, parent map[string]string) []string {
	var pending []string
	for _, id := range ids {
		if id != "" {
			pending = append(pending, id)
		}
	}
	open := make(map[string]bool, len(pending))
	for _, id := range pending {
		open[id] = true
	}

	emitted := make([]string, 0, len(pending))
	for len(open) > 0 {
		progressed := false
		for _, id := range pending {
			if !open[id] {
				continue
			}
			if p := strings.TrimSpace(parent[id]); p != "" && open[p] {
				continue
			}
			emitted = append(emitted, id)
			delete(open, id)
			progressed = true
		}
		if progressed {
			continue
		}
		for _, id := range pending {
			if open[id] {
				emitted = append(emitted, id)
				delete(open, id)
			}
		}
	}
	return emitted
}
