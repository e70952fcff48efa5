package milestone

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	startAttrBlockRe = regexp.MustCompile(`\{\.comment-start([^}]*)\}`)
	endAttrBlockRe   = regexp.MustCompile(`\{\.comment-end([^}]*)\}`)
	kvAttrRe         = regexp.MustCompile(`([A-Za-z_:][-A-Za-z0-9_:.]*)="([^"]*)"`)
	nestedEndRe      = regexp.MustCompile(`\[((?:\s*\[\]\{\.comment-end[^}]*\}\s*)+)\]\{\.comment-end([^}]*)\}`)
)

// attrPairs parses key="value" pairs; later keys win.
func attrPairs(raw string) map[string]string {
	out := make(map[string]string)
	for _, m := range kvAttrRe.FindAllStringSubmatch(raw, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// attrMarker is one {.comment-start ...} or {.comment-end ...} block.
type attrMarker struct {
	ID     string
	Parent string
	Offset int // start of the attribute block
	End    int // end of the attribute block
}

func findAttrMarkers(re *regexp.Regexp, text string) []attrMarker {
	var out []attrMarker
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		attrs := attrPairs(text[m[2]:m[3]])
		id := strings.TrimSpace(attrs["id"])
		if id == "" {
			continue
		}
		out = append(out, attrMarker{ID: id, Parent: strings.TrimSpace(attrs["parent"]), Offset: m[0], End: m[1]})
	}
	return out
}

// RepairUnbalancedMarkers adds a comment-end span for every comment whose
// start has no end. The end goes after the latest end of the comment's
// descendants, or right after its own start when it has none.
func RepairUnbalancedMarkers(text string) (string, int) {
	starts := findAttrMarkers(startAttrBlockRe, text)
	if len(starts) == 0 {
		return text, 0
	}
	endsByID := make(map[string][]int)
	for _, e := range findAttrMarkers(endAttrBlockRe, text) {
		endsByID[e.ID] = append(endsByID[e.ID], e.End)
	}

	startByID := make(map[string]attrMarker)
	children := make(map[string][]string)
	var missing []string
	for _, s := range starts {
		startByID[s.ID] = s
		if s.Parent != "" {
			children[s.Parent] = append(children[s.Parent], s.ID)
		}
		if _, ok := endsByID[s.ID]; !ok {
			missing = append(missing, s.ID)
		}
	}
	if len(missing) == 0 {
		return text, 0
	}

	var descendantEnds func(id string, seen map[string]bool) []int
	descendantEnds = func(id string, seen map[string]bool) []int {
		if seen[id] {
			return nil
		}
		seen[id] = true
		var out []int
		for _, child := range children[id] {
			out = append(out, endsByID[child]...)
			out = append(out, descendantEnds(child, seen)...)
		}
		return out
	}

	type insertion struct {
		pos   int
		token string
	}
	var inserts []insertion
	for _, id := range missing {
		pos := startByID[id].End
		if ends := descendantEnds(id, make(map[string]bool)); len(ends) > 0 {
			pos = maxInt(ends)
		}
		inserts = append(inserts, insertion{pos: pos, token: fmt.Sprintf(`[]{.comment-end id="%s"}`, id)})
	}
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].pos > inserts[j].pos })
	for _, ins := range inserts {
		text = text[:ins.pos] + ins.token + text[ins.pos:]
	}
	return text, len(inserts)
}

func maxInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// NormalizeNestedEnds flattens end spans pandoc nests inside another end
// span, e.g. [[]{.comment-end id="a"}]{.comment-end id="b"}, into siblings.
func NormalizeNestedEnds(text string) (string, int) {
	changed := 0
	for {
		n := len(nestedEndRe.FindAllStringIndex(text, -1))
		if n == 0 {
			return text, changed
		}
		text = nestedEndRe.ReplaceAllString(text, "${1}[]{.comment-end${2}}")
		changed += n
	}
}
