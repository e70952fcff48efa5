package milestone

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"dmt/internal/domain"
)

const excerptLimit = 140

type position struct {
	Offset int
	Line   int
	Col    int
}

func (p position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// lineCol converts a byte offset to a 1-based line and rune column.
func lineCol(text string, offset int) (int, int) {
	offset = max(0, min(len(text), offset))
	line := strings.Count(text[:offset], "\n") + 1
	lineStart := strings.LastIndex(text[:offset], "\n") + 1
	return line, utf8.RuneCountInString(text[lineStart:offset]) + 1
}

func lineExcerpt(text string, lineNo int) string {
	lines := strings.Split(text, "\n")
	if lineNo < 1 || lineNo > len(lines) {
		return ""
	}
	excerpt := strings.TrimSpace(lines[lineNo-1])
	if utf8.RuneCountInString(excerpt) > excerptLimit {
		excerpt = string([]rune(excerpt)[:excerptLimit-3]) + "..."
	}
	return excerpt
}

func formatPositions(ps []position) string {
	if len(ps) == 0 {
		return "(none)"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func markerPositions(text string) (map[string][]position, map[string][]position) {
	collect := func(markers []attrMarker) map[string][]position {
		out := make(map[string][]position)
		for _, m := range markers {
			line, col := lineCol(text, m.Offset)
			out[m.ID] = append(out[m.ID], position{Offset: m.Offset, Line: line, Col: col})
		}
		return out
	}
	return collect(findAttrMarkers(startAttrBlockRe, text)), collect(findAttrMarkers(endAttrBlockRe, text))
}

// cardMetaLines maps every CARD_META id in text to the line of its first
// marker, and reports which of those markers name no parent.
func cardMetaLines(text string) (map[string]int, map[string]bool) {
	lines := make(map[string]int)
	parentless := make(map[string]bool)
	for _, loc := range cardMetaRe.FindAllStringIndex(text, -1) {
		id, meta, ok := ParseMetaMarker(text[loc[0]:loc[1]])
		if !ok || id == "" {
			continue
		}
		if _, seen := lines[id]; seen {
			continue
		}
		lines[id], _ = lineCol(text, loc[0])
		parentless[id] = strings.TrimSpace(meta[KeyParent]) == ""
	}
	return lines, parentless
}

// rootCardLines maps root card ids to the line of their CARD_META marker.
// The decoded cards decide which ids are roots, so a nested reply that
// inherits its parent is not one. A parentless marker the cards do not
// know about still counts as a root.
func rootCardLines(source string, cards *CardSet) map[string]int {
	lines, parentless := cardMetaLines(source)
	roots := make(map[string]int)
	for id, line := range lines {
		if !parentless[id] {
			continue
		}
		if cards != nil {
			if _, known := cards.Get(id); known {
				continue
			}
		}
		roots[id] = line
	}
	if cards != nil {
		for _, id := range cards.RootIDs() {
			roots[id] = lines[id]
		}
	}
	return roots
}

// ValidateMarkers checks comment span markers in normalized markdown before
// it is converted to docx. source is the user's markdown and is used for
// card lines and wrapper checks. Every problem is reported in one
// MarkerIntegrityError.
func ValidateMarkers(source, normalized string, cards *CardSet, label string) error {
	starts, ends := markerPositions(normalized)
	roots := rootCardLines(source, cards)

	idSet := make(map[string]bool)
	for id := range starts {
		idSet[id] = true
	}
	for id := range ends {
		idSet[id] = true
	}
	for id := range roots {
		idSet[id] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(ids[i]), utf8.RuneCountInString(ids[j])
		if li != lj {
			return li < lj
		}
		return ids[i] < ids[j]
	})

	var issues []string
	for _, id := range ids {
		s, e := starts[id], ends[id]
		cardLine, isRoot := roots[id]

		if isRoot && (len(s) != 1 || len(e) != 1) {
			ref := "CARD_META line unknown"
			if cardLine > 0 {
				ref = fmt.Sprintf("CARD_META line %d", cardLine)
			}
			issues = append(issues, fmt.Sprintf(
				"Root comment %s (%s) must have exactly one START and one END marker; found START=%d, END=%d.",
				id, ref, len(s), len(e)))
		} else if len(s) != len(e) {
			issues = append(issues, fmt.Sprintf(
				"Comment %s has unbalanced markers; START=%d at %s, END=%d at %s.",
				id, len(s), formatPositions(s), len(e), formatPositions(e)))
		}

		if len(s) > 1 || len(e) > 1 {
			issues = append(issues, fmt.Sprintf(
				"Comment %s has duplicate markers; START lines %s, END lines %s.",
				id, formatPositions(s), formatPositions(e)))
		}

		if len(s) > 0 && len(e) > 0 && s[0].Offset > e[len(e)-1].Offset {
			issues = append(issues, fmt.Sprintf(
				"Comment %s has END before START; first START at %s, last END at %s.",
				id, s[0], e[len(e)-1]))
		}

		if len(s) > 0 && len(e) == 0 {
			if excerpt := lineExcerpt(normalized, s[0].Line); excerpt != "" {
				issues = append(issues, fmt.Sprintf("Comment %s START marker line %d: `%s`", id, s[0].Line, excerpt))
			}
		}
		if len(e) > 0 && len(s) == 0 {
			if excerpt := lineExcerpt(normalized, e[0].Line); excerpt != "" {
				issues = append(issues, fmt.Sprintf("Comment %s END marker line %d: `%s`", id, e[0].Line, excerpt))
			}
		}
	}

	issues = append(issues, oneSidedWrapperIssues(source)...)
	if len(issues) > 0 {
		return &domain.MarkerIntegrityError{Source: label, Issues: issues}
	}
	return nil
}

func oneSidedWrapperIssues(text string) []string {
	var issues []string
	for _, tok := range FindCoreTokens(text) {
		left := tok.CoreStart
		for left > 0 && (text[left-1] == ' ' || text[left-1] == '\t') {
			left--
		}
		hasLeft := left >= 2 && text[left-2:left] == "=="

		right := tok.CoreEnd
		for right < len(text) && (text[right] == ' ' || text[right] == '\t') {
			right++
		}
		hasRight := right+1 < len(text) && text[right:right+2] == "=="

		if hasLeft == hasRight {
			continue
		}
		line, col := lineCol(text, tok.CoreStart)
		issue := fmt.Sprintf(
			"Comment %s has one-sided highlight wrapper around %s marker at %d:%d. Use either plain `%s` or fully wrapped `%s`.",
			tok.ID, tok.Edge, line, col, PlainToken(tok.ID, tok.Edge), FormatToken(tok.ID, tok.Edge))
		if excerpt := lineExcerpt(text, line); excerpt != "" {
			issue += fmt.Sprintf(" Line %d: `%s`", line, excerpt)
		}
		issues = append(issues, issue)
	}
	return issues
}
