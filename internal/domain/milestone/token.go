// Package milestone encodes comment threads into text that survives a
// pandoc markdown round trip, and decodes them back. Root comment ranges
// become plain milestone tokens in prose; every comment's metadata and body
// travel in quoted "card" blocks nested by reply depth.
package milestone

import (
	"regexp"
	"strings"
)

// Edge is the boundary a milestone token marks.
type Edge string

const (
	EdgeStart Edge = "START"
	EdgeEnd   Edge = "END"
)

// Span classes pandoc uses for docx comment ranges.
const (
	ClassCommentStart = "comment-start"
	ClassCommentEnd   = "comment-end"
)

const edgePattern = `([sSeE]|[Ss][Tt][Aa][Rr][Tt]|[Ee][Nn][Dd])`

// coreTokenRe matches ///<id>.START/// without a wrapper. The legacy
// ///C<digits>.START/// spelling is tried first so its id drops the C.
var coreTokenRe = regexp.MustCompile(
	`///\s*(?:C([0-9][A-Za-z0-9_-]*)|([A-Za-z0-9][A-Za-z0-9_-]*))\s*\.\s*` + edgePattern + `\s*///`,
)

var (
	leadingWrapperRe  = regexp.MustCompile(`==\s*$`)
	trailingWrapperRe = regexp.MustCompile(`^\s*==`)
)

// Token is one milestone token found in text.
type Token struct {
	ID    string
	Edge  Edge
	Start int // byte offset of the match, wrapper included
	End   int
	// CoreStart and CoreEnd delimit the token without its wrapper.
	CoreStart int
	CoreEnd   int
}

// Wrapped reports whether the token carried a ==...== wrapper.
func (t Token) Wrapped() bool {
	return t.Start != t.CoreStart
}

func parseEdge(token string) (Edge, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "s", "start":
		return EdgeStart, true
	case "e", "end":
		return EdgeEnd, true
	}
	return "", false
}

// FindCoreTokens returns every token in text, ignoring any wrapper.
func FindCoreTokens(text string) []Token {
	var out []Token
	for _, m := range coreTokenRe.FindAllStringSubmatchIndex(text, -1) {
		id := ""
		if m[2] >= 0 {
			id = text[m[2]:m[3]]
		} else if m[4] >= 0 {
			id = text[m[4]:m[5]]
		}
		edge, ok := parseEdge(text[m[6]:m[7]])
		if id == "" || !ok {
			continue
		}
		out = append(out, Token{ID: id, Edge: edge, Start: m[0], End: m[1], CoreStart: m[0], CoreEnd: m[1]})
	}
	return out
}

// FindTokens returns every token in text. A ==...== wrapper is consumed
// only when it is present on both sides.
func FindTokens(text string) []Token {
	tokens := FindCoreTokens(text)
	floor := 0
	for i := range tokens {
		t := &tokens[i]
		before := text[floor:t.CoreStart]
		after := text[t.CoreEnd:]
		if i+1 < len(tokens) {
			after = text[t.CoreEnd:tokens[i+1].CoreStart]
		}
		lead := leadingWrapperRe.FindStringIndex(before)
		trail := trailingWrapperRe.FindStringIndex(after)
		if lead != nil && trail != nil {
			t.Start = floor + lead[0]
			t.End = t.CoreEnd + trail[1]
		}
		floor = t.End
	}
	return tokens
}

// FormatToken renders the canonical wrapped token for id.
func FormatToken(id string, edge Edge) string {
	return "==///" + strings.TrimSpace(id) + "." + string(edge) + "///=="
}

// PlainToken renders the token without a wrapper.
func PlainToken(id string, edge Edge) string {
	return "///" + strings.TrimSpace(id) + "." + string(edge) + "///"
}
