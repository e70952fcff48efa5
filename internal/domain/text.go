package domain

import (
	"regexp"
	"strings"
)

var (
	hardBreakRe       = regexp.MustCompile(`\\+[ \t]*\n`)
	doubleBackslashRe = regexp.MustCompile(`\\\\[ \t]+`)
	dashLineRe        = regexp.MustCompile(`(?m)^[\x{2014}\x{2015}][ \t]*$`)
	smartQuotes       = strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`)
)

// NormalizeCommentText canonicalizes comment body text so it compares equal
// after a markdown round trip: newlines are unified, hard-break backslashes
// dropped, smart quotes straightened.
func NormalizeCommentText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = hardBreakRe.ReplaceAllString(text, "\n")
	text = doubleBackslashRe.ReplaceAllString(text, "\n")
	text = smartQuotes.Replace(text)
	text = dashLineRe.ReplaceAllString(text, "---")
	return strings.TrimSpace(text)
}

// FirstLine returns the first line of text.
func FirstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}
