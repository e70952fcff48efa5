package milestone

import (
	"regexp"
	"strings"
)

var (
	quotePrefixRe      = regexp.MustCompile(`^(?:>[ \t]*)+`)
	quotedHeaderLineRe = regexp.MustCompile(`^(?:>[ \t]*)+\[!(?:COMMENT|REPLY).*\]$`)
	quotedMetaLineRe   = regexp.MustCompile(`^(?:>[ \t]*)+<!--CARD_META\{#.*\}-->$`)
	quotedMetaStartRe  = regexp.MustCompile(`^(?:>[ \t]*)+<!--CARD_META`)
	quotedBlankLineRe  = regexp.MustCompile(`^(?:>[ \t]*)+$`)
	quotedContentRe    = regexp.MustCompile(`^(?:>[ \t]*)+[^\s>]`)
)

// NormalizeCardLayout removes the empty quote lines a markdown writer puts
// between a card header and its CARD_META line, and between CARD_META and
// the first body line. The three lines must stay contiguous for the card
// parser.
func NormalizeCardLayout(text string) string {
	lines := strings.Split(text, "\n")
	lines = dropBlankBetween(lines, quotedHeaderLineRe, quotedMetaStartRe)
	lines = dropBlankBetween(lines, quotedMetaLineRe, quotedContentRe)
	return strings.Join(lines, "\n")
}

// quoteDepth counts the '>' markers leading a line.
func quoteDepth(line string) int {
	return strings.Count(quotePrefixRe.FindString(line), ">")
}

// dropBlankBetween removes a blank quote line sitting between a line
// matching above and a line matching below at the same quote depth.
func dropBlankBetween(lines []string, above, below *regexp.Regexp) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		out = append(out, lines[i])
		if i+2 < len(lines) &&
			above.MatchString(lines[i]) &&
			quotedBlankLineRe.MatchString(lines[i+1]) &&
			below.MatchString(lines[i+2]) &&
			quoteDepth(lines[i]) == quoteDepth(lines[i+2]) {
			i++
		}
	}
	return out
}
