package ast

import (
	"regexp"
	"strings"
	"unicode"
)

var trailingBlankBeforeNewline = regexp.MustCompile(`[ \t]+\n`)

// CardText flattens inlines to the text a reader sees: spaces and breaks
// become " " and "\n", quotes are re-inserted, code and raw payloads kept.
func CardText(inlines []Inline) string {
	var b strings.Builder
	writeCardText(&b, inlines)
	text := strings.ReplaceAll(b.String(), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return trailingBlankBeforeNewline.ReplaceAllString(text, "\n")
}

func writeCardText(b *strings.Builder, inlines []Inline) {
	for _, in := range inlines {
		switch v := in.(type) {
		case *Str:
			b.WriteString(v.Text)
		case *Space:
			b.WriteByte(' ')
		case *SoftBreak, *LineBreak:
			b.WriteByte('\n')
		case *Code:
			b.WriteString(v.Text)
		case *Math:
			b.WriteString(v.Text)
		case *RawInline:
			b.WriteString(v.Text)
		case *Quoted:
			q := `"`
			if strings.Contains(strings.ToLower(v.QuoteType), "single") {
				q = "'"
			}
			b.WriteString(q)
			writeCardText(b, v.Inlines)
			b.WriteString(q)
		default:
			writeCardText(b, InlineChildren(in))
		}
	}
}

// BodyText flattens the content of a comment span. Markdown hard breaks
// written as a trailing backslash become newlines, soft breaks become
// spaces. The result is not normalized.
func BodyText(inlines []Inline) string {
	var parts []string
	emit := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}
	trimBackslash := func() bool {
		if len(parts) == 0 || !strings.HasSuffix(parts[len(parts)-1], `\`) {
			return false
		}
		parts[len(parts)-1] = strings.TrimRight(parts[len(parts)-1], `\`)
		return true
	}

	var walk func([]Inline)
	walk = func(inlines []Inline) {
		for _, in := range inlines {
			switch v := in.(type) {
			case *Str:
				emit(v.Text)
			case *Space:
				emit(" ")
			case *SoftBreak:
				if trimBackslash() {
					emit("\n")
				} else {
					emit(" ")
				}
			case *LineBreak:
				trimBackslash()
				emit("\n")
			case *Code:
				emit(v.Text)
			case *Math:
				emit(v.Text)
			case *RawInline:
				emit(v.Text)
			default:
				walk(InlineChildren(in))
			}
		}
	}
	walk(inlines)
	return trailingBlankBeforeNewline.ReplaceAllString(strings.Join(parts, ""), "\n")
}

// TextToInlines splits plain text into Str, Space and SoftBreak nodes.
func TextToInlines(text string) []Inline {
	var out []Inline
	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\n':
			out = append(out, &SoftBreak{})
			i++
		case unicode.IsSpace(r):
			for i < len(runes) && unicode.IsSpace(runes[i]) && runes[i] != '\n' {
				i++
			}
			out = append(out, &Space{})
		default:
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) {
				j++
			}
			out = append(out, &Str{Text: string(runes[i:j])})
			i = j
		}
	}
	return out
}

// FlowText returns the text of a run of Str, Space and break nodes, or
// false when the node is not part of such a run.
func FlowText(in Inline) (string, bool) {
	switch v := in.(type) {
	case *Str:
		return v.Text, true
	case *Space:
		return " ", true
	case *SoftBreak, *LineBreak:
		return "\n", true
	}
	return "", false
}
