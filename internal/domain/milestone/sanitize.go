package milestone

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	inlineImageRe      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"([^"]*)")?\)\{([^}]*)\}`)
	imageLinkRe        = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	placeholderNameRe  = regexp.MustCompile(`^image[0-9]+\.(png|jpg|jpeg|gif|bmp|emf|wmf|svg)$`)
	lengthRe           = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+(?:e[-+]?[0-9]+)?)\s*([a-zA-Z]*)\s*$`)
	excessBlankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// placeholderMaxInches is the largest size of an anchor-only shape image.
const placeholderMaxInches = 0.03

// lengthInches converts a pandoc length attribute to inches.
func lengthInches(value string) (float64, bool) {
	m := lengthRe.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "", "in":
		return n, true
	case "cm":
		return n / 2.54, true
	case "mm":
		return n / 25.4, true
	case "pt":
		return n / 72.0, true
	case "px":
		return n / 96.0, true
	}
	return 0, false
}

func isPlaceholderImage(alt, src, title, attrs string) bool {
	if strings.TrimSpace(alt) != "" || strings.ToLower(strings.TrimSpace(title)) != "shape" {
		return false
	}
	src = strings.ToLower(strings.TrimSpace(src))
	if !strings.Contains("/"+src, "/media/") && !strings.HasPrefix(src, "./media/") {
		return false
	}
	if !placeholderNameRe.MatchString(path.Base(src)) {
		return false
	}
	kv := attrPairs(attrs)
	w, okW := lengthInches(kv["width"])
	h, okH := lengthInches(kv["height"])
	return okW && okH && w <= placeholderMaxInches && h <= placeholderMaxInches
}

// StripPlaceholderImages removes the tiny "shape" images Word uses as
// comment anchors in otherwise empty ranges. It returns the cleaned text and
// the removed image sources.
func StripPlaceholderImages(text string) (string, []string) {
	var removed []string
	var b strings.Builder
	cursor := 0
	for _, m := range inlineImageRe.FindAllStringSubmatchIndex(text, -1) {
		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return text[m[2*i]:m[2*i+1]]
		}
		if !isPlaceholderImage(group(1), group(2), group(3), group(4)) {
			continue
		}
		b.WriteString(text[cursor:m[0]])
		cursor = m[1]
		removed = append(removed, group(2))
	}
	b.WriteString(text[cursor:])
	out := excessBlankLinesRe.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out) + "\n", removed
}

// MediaRefs returns the media/ relative paths referenced by image links.
func MediaRefs(text string) map[string]bool {
	refs := make(map[string]bool)
	for _, m := range imageLinkRe.FindAllStringSubmatch(text, -1) {
		src := strings.TrimSpace(m[1])
		src = strings.TrimPrefix(src, "./")
		if rel, ok := strings.CutPrefix(src, "media/"); ok && rel != "" {
			refs[rel] = true
		}
	}
	return refs
}
