package milestone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"dmt/internal/domain"
	"dmt/internal/domain/ast"
)

// Metadata keys carried by cards and comment-start spans, in output order.
const (
	KeyAuthor           = "author"
	KeyDate             = "date"
	KeyParent           = "parent"
	KeyState            = "state"
	KeyParaID           = "paraId"
	KeyDurableID        = "durableId"
	KeyPresenceProvider = "presenceProvider"
	KeyPresenceUserID   = "presenceUserId"
)

// MetaKeys lists every metadata key in canonical order.
var MetaKeys = []string{
	KeyAuthor, KeyDate, KeyParent, KeyState,
	KeyParaID, KeyDurableID, KeyPresenceProvider, KeyPresenceUserID,
}

// TransportKeys are metadata keys only needed to carry ids across the
// round trip. They are removed before markdown reaches pandoc's docx writer.
var TransportKeys = []string{KeyParaID, KeyDurableID, KeyPresenceProvider, KeyPresenceUserID}

var (
	cardMetaRe = regexp.MustCompile(
		`(?s)<!--\s*CARD_META\s*\{\s*#([A-Za-z0-9][A-Za-z0-9_-]*)\s*(.*?)\}\s*-->`,
	)
	cardHeaderRe = regexp.MustCompile(
		`(?i)^\[!\s*(COMMENT|REPLY)\s+([A-Za-z0-9][A-Za-z0-9_-]*)\s*:\s*(.+?)\s*\((active|resolved)\)\s*\]$`,
	)
)

// Card kinds shown in the header line.
const (
	KindComment = "COMMENT"
	KindReply   = "REPLY"
)

// Meta is a flat key/value view of a comment.
type Meta map[string]string

// MetaOf returns the card metadata of c. Empty values are omitted.
func MetaOf(c *domain.Comment) Meta {
	m := Meta{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			m[k] = v
		}
	}
	set(KeyAuthor, c.Author)
	set(KeyDate, c.Date)
	set(KeyParent, c.ParentID)
	set(KeyState, string(domain.ParseState(string(c.State))))
	set(KeyParaID, c.ParaID)
	set(KeyDurableID, c.DurableID)
	set(KeyPresenceProvider, c.Presence.ProviderID)
	set(KeyPresenceUserID, c.Presence.UserID)
	return m
}

// Apply copies metadata onto c. When onlyEmpty is set, fields that already
// have a value are kept.
func (m Meta) Apply(c *domain.Comment, onlyEmpty bool) {
	assign := func(dst *string, key string) {
		v := strings.TrimSpace(m[key])
		if v == "" || (onlyEmpty && *dst != "") {
			return
		}
		*dst = v
	}
	assign(&c.Author, KeyAuthor)
	assign(&c.Date, KeyDate)
	assign(&c.ParentID, KeyParent)
	assign(&c.ParaID, KeyParaID)
	assign(&c.DurableID, KeyDurableID)
	assign(&c.Presence.ProviderID, KeyPresenceProvider)
	assign(&c.Presence.UserID, KeyPresenceUserID)
	if v, ok := m[KeyState]; ok && !(onlyEmpty && c.State != "") {
		c.State = domain.ParseState(v)
	}
}

func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimRight(buf.String(), "\n")
}

// FormatMetaMarker renders the CARD_META html comment for a card.
func FormatMetaMarker(id string, m Meta) string {
	var pairs []string
	for _, key := range MetaKeys {
		if v := strings.TrimSpace(m[key]); v != "" {
			pairs = append(pairs, jsonString(key)+":"+jsonString(v))
		}
	}
	payload := ""
	if len(pairs) > 0 {
		payload = " " + strings.Join(pairs, ",")
	}
	return "<!--CARD_META{#" + id + payload + "}-->"
}

// ParseMetaMarker extracts the first CARD_META marker from text. Payloads
// that are not strict JSON are repaired before giving up on them.
func ParseMetaMarker(text string) (string, Meta, bool) {
	m := cardMetaRe.FindStringSubmatch(text)
	if m == nil {
		return "", nil, false
	}
	id := strings.TrimSpace(m[1])
	meta := Meta{}
	payload := strings.TrimSpace(m[2])
	if payload == "" {
		return id, meta, true
	}

	var values map[string]any
	raw := "{" + payload + "}"
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil || json.Unmarshal([]byte(repaired), &values) != nil {
			values = nil
		}
	}
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" || v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			meta[key] = s
		}
	}
	return id, meta, true
}

// Header is a parsed card header line.
type Header struct {
	Kind   string
	ID     string
	Author string
	State  domain.State
}

// ParseHeader parses "[!COMMENT <id>: <author> (<state>)]".
func ParseHeader(line string) (Header, bool) {
	m := cardHeaderRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Header{}, false
	}
	return Header{
		Kind:   strings.ToUpper(m[1]),
		ID:     strings.TrimSpace(m[2]),
		Author: strings.TrimSpace(m[3]),
		State:  domain.ParseState(m[4]),
	}, true
}

// FormatHeader renders the human readable card header for c.
func FormatHeader(c *domain.Comment) string {
	kind := KindComment
	if strings.TrimSpace(c.ParentID) != "" {
		kind = KindReply
	}
	author := strings.TrimSpace(c.Author)
	if author == "" {
		author = "Unknown"
	}
	return fmt.Sprintf("[!%s %s: %s (%s)]", kind, c.ID, author, domain.ParseState(string(c.State)))
}

// BuildCard renders one comment card with its replies nested inside.
func BuildCard(c *domain.Comment, children []ast.Block) *ast.BlockQuote {
	blocks := []ast.Block{
		&ast.RawBlock{Format: "markdown", Text: FormatHeader(c)},
		&ast.RawBlock{Format: "html", Text: FormatMetaMarker(c.ID, MetaOf(c))},
	}
	if body := domain.NormalizeCommentText(c.Body); body != "" {
		blocks = append(blocks, &ast.RawBlock{Format: "markdown", Text: body})
	}
	blocks = append(blocks, children...)
	return &ast.BlockQuote{Blocks: blocks}
}

// parseCardPayload reads header, metadata and body lines from the primary
// block of a card.
func parseCardPayload(payload, parentHint string) (*domain.Comment, string, bool) {
	payload = strings.ReplaceAll(payload, "\r\n", "\n")
	payload = strings.ReplaceAll(payload, "\r", "\n")
	lines := strings.Split(payload, "\n")

	headerIdx := -1
	var header Header
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if h, ok := ParseHeader(line); ok {
			headerIdx, header = i, h
			break
		}
	}
	if headerIdx < 0 {
		return nil, "", false
	}

	metaIdx := -1
	metaID := ""
	meta := Meta{}
	for i, line := range lines {
		if id, m, ok := ParseMetaMarker(line); ok && id != "" {
			metaIdx, metaID, meta = i, id, m
			break
		}
	}

	id := metaID
	if id == "" {
		id = header.ID
	}
	if id == "" {
		return nil, "", false
	}

	c := &domain.Comment{ID: id}
	meta.Apply(c, false)
	if c.Author == "" {
		c.Author = header.Author
	}
	if _, ok := meta[KeyState]; !ok {
		c.State = header.State
	}
	if header.Kind == KindReply && parentHint != "" && c.ParentID == "" {
		c.ParentID = parentHint
	}

	var body []string
	for i, line := range lines {
		if i != headerIdx && i != metaIdx {
			body = append(body, line)
		}
	}
	c.Body = domain.NormalizeCommentText(strings.Join(body, "\n"))
	return c, header.Kind, true
}

// blockMeta returns the CARD_META marker carried by a single block.
func blockMeta(b ast.Block) (string, Meta, bool) {
	switch v := b.(type) {
	case *ast.RawBlock:
		if strings.EqualFold(strings.TrimSpace(v.Format), "html") {
			return ParseMetaMarker(v.Text)
		}
	case *ast.Para:
		return ParseMetaMarker(ast.CardText(v.Inlines))
	case *ast.Plain:
		return ParseMetaMarker(ast.CardText(v.Inlines))
	case *ast.Header:
		return ParseMetaMarker(ast.CardText(v.Inlines))
	}
	return "", nil, false
}

// ParseCard decodes a quoted block into the card it carries followed by
// every nested reply card. It returns nil when the block is not a card.
func ParseCard(quote *ast.BlockQuote, parentHint string) []*domain.Comment {
	primaryIdx := -1
	payload := ""
	for i, b := range quote.Blocks {
		switch v := b.(type) {
		case *ast.Para:
			payload = ast.CardText(v.Inlines)
		case *ast.Plain:
			payload = ast.CardText(v.Inlines)
		case *ast.Header:
			payload = ast.CardText(v.Inlines)
		case *ast.RawBlock:
			if f := strings.ToLower(strings.TrimSpace(v.Format)); f == "markdown" || f == "md" {
				payload = v.Text
			}
		default:
			continue
		}
		primaryIdx = i
		break
	}
	if primaryIdx < 0 {
		return nil
	}

	card, kind, ok := parseCardPayload(payload, parentHint)
	if !ok || (kind != KindComment && kind != KindReply) {
		return nil
	}

	detectedID := ""
	detected := Meta{}
	for _, b := range quote.Blocks {
		id, m, ok := blockMeta(b)
		if !ok || id == "" {
			continue
		}
		if detectedID == "" {
			detectedID = id
		}
		if id == card.ID {
			for k, v := range m {
				detected[k] = v
			}
		}
	}
	if detectedID != "" {
		card.ID = detectedID
	}
	detected.Apply(card, true)
	if kind == KindReply && parentHint != "" && card.ParentID == "" {
		card.ParentID = parentHint
	}

	var parts []string
	if card.Body != "" {
		parts = append(parts, card.Body)
	}
	for i, b := range quote.Blocks {
		if i == primaryIdx {
			continue
		}
		if _, nested := b.(*ast.BlockQuote); nested {
			continue
		}
		if extra := cardBlocksText([]ast.Block{b}); extra != "" {
			parts = append(parts, extra)
		}
	}
	card.Body = domain.NormalizeCommentText(strings.Join(parts, "\n\n"))

	out := []*domain.Comment{card}
	for _, b := range quote.Blocks {
		if nested, ok := b.(*ast.BlockQuote); ok {
			out = append(out, ParseCard(nested, card.ID)...)
		}
	}
	return out
}

func cardLine(text string) string {
	line := strings.TrimSpace(text)
	if line == "" {
		return ""
	}
	if _, ok := ParseHeader(line); ok {
		return ""
	}
	if cardMetaRe.MatchString(line) {
		return ""
	}
	return line
}

// cardBlocksText extracts body text from the non-primary blocks of a card.
func cardBlocksText(blocks []ast.Block) string {
	var parts []string
	for _, b := range blocks {
		var line string
		switch v := b.(type) {
		case *ast.Para:
			line = cardLine(ast.CardText(v.Inlines))
		case *ast.Plain:
			line = cardLine(ast.CardText(v.Inlines))
		case *ast.Header:
			line = ast.CardText(v.Inlines)
		case *ast.RawBlock:
			if !cardMetaRe.MatchString(v.Text) {
				line = cardLine(v.Text)
			}
		case *ast.Div:
			line = cardBlocksText(v.Blocks)
		}
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
