package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"dmt/internal/adapters/docx"
	"dmt/internal/adapters/filesystem"
	"dmt/internal/domain/ast"
	"dmt/internal/ports"
)

// fakeImage is a media file the fake docx reader extracts, with the
// markdown it emits for it.
type fakeImage struct {
	Name     string
	Markdown string
}

// fakeConverter stands in for pandoc. It reads and writes a markdown
// subset (paragraphs, block quotes, html comments, bracketed spans) and a
// docx subset (runs and comment ranges).
type fakeConverter struct {
	prereqErr  error
	convertErr error
	media      []fakeImage
	calls      []ports.Conversion
}

func (f *fakeConverter) CheckPrerequisites(ctx context.Context) error {
	return f.prereqErr
}

func (f *fakeConverter) Convert(ctx context.Context, c ports.Conversion) error {
	f.calls = append(f.calls, c)
	switch c.From {
	case "docx":
		doc, err := docxToAST(c.Input)
		if err != nil {
			return err
		}
		for _, img := range f.media {
			path := filepath.Join(c.Dir, "media", img.Name)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
				return err
			}
			doc.Blocks = append(doc.Blocks, &ast.Para{Inlines: parseInlines(img.Markdown)})
		}
		if f.convertErr != nil {
			return f.convertErr
		}
		return os.WriteFile(c.Output, []byte(renderMarkdown(doc)), 0o644)
	case "markdown":
		if f.convertErr != nil {
			return f.convertErr
		}
		data, err := os.ReadFile(c.Input)
		if err != nil {
			return err
		}
		return astToDocx(parseMarkdown(string(data)), c.Output)
	}
	return fmt.Errorf("unsupported conversion from %q", c.From)
}

func (f *fakeConverter) ReadAST(ctx context.Context, c ports.Conversion) (*ast.Document, error) {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return nil, err
	}
	return parseMarkdown(string(data)), nil
}

func (f *fakeConverter) WriteAST(ctx context.Context, doc *ast.Document, c ports.Conversion) error {
	return os.WriteFile(c.Output, []byte(renderMarkdown(doc)), 0o644)
}

func testAdapters(conv *fakeConverter) Adapters {
	return Adapters{
		Converter:  conv,
		Package:    docx.NewCodec(),
		Workspaces: filesystem.NewWorkspaceFactory(),
		Media:      filesystem.NewMediaTracker(),
	}
}

// Markdown subset

func parseMarkdown(text string) *ast.Document {
	return &ast.Document{
		APIVersion: []int{1, 23, 1},
		Meta:       json.RawMessage("{}"),
		Blocks:     parseBlocks(text),
	}
}

func parseBlocks(text string) []ast.Block {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var blocks []ast.Block
	for i := 0; i < len(lines); {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}
		j := i
		for j < len(lines) && strings.TrimSpace(lines[j]) != "" {
			j++
		}
		group := lines[i:j]
		i = j

		if strings.HasPrefix(group[0], ">") {
			inner := make([]string, len(group))
			for k, line := range group {
				line = strings.TrimPrefix(line, ">")
				inner[k] = strings.TrimPrefix(line, " ")
			}
			blocks = append(blocks, &ast.BlockQuote{Blocks: parseBlocks(strings.Join(inner, "\n"))})
			continue
		}
		joined := strings.Join(group, "\n")
		trimmed := strings.TrimSpace(joined)
		switch {
		case len(group) == 1 && strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			blocks = append(blocks, &ast.Header{
				Level:   level,
				Inlines: parseInlines(strings.TrimSpace(trimmed[level:])),
			})
		case strings.HasPrefix(trimmed, "<!--") && strings.HasSuffix(trimmed, "-->") && strings.Count(trimmed, "<!--") == 1:
			blocks = append(blocks, &ast.RawBlock{Format: "html", Text: trimmed})
		default:
			blocks = append(blocks, &ast.Para{Inlines: parseInlines(joined)})
		}
	}
	return blocks
}

func parseInlines(s string) []ast.Inline {
	var out []ast.Inline
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			out = append(out, &ast.Str{Text: word.String()})
			word.Reset()
		}
	}
	for i := 0; i < len(s); {
		switch {
		case s[i] == '\n':
			flush()
			out = append(out, &ast.SoftBreak{})
			i++
		case s[i] == ' ' || s[i] == '\t':
			flush()
			for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
				i++
			}
			out = append(out, &ast.Space{})
		case strings.HasPrefix(s[i:], "<!--") && strings.Contains(s[i:], "-->"):
			flush()
			end := i + strings.Index(s[i:], "-->") + len("-->")
			out = append(out, &ast.RawInline{Format: "html", Text: s[i:end]})
			i = end
		case s[i] == '[':
			if span, n, ok := parseSpan(s[i:]); ok {
				flush()
				out = append(out, span)
				i += n
				continue
			}
			word.WriteByte(s[i])
			i++
		default:
			word.WriteByte(s[i])
			i++
		}
	}
	flush()
	return out
}

// parseSpan reads "[inlines]{attr}" at the start of s.
func parseSpan(s string) (*ast.Span, int, bool) {
	depth := 0
	for j := 0; j < len(s); j++ {
		switch s[j] {
		case '[':
			depth++
		case ']':
			depth--
			if depth > 0 {
				continue
			}
			if j+1 >= len(s) || s[j+1] != '{' {
				return nil, 0, false
			}
			end := strings.IndexByte(s[j+1:], '}')
			if end < 0 {
				return nil, 0, false
			}
			return &ast.Span{
				Attr:    parseAttr(s[j+2 : j+1+end]),
				Inlines: parseInlines(s[1:j]),
			}, j + 2 + end, true
		}
	}
	return nil, 0, false
}

func parseAttr(s string) ast.Attr {
	var a ast.Attr
	tokenEnd := func(s string) int {
		if i := strings.IndexAny(s, " \t\n"); i >= 0 {
			return i
		}
		return len(s)
	}
	for s = strings.TrimSpace(s); s != ""; s = strings.TrimSpace(s) {
		switch s[0] {
		case '#':
			n := tokenEnd(s)
			a.ID = s[1:n]
			s = s[n:]
		case '.':
			n := tokenEnd(s)
			a.Classes = append(a.Classes, s[1:n])
			s = s[n:]
		default:
			eq := strings.IndexByte(s, '=')
			if eq < 0 {
				s = s[tokenEnd(s):]
				continue
			}
			key := s[:eq]
			s = s[eq+1:]
			var value strings.Builder
			if strings.HasPrefix(s, `"`) {
				i := 1
				for ; i < len(s) && s[i] != '"'; i++ {
					if s[i] == '\\' && i+1 < len(s) {
						i++
					}
					value.WriteByte(s[i])
				}
				s = s[min(i+1, len(s)):]
			} else {
				n := tokenEnd(s)
				value.WriteString(s[:n])
				s = s[n:]
			}
			a.KVs = append(a.KVs, ast.KeyValue{Key: key, Value: value.String()})
		}
	}
	return a
}

func renderMarkdown(doc *ast.Document) string {
	return renderBlocks(doc.Blocks) + "\n"
}

func renderBlocks(blocks []ast.Block) string {
	var parts []string
	for _, b := range blocks {
		if s := renderBlock(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func renderBlock(b ast.Block) string {
	switch v := b.(type) {
	case *ast.Para:
		return renderInlines(v.Inlines)
	case *ast.Plain:
		return renderInlines(v.Inlines)
	case *ast.Header:
		return strings.Repeat("#", v.Level) + " " + renderInlines(v.Inlines)
	case *ast.RawBlock:
		return v.Text
	case *ast.BlockQuote:
		lines := strings.Split(renderBlocks(v.Blocks), "\n")
		for i, line := range lines {
			if line == "" {
				lines[i] = ">"
			} else {
				lines[i] = "> " + line
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func renderInlines(inlines []ast.Inline) string {
	var b strings.Builder
	for _, in := range inlines {
		switch v := in.(type) {
		case *ast.Str:
			b.WriteString(v.Text)
		case *ast.Space:
			b.WriteByte(' ')
		case *ast.SoftBreak:
			b.WriteByte('\n')
		case *ast.LineBreak:
			b.WriteString("\\\n")
		case *ast.RawInline:
			b.WriteString(v.Text)
		case *ast.Span:
			b.WriteString("[" + renderInlines(v.Inlines) + "]{" + renderAttr(v.Attr) + "}")
		default:
			b.WriteString(renderInlines(ast.InlineChildren(in)))
		}
	}
	return b.String()
}

func renderAttr(a ast.Attr) string {
	var parts []string
	if a.ID != "" {
		parts = append(parts, "#"+a.ID)
	}
	for _, c := range a.Classes {
		parts = append(parts, "."+c)
	}
	for _, kv := range a.KVs {
		parts = append(parts, kv.Key+`="`+strings.ReplaceAll(kv.Value, `"`, `\"`)+`"`)
	}
	return strings.Join(parts, " ")
}

// Docx subset

func docxToAST(path string) (*ast.Document, error) {
	dir, err := os.MkdirTemp("", "fake-docx-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if err := docx.Extract(path, dir); err != nil {
		return nil, err
	}
	g, err := docx.ReadComments(dir)
	if err != nil {
		return nil, err
	}
	xml := etree.NewDocument()
	if err := xml.ReadFromFile(filepath.Join(dir, "word", "document.xml")); err != nil {
		return nil, err
	}

	commentSpan := func(el *etree.Element, class string) *ast.Span {
		id := el.SelectAttrValue("w:id", "")
		span := &ast.Span{Attr: ast.Attr{
			Classes: []string{class},
			KVs:     []ast.KeyValue{{Key: "id", Value: id}},
		}}
		if c, ok := g.Get(id); ok && class == "comment-start" {
			span.Attr.KVs = append(span.Attr.KVs,
				ast.KeyValue{Key: "author", Value: c.Author},
				ast.KeyValue{Key: "date", Value: c.Date})
			span.Inlines = ast.TextToInlines(c.Body)
		}
		return span
	}

	var inlines []ast.Inline
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			switch child.Tag {
			case "t":
				inlines = append(inlines, ast.TextToInlines(child.Text())...)
			case "commentRangeStart":
				inlines = append(inlines, commentSpan(child, "comment-start"))
			case "commentRangeEnd":
				inlines = append(inlines, commentSpan(child, "comment-end"))
			default:
				walk(child)
			}
		}
	}

	doc := &ast.Document{APIVersion: []int{1, 23, 1}, Meta: json.RawMessage("{}")}
	body := xml.Root().SelectElement("body")
	if body == nil {
		return doc, nil
	}
	for _, p := range body.SelectElements("p") {
		inlines = nil
		walk(p)
		doc.Blocks = append(doc.Blocks, &ast.Para{Inlines: inlines})
	}
	return doc, nil
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func astToDocx(doc *ast.Document, out string) error {
	var body, comments strings.Builder
	var writeInlines func([]ast.Inline)
	writeInlines = func(inlines []ast.Inline) {
		for _, in := range inlines {
			if text, ok := ast.FlowText(in); ok {
				fmt.Fprintf(&body, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, xmlEscaper.Replace(text))
				continue
			}
			span, ok := in.(*ast.Span)
			if !ok {
				writeInlines(ast.InlineChildren(in))
				continue
			}
			id := xmlEscaper.Replace(span.Attr.Value("id"))
			switch {
			case span.Attr.HasClass("comment-start"):
				fmt.Fprintf(&body, `<w:commentRangeStart w:id="%s"/>`, id)
				fmt.Fprintf(&comments, `<w:comment w:id="%s" w:author="%s"><w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p></w:comment>`,
					id, xmlEscaper.Replace(span.Attr.Value("author")), xmlEscaper.Replace(ast.BodyText(span.Inlines)))
			case span.Attr.HasClass("comment-end"):
				fmt.Fprintf(&body, `<w:commentRangeEnd w:id="%s"/><w:r><w:commentReference w:id="%s"/></w:r>`, id, id)
			default:
				writeInlines(span.Inlines)
			}
		}
	}
	var writeBlocks func([]ast.Block)
	writeBlocks = func(blocks []ast.Block) {
		for _, b := range blocks {
			switch v := b.(type) {
			case *ast.Para:
				body.WriteString("<w:p>")
				writeInlines(v.Inlines)
				body.WriteString("</w:p>")
			case *ast.Plain:
				body.WriteString("<w:p>")
				writeInlines(v.Inlines)
				body.WriteString("</w:p>")
			case *ast.Header:
				body.WriteString("<w:p>")
				writeInlines(v.Inlines)
				body.WriteString("</w:p>")
			case *ast.BlockQuote:
				writeBlocks(v.Blocks)
			}
		}
	}
	writeBlocks(doc.Blocks)

	dir, err := os.MkdirTemp("", "fake-docx-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	parts := map[string]string{
		"[Content_Types].xml":          fakeContentTypes,
		"_rels/.rels":                  fakePackageRels,
		"word/_rels/document.xml.rels": fakeDocumentRels,
		"word/document.xml":            xmlHeader + `<w:document xmlns:w="` + wordNS + `"><w:body>` + body.String() + `</w:body></w:document>`,
		"word/comments.xml":            xmlHeader + `<w:comments xmlns:w="` + wordNS + `">` + comments.String() + `</w:comments>`,
	}
	for name, content := range parts {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return docx.Pack(dir, out)
}

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	wordNS    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	fakeContentTypes = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/word/comments.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.comments+xml"/>` +
		`</Types>`

	fakePackageRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`

	fakeDocumentRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments" Target="comments.xml"/>` +
		`</Relationships>`
)

// Fixtures

const (
	reviewDocument = xmlHeader + `<w:document xmlns:w="` + wordNS + `"><w:body>` +
		`<w:p><w:r><w:t xml:space="preserve">Intro </w:t></w:r>` +
		`<w:commentRangeStart w:id="0"/><w:commentRangeStart w:id="1"/>` +
		`<w:r><w:t>anchored text</w:t></w:r>` +
		`<w:commentRangeEnd w:id="1"/><w:r><w:commentReference w:id="1"/></w:r>` +
		`<w:commentRangeEnd w:id="0"/><w:r><w:commentReference w:id="0"/></w:r>` +
		`<w:r><w:t xml:space="preserve"> outro.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	reviewComments = xmlHeader + `<w:comments xmlns:w="` + wordNS + `" xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml">` +
		`<w:comment w:id="0" w:author="Alice" w:date="2024-01-02T03:04:05Z" w:initials="A">` +
		`<w:p w14:paraId="00000001"><w:r><w:t>Please check.</w:t></w:r></w:p></w:comment>` +
		`<w:comment w:id="1" w:author="Bob" w:date="2024-01-03T00:00:00Z" w:initials="B">` +
		`<w:p w14:paraId="00000002"><w:r><w:t>Looks fine.</w:t></w:r></w:p></w:comment>` +
		`</w:comments>`

	reviewCommentsExtended = xmlHeader + `<w15:commentsEx xmlns:w15="http://schemas.microsoft.com/office/word/2012/wordml">` +
		`<w15:commentEx w15:paraId="00000001" w15:done="0"/>` +
		`<w15:commentEx w15:paraId="00000002" w15:paraIdParent="00000001" w15:done="1"/>` +
		`</w15:commentsEx>`
)

// writeReviewDocx packs a document with one root comment and a resolved
// reply into dir/name.
func writeReviewDocx(t *testing.T, dir, name string) string {
	t.Helper()
	src := t.TempDir()
	parts := map[string]string{
		"[Content_Types].xml":          fakeContentTypes,
		"_rels/.rels":                  fakePackageRels,
		"word/_rels/document.xml.rels": fakeDocumentRels,
		"word/document.xml":            reviewDocument,
		"word/comments.xml":            reviewComments,
		"word/commentsExtended.xml":    reviewCommentsExtended,
	}
	for part, content := range parts {
		path := filepath.Join(src, filepath.FromSlash(part))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", part, err)
		}
	}
	dst := filepath.Join(dir, name)
	if err := docx.Pack(src, dst); err != nil {
		t.Fatalf("failed to pack %s: %v", name, err)
	}
	return dst
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// scratchDirs lists leftover workspace directories in dir.
func scratchDirs(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".dmt-") {
			out = append(out, e.Name())
		}
	}
	return out
}
