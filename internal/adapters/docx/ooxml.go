// Package docx reads and patches the comment parts of an unpacked Word
// package: comments.xml, commentsExtended.xml, commentsIds.xml,
// commentsExtensible.xml, people.xml and the story parts holding comment
// anchors.
package docx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// XML namespaces used by the comment parts.
const (
	NSW      = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSW14    = "http://schemas.microsoft.com/office/word/2010/wordml"
	NSW15    = "http://schemas.microsoft.com/office/word/2012/wordml"
	NSW16CEX = "http://schemas.microsoft.com/office/word/2018/wordml/cex"
	NSW16CID = "http://schemas.microsoft.com/office/word/2016/wordml/cid"
	NSMC     = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	NSPkgRel = "http://schemas.openxmlformats.org/package/2006/relationships"
	NSPkgCT  = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Relationship types of the thread parts.
const (
	RelCommentsExtended   = "http://schemas.microsoft.com/office/2011/relationships/commentsExtended"
	RelCommentsIDs        = "http://schemas.microsoft.com/office/2016/09/relationships/commentsIds"
	RelCommentsExtensible = "http://schemas.microsoft.com/office/2018/08/relationships/commentsExtensible"
	RelPeople             = "http://schemas.microsoft.com/office/2011/relationships/people"
)

const contentTypePrefix = "application/vnd.openxmlformats-officedocument.wordprocessingml."

// threadPart describes one part written next to comments.xml.
type threadPart struct {
	File        string
	RelType     string
	ContentType string
}

func (p threadPart) PartName() string {
	return "/word/" + p.File
}

var (
	partCommentsExtended   = threadPart{"commentsExtended.xml", RelCommentsExtended, contentTypePrefix + "commentsExtended+xml"}
	partCommentsIDs        = threadPart{"commentsIds.xml", RelCommentsIDs, contentTypePrefix + "commentsIds+xml"}
	partCommentsExtensible = threadPart{"commentsExtensible.xml", RelCommentsExtensible, contentTypePrefix + "commentsExtensible+xml"}
	partPeople             = threadPart{"people.xml", RelPeople, contentTypePrefix + "people+xml"}
)

var threadParts = []threadPart{partCommentsExtended, partCommentsIDs, partCommentsExtensible, partPeople}

// Package-relative paths.
const (
	commentsFile     = "comments.xml"
	documentRelsFile = "_rels/document.xml.rels"
	contentTypesFile = "[Content_Types].xml"
)

const xmlDeclaration = `version="1.0" encoding="UTF-8" standalone="yes"`

func wordPath(dir, name string) string {
	return filepath.Join(dir, "word", filepath.FromSlash(name))
}

func pkgPath(dir, name string) string {
	return filepath.Join(dir, filepath.FromSlash(name))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readXML(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("failed to parse %s: no root element", filepath.Base(path))
	}
	return doc, nil
}

func writeXML(doc *etree.Document, path string) error {
	if err := doc.WriteToFile(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// newPart creates an empty part whose root element lives in namespace uri.
func newPart(prefix, tag, uri string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlDeclaration)
	root := doc.CreateElement(prefix + ":" + tag)
	root.CreateAttr("xmlns:"+prefix, uri)
	return doc, root
}

// storyParts lists the parts that may hold comment anchors, in a stable
// order: body, notes, then headers and footers sorted by name.
func storyParts(dir string) []string {
	var out []string
	for _, name := range []string{"document.xml", "footnotes.xml", "endnotes.xml"} {
		if p := wordPath(dir, name); exists(p) {
			out = append(out, p)
		}
	}
	for _, pattern := range []string{"header*.xml", "footer*.xml"} {
		matches, _ := filepath.Glob(wordPath(dir, pattern))
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// attrValue returns the value of the first attribute whose local name is
// key, whatever its prefix.
func attrValue(e *etree.Element, key string) (string, bool) {
	for _, a := range e.Attr {
		if !isNamespaceDecl(a) && a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func attrTrim(e *etree.Element, key string) string {
	v, _ := attrValue(e, key)
	return strings.TrimSpace(v)
}

// removeAttr drops every attribute with local name key.
func removeAttr(e *etree.Element, key string) bool {
	kept := e.Attr[:0]
	removed := false
	for _, a := range e.Attr {
		if !isNamespaceDecl(a) && a.Key == key {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	e.Attr = kept
	return removed
}

// setAttr replaces any attribute named key with prefix:key=value.
func setAttr(e *etree.Element, prefix, key, value string) {
	removeAttr(e, key)
	name := key
	if prefix != "" {
		name = prefix + ":" + key
	}
	e.CreateAttr(name, value)
}

// nsPrefix returns the prefix root binds to uri. When none exists the
// preferred prefix is declared on root.
func nsPrefix(root *etree.Element, uri, preferred string) string {
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Value == uri {
			return a.Key
		}
	}
	if root.Space == "" {
		for _, a := range root.Attr {
			if a.Space == "" && a.Key == "xmlns" && a.Value == uri {
				return ""
			}
		}
	}
	root.CreateAttr("xmlns:"+preferred, uri)
	return preferred
}

func qualified(prefix, tag string) string {
	if prefix == "" {
		return tag
	}
	return prefix + ":" + tag
}

// walk calls fn for e and every descendant element in document order.
func walk(e *etree.Element, fn func(*etree.Element)) {
	fn(e)
	for _, child := range e.ChildElements() {
		walk(child, fn)
	}
}

// descendants returns every element below e in document order.
func descendants(e *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		walk(child, func(el *etree.Element) { out = append(out, el) })
	}
	return out
}
