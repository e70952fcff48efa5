package docx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	fixtureContentTypes = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/word/comments.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.comments+xml"/>` +
		`</Types>`

	fixtureRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
		`<Relationship Id="rId7" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments" Target="comments.xml"/>` +
		`</Relationships>`

	fixtureDocument = xmlHeader + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t xml:space="preserve">Intro </w:t></w:r>` +
		`<w:commentRangeStart w:id="0"/><w:r><w:t>anchored text</w:t></w:r><w:commentRangeEnd w:id="0"/>` +
		`<w:r><w:commentReference w:id="0"/></w:r>` +
		`<w:commentRangeStart w:id="2"/><w:r><w:t>second</w:t></w:r><w:commentRangeEnd w:id="2"/>` +
		`<w:r><w:commentReference w:id="2"/></w:r></w:p>` +
		`</w:body></w:document>`

	fixtureComments = xmlHeader + `<w:comments xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml">` +
		`<w:comment w:id="0" w:author="Alice" w:date="2024-01-02T03:04:05Z" w:initials="A">` +
		`<w:p w14:paraId="00000001"><w:r><w:t>First line</w:t></w:r></w:p>` +
		`<w:p w14:paraId="00000002"><w:r><w:t>Second line</w:t></w:r></w:p></w:comment>` +
		`<w:comment w:id="1" w:author="Bob" w:date="2024-01-03T00:00:00Z" w:initials="B">` +
		`<w:p w14:paraId="00000003"><w:r><w:t>Reply</w:t></w:r></w:p></w:comment>` +
		`<w:comment w:id="2" w:author="Alice" w:initials="A">` +
		`<w:p w14:paraId="00000004"><w:r><w:t>Done</w:t></w:r></w:p></w:comment>` +
		`</w:comments>`

	fixtureCommentsExtended = xmlHeader + `<w15:commentsEx xmlns:w15="http://schemas.microsoft.com/office/word/2012/wordml">` +
		`<w15:commentEx w15:paraId="00000002" w15:done="0"/>` +
		`<w15:commentEx w15:paraId="00000003" w15:paraIdParent="00000002" w15:done="0"/>` +
		`<w15:commentEx w15:paraId="00000004" w15:done="1"/>` +
		`</w15:commentsEx>`

	fixtureCommentsIDs = xmlHeader + `<w16cid:commentsIds xmlns:w16cid="http://schemas.microsoft.com/office/word/2016/wordml/cid">` +
		`<w16cid:commentId w16cid:paraId="00000002" w16cid:durableId="1A2B3C4D"/>` +
		`<w16cid:commentId w16cid:paraId="00000003" w16cid:durableId="5E6F7A8B"/>` +
		`<w16cid:commentId w16cid:paraId="00000004" w16cid:durableId="0C0D0E0F"/>` +
		`</w16cid:commentsIds>`

	fixturePeople = xmlHeader + `<w15:people xmlns:w15="http://schemas.microsoft.com/office/word/2012/wordml">` +
		`<w15:person w15:author="Alice"><w15:presenceInfo w15:providerId="AD" w15:userId="alice@example.com"/></w15:person>` +
		`</w15:people>`

	emptyComments = xmlHeader + `<w:comments xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:comments>`
)

// writePackage lays out an unpacked package; names are package relative.
func writePackage(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

// threadedPackage is a package with a root, a reply without anchors and a
// resolved root.
func threadedPackage(t *testing.T) string {
	t.Helper()
	return writePackage(t, map[string]string{
		"[Content_Types].xml":          fixtureContentTypes,
		"word/_rels/document.xml.rels": fixtureRels,
		"word/document.xml":            fixtureDocument,
		"word/comments.xml":            fixtureComments,
		"word/commentsExtended.xml":    fixtureCommentsExtended,
		"word/commentsIds.xml":         fixtureCommentsIDs,
		"word/people.xml":              fixturePeople,
	})
}

// barePackage has a document with anchors for 0 and 2 and an empty
// comments part.
func barePackage(t *testing.T) string {
	t.Helper()
	return writePackage(t, map[string]string{
		"[Content_Types].xml":          fixtureContentTypes,
		"word/_rels/document.xml.rels": fixtureRels,
		"word/document.xml":            fixtureDocument,
		"word/comments.xml":            emptyComments,
	})
}

func readPart(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

func countOf(t *testing.T, dir, name, needle string) int {
	t.Helper()
	return strings.Count(readPart(t, dir, name), needle)
}
