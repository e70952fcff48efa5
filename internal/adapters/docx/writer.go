package docx

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"

	"dmt/internal/domain"
)

const commentInitials = "DC"

// WriteComments replaces every comment in comments.xml with the comments
// of g, parents before replies. Each body line becomes one CommentText
// paragraph. It reports false when the package has no comments part or g
// is empty.
func WriteComments(dir string, g *domain.Graph) (bool, error) {
	path := wordPath(dir, commentsFile)
	if g == nil || g.Len() == 0 || !exists(path) {
		return false, nil
	}
	doc, err := readXML(path)
	if err != nil {
		return false, err
	}
	root := doc.Root()
	for _, el := range root.ChildElements() {
		if el.Tag == "comment" {
			root.RemoveChild(el)
		}
	}

	w := nsPrefix(root, NSW, "w")
	for _, id := range g.TopologicalOrder() {
		c, _ := g.Get(id)
		el := root.CreateElement(qualified(w, "comment"))
		el.CreateAttr(qualified(w, "id"), c.ID)
		if author := strings.TrimSpace(c.Author); author != "" {
			el.CreateAttr(qualified(w, "author"), author)
		}
		if date := strings.TrimSpace(c.Date); date != "" {
			el.CreateAttr(qualified(w, "date"), date)
		}
		el.CreateAttr(qualified(w, "initials"), commentInitials)

		lines := []string{""}
		if body := domain.NormalizeCommentText(c.Body); body != "" {
			lines = strings.Split(body, "\n")
		}
		for _, line := range lines {
			appendCommentParagraph(el, w, line, false)
		}
	}
	return true, writeXML(doc, path)
}

// appendCommentParagraph adds a CommentText paragraph holding text. With
// annotationRef set, the paragraph starts with the comment mark run Word
// expects in the first paragraph of a comment.
func appendCommentParagraph(comment *etree.Element, w, text string, annotationRef bool) *etree.Element {
	p := comment.CreateElement(qualified(w, "p"))
	p.CreateElement(qualified(w, "pPr")).
		CreateElement(qualified(w, "pStyle")).
		CreateAttr(qualified(w, "val"), "CommentText")

	if annotationRef {
		r := p.CreateElement(qualified(w, "r"))
		r.CreateElement(qualified(w, "rPr")).
			CreateElement(qualified(w, "rStyle")).
			CreateAttr(qualified(w, "val"), "CommentReference")
		r.CreateElement(qualified(w, "annotationRef"))
	}

	t := p.CreateElement(qualified(w, "r")).CreateElement(qualified(w, "t"))
	if hasOuterSpace(text) {
		t.CreateAttr("xml:space", "preserve")
	}
	t.SetText(text)
	return p
}

func hasOuterSpace(s string) bool {
	if s == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}

// threadMeta holds the identifiers a comment is written with.
type threadMeta struct {
	paraID    string
	durableID string
	date      string
}

// WriteThreadState writes the reply links, resolution state, durable ids
// and author presence of g into the extension parts, and registers them in
// the package. Paragraph ids and durable ids carried by the comments are
// kept; missing ones are reused from the package or generated.
func WriteThreadState(dir string, g *domain.Graph) (bool, error) {
	path := wordPath(dir, commentsFile)
	if g == nil || g.Len() == 0 || !exists(path) {
		return false, nil
	}
	doc, err := readXML(path)
	if err != nil {
		return false, err
	}
	root := doc.Root()
	normalizeIgnorable(root)

	usedPara := domain.NewIDSet()
	byID := make(map[string]*etree.Element)
	for _, el := range descendants(root) {
		if el.Tag != "comment" {
			continue
		}
		id, ok := attrValue(el, "id")
		if !ok {
			continue
		}
		byID[id] = el
		removeAttr(el, "state")
		if pid, _ := attrValue(el, "paraId"); pid != "" {
			usedPara.Add(pid)
		}
		for _, pid := range paragraphParaIDs(el) {
			usedPara.Add(pid)
		}
	}

	durableByPara, usedDurable, err := existingDurableIDs(dir)
	if err != nil {
		return false, err
	}

	var ordered []string
	for _, id := range g.TopologicalOrder() {
		if _, ok := byID[id]; ok {
			ordered = append(ordered, id)
		}
	}
	if len(ordered) == 0 {
		return false, nil
	}

	w := nsPrefix(root, NSW, "w")
	w14 := nsPrefix(root, NSW14, "w14")
	metaByID := make(map[string]threadMeta, len(ordered))
	authors := make(map[string]bool)
	for _, id := range ordered {
		el := byID[id]
		c, _ := g.Get(id)

		paragraphs := childrenByTag(el, "p")
		if len(paragraphs) == 0 {
			paragraphs = append(paragraphs, appendCommentParagraph(el, w, "", true))
		}
		threadP := paragraphs[len(paragraphs)-1]

		paraID := attrTrim(threadP, "paraId")
		if paraID == "" {
			paraID = attrTrim(el, "paraId")
		}
		if preferred := strings.TrimSpace(c.ParaID); preferred != "" {
			if attrTrim(threadP, "paraId") != preferred {
				setAttr(threadP, w14, "paraId", preferred)
			}
			paraID = preferred
		}
		if paraID == "" {
			paraID = domain.GenerateID(domain.ParaIDSeed(id), usedPara)
			setAttr(threadP, w14, "paraId", paraID)
		} else {
			usedPara.Add(paraID)
		}

		durableID := strings.TrimSpace(c.DurableID)
		if durableID == "" {
			durableID = durableByPara[paraID]
		}
		if durableID == "" {
			durableID = domain.GenerateID(domain.DurableIDSeed(paraID), usedDurable)
		} else {
			usedDurable.Add(durableID)
		}

		if author := attrTrim(el, "author"); author != "" {
			authors[author] = true
		}
		date, _ := attrValue(el, "date")
		metaByID[id] = threadMeta{paraID: paraID, durableID: durableID, date: date}
	}
	if err := writeXML(doc, path); err != nil {
		return false, err
	}

	extDoc, extRoot := newPart("w15", "commentsEx", NSW15)
	idsDoc, idsRoot := newPart("w16cid", "commentsIds", NSW16CID)
	cexDoc, cexRoot := newPart("w16cex", "commentsExtensible", NSW16CEX)
	for _, id := range ordered {
		meta := metaByID[id]
		c, _ := g.Get(id)

		entry := extRoot.CreateElement("w15:commentEx")
		entry.CreateAttr("w15:paraId", meta.paraID)
		done := "0"
		if c.State.Resolved() {
			done = "1"
		}
		entry.CreateAttr("w15:done", done)
		if parent := g.Parent(id); parent != "" {
			if pm, ok := metaByID[parent]; ok && pm.paraID != "" {
				entry.CreateAttr("w15:paraIdParent", pm.paraID)
			}
		}

		cid := idsRoot.CreateElement("w16cid:commentId")
		cid.CreateAttr("w16cid:paraId", meta.paraID)
		cid.CreateAttr("w16cid:durableId", meta.durableID)

		cex := cexRoot.CreateElement("w16cex:commentExtensible")
		cex.CreateAttr("w16cex:durableId", meta.durableID)
		if meta.date != "" {
			cex.CreateAttr("w16cex:dateUtc", meta.date)
		}
	}

	peopleDoc := peoplePart(authors, g.PresenceByAuthor())
	for _, part := range []struct {
		doc  *etree.Document
		file string
	}{
		{peopleDoc, partPeople.File},
		{extDoc, partCommentsExtended.File},
		{idsDoc, partCommentsIDs.File},
		{cexDoc, partCommentsExtensible.File},
	} {
		if err := writeXML(part.doc, wordPath(dir, part.file)); err != nil {
			return false, err
		}
	}

	if _, err := registerThreadParts(dir); err != nil {
		return false, err
	}
	return true, nil
}

// normalizeIgnorable collapses whitespace in mc:Ignorable.
func normalizeIgnorable(root *etree.Element) bool {
	for i, a := range root.Attr {
		if isNamespaceDecl(a) || a.Key != "Ignorable" {
			continue
		}
		normalized := strings.Join(strings.Fields(a.Value), " ")
		if normalized != a.Value {
			root.Attr[i].Value = normalized
			return true
		}
	}
	return false
}

// existingDurableIDs loads the paraId -> durableId map of commentsIds.xml.
func existingDurableIDs(dir string) (map[string]string, domain.IDSet, error) {
	byPara := make(map[string]string)
	used := domain.NewIDSet()
	path := wordPath(dir, partCommentsIDs.File)
	if !exists(path) {
		return byPara, used, nil
	}
	doc, err := readXML(path)
	if err != nil {
		return nil, nil, err
	}
	for _, el := range descendants(doc.Root()) {
		if el.Tag != "commentId" {
			continue
		}
		pid, _ := attrValue(el, "paraId")
		did, _ := attrValue(el, "durableId")
		used.Add(did)
		if pid != "" && did != "" {
			byPara[pid] = did
		}
	}
	return byPara, used, nil
}

// peoplePart renders people.xml for the sorted authors.
func peoplePart(authors map[string]bool, presence map[string]domain.Presence) *etree.Document {
	names := make([]string, 0, len(authors))
	for a := range authors {
		names = append(names, a)
	}
	slices.Sort(names)

	doc, root := newPart("w15", "people", NSW15)
	for _, author := range names {
		person := root.CreateElement("w15:person")
		person.CreateAttr("w15:author", author)
		p := presence[author]
		if p.IsZero() {
			continue
		}
		info := person.CreateElement("w15:presenceInfo")
		if v := strings.TrimSpace(p.ProviderID); v != "" {
			info.CreateAttr("w15:providerId", v)
		}
		if v := strings.TrimSpace(p.UserID); v != "" {
			info.CreateAttr("w15:userId", v)
		}
	}
	return doc
}

func childrenByTag(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}
