package docx

import (
	"errors"
	"strings"

	"github.com/beevik/etree"

	"dmt/internal/domain"
)

// ReadComments builds the comment graph of the unpacked package in dir.
// Comments keep the order of comments.xml. Parent links come from the
// comment's parentId attribute, then from commentsExtended.xml; links to
// comments the package does not hold are dropped. Self links and cycles
// fail with a ThreadIntegrityError. A package without comments.xml yields
// an empty graph.
func ReadComments(dir string) (*domain.Graph, error) {
	g := domain.NewGraph()
	path := wordPath(dir, commentsFile)
	if !exists(path) {
		return g, nil
	}
	doc, err := readXML(path)
	if err != nil {
		return nil, err
	}

	paraToID := make(map[string]string)
	var comments []*domain.Comment
	for _, el := range descendants(doc.Root()) {
		if el.Tag != "comment" {
			continue
		}
		id, ok := attrValue(el, "id")
		if !ok {
			continue
		}
		c := &domain.Comment{
			ID:       id,
			Author:   attrTrim(el, "author"),
			Date:     attrTrim(el, "date"),
			Body:     commentText(el),
			State:    domain.StateActive,
			ParentID: attrTrim(el, "parentId"),
			ParaID:   threadParaID(el),
		}
		for _, pid := range paragraphParaIDs(el) {
			paraToID[pid] = id
		}
		if c.ParaID != "" {
			paraToID[c.ParaID] = id
		}
		comments = append(comments, c)
	}
	if len(comments) == 0 {
		return g, nil
	}

	durableByPara, err := applyCommentsIDs(dir, comments, paraToID)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if c.ParaID != "" {
			c.DurableID = durableByPara[c.ParaID]
		}
	}
	if err := applyCommentsExtended(dir, comments, paraToID); err != nil {
		return nil, err
	}

	presence, err := ReadPresence(dir)
	if err != nil {
		return nil, err
	}
	anchors, err := AnchorTexts(dir)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(comments))
	for _, c := range comments {
		known[c.ID] = true
	}
	for _, c := range comments {
		if p, ok := presence[c.Author]; ok && c.Author != "" {
			c.Presence = p
		}
		c.AnchorText = anchors[c.ID]
		if !known[c.ParentID] {
			c.ParentID = ""
		}
	}

	g, err = domain.BuildValidGraph(comments)
	if err != nil {
		var tie *domain.ThreadIntegrityError
		if errors.As(err, &tie) {
			tie.Source = "docx comment parts"
		}
		return nil, err
	}
	return g, nil
}

// applyCommentsIDs reads commentsIds.xml. Some Word versions keep paraIds
// only there, aligned with comments.xml by position; the alignment is used
// only when both parts list the same number of entries.
func applyCommentsIDs(dir string, comments []*domain.Comment, paraToID map[string]string) (map[string]string, error) {
	durableByPara := make(map[string]string)
	path := wordPath(dir, partCommentsIDs.File)
	if !exists(path) {
		return durableByPara, nil
	}
	doc, err := readXML(path)
	if err != nil {
		return nil, err
	}
	var paraIDs []string
	for _, el := range descendants(doc.Root()) {
		if el.Tag != "commentId" {
			continue
		}
		pid, _ := attrValue(el, "paraId")
		did, _ := attrValue(el, "durableId")
		if pid != "" {
			paraIDs = append(paraIDs, pid)
		}
		if pid != "" && did != "" {
			durableByPara[pid] = did
		}
	}
	if len(paraIDs) == len(comments) {
		for i, c := range comments {
			pid := paraIDs[i]
			if c.ParaID != "" {
				continue
			}
			if _, ok := paraToID[pid]; !ok {
				paraToID[pid] = c.ID
			}
			c.ParaID = pid
		}
	}
	return durableByPara, nil
}

// applyCommentsExtended reads resolution state and paraIdParent links.
func applyCommentsExtended(dir string, comments []*domain.Comment, paraToID map[string]string) error {
	path := wordPath(dir, partCommentsExtended.File)
	if !exists(path) || len(paraToID) == 0 {
		return nil
	}
	doc, err := readXML(path)
	if err != nil {
		return err
	}
	byID := make(map[string]*domain.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}
	for _, el := range descendants(doc.Root()) {
		if el.Tag != "commentEx" {
			continue
		}
		pid, _ := attrValue(el, "paraId")
		if pid == "" {
			continue
		}
		child, ok := byID[paraToID[pid]]
		if !ok {
			continue
		}
		if attrTrim(el, "done") == "1" {
			child.State = domain.StateResolved
		} else {
			child.State = domain.StateActive
		}
		child.ParaID = pid

		parentPara, _ := attrValue(el, "paraIdParent")
		if parentPara == "" {
			continue
		}
		if parentID, ok := paraToID[parentPara]; ok && child.ParentID == "" {
			child.ParentID = parentID
		}
	}
	return nil
}

// ReadPresence maps people.xml authors to their first presenceInfo.
func ReadPresence(dir string) (map[string]domain.Presence, error) {
	out := make(map[string]domain.Presence)
	path := wordPath(dir, partPeople.File)
	if !exists(path) {
		return out, nil
	}
	doc, err := readXML(path)
	if err != nil {
		return nil, err
	}
	for _, person := range descendants(doc.Root()) {
		if person.Tag != "person" {
			continue
		}
		author := attrTrim(person, "author")
		if author == "" {
			continue
		}
		var p domain.Presence
		for _, child := range person.ChildElements() {
			if child.Tag == "presenceInfo" {
				p = domain.Presence{ProviderID: attrTrim(child, "providerId"), UserID: attrTrim(child, "userId")}
				break
			}
		}
		if !p.IsZero() {
			out[author] = p
		}
	}
	return out, nil
}

// AnchorIDs returns the ids of every commentRangeStart across the story
// parts, deduplicated in document order.
func AnchorIDs(dir string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, path := range storyParts(dir) {
		doc, err := readXML(path)
		if err != nil {
			return nil, err
		}
		walk(doc.Root(), func(el *etree.Element) {
			if el.Tag != "commentRangeStart" {
				return
			}
			if id, ok := attrValue(el, "id"); ok && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		})
	}
	return out, nil
}

// AnchorTexts returns the text each comment range covers in the story
// parts. Overlapping ranges all receive the shared text.
func AnchorTexts(dir string) (map[string]string, error) {
	texts := make(map[string]*strings.Builder)
	for _, path := range storyParts(dir) {
		doc, err := readXML(path)
		if err != nil {
			return nil, err
		}
		open := make(map[string]bool)
		walk(doc.Root(), func(el *etree.Element) {
			switch el.Tag {
			case "commentRangeStart":
				if id := attrTrim(el, "id"); id != "" {
					open[id] = true
					if texts[id] == nil {
						texts[id] = &strings.Builder{}
					}
				}
			case "commentRangeEnd":
				delete(open, attrTrim(el, "id"))
			case "t":
				for id := range open {
					texts[id].WriteString(el.Text())
				}
			case "tab":
				for id := range open {
					texts[id].WriteByte('\t')
				}
			}
		})
	}
	out := make(map[string]string, len(texts))
	for id, b := range texts {
		out[id] = strings.TrimSpace(b.String())
	}
	return out, nil
}

// commentText joins the text of every paragraph of a comment, one line
// per non-empty paragraph.
func commentText(comment *etree.Element) string {
	var paragraphs []string
	walk(comment, func(p *etree.Element) {
		if p.Tag != "p" {
			return
		}
		var b strings.Builder
		for _, node := range descendants(p) {
			switch node.Tag {
			case "t":
				b.WriteString(node.Text())
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.TrimSpace(strings.Join(paragraphs, "\n"))
}

func paragraphParaIDs(comment *etree.Element) []string {
	var out []string
	for _, p := range comment.ChildElements() {
		if p.Tag != "p" {
			continue
		}
		if pid, _ := attrValue(p, "paraId"); pid != "" {
			out = append(out, pid)
		}
	}
	return out
}

// threadParaID is the paraId Word uses to key a comment in the extension
// parts: the last paragraph's, else the comment's own attribute.
func threadParaID(comment *etree.Element) string {
	if ids := paragraphParaIDs(comment); len(ids) > 0 {
		return ids[len(ids)-1]
	}
	v, _ := attrValue(comment, "paraId")
	return v
}
