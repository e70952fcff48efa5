package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"dmt/internal/domain"
)

// Anchor element names.
const (
	tagRangeStart = "commentRangeStart"
	tagRangeEnd   = "commentRangeEnd"
	tagReference  = "commentReference"
)

var anchorTags = []string{tagRangeStart, tagRangeEnd, tagReference}

// anchorCounts counts anchor elements per tag and comment id.
type anchorCounts map[string]map[string]int

func (c anchorCounts) has(tag, id string) bool {
	return c[tag][id] > 0
}

func (c anchorCounts) complete(id string) bool {
	return c.has(tagRangeStart, id) && c.has(tagRangeEnd, id) && c.has(tagReference, id)
}

func (c anchorCounts) add(tag, id string, n int) {
	if c[tag] == nil {
		c[tag] = make(map[string]int)
	}
	c[tag][id] += n
}

func (c anchorCounts) missing(id string) []string {
	var out []string
	for _, tag := range anchorTags {
		if !c.has(tag, id) {
			out = append(out, tag)
		}
	}
	return out
}

type story struct {
	path    string
	doc     *etree.Document
	changed bool
}

func loadStories(dir string) ([]*story, anchorCounts, error) {
	counts := anchorCounts{}
	var stories []*story
	for _, path := range storyParts(dir) {
		doc, err := readXML(path)
		if err != nil {
			return nil, nil, err
		}
		walk(doc.Root(), func(el *etree.Element) {
			for _, tag := range anchorTags {
				if el.Tag != tag {
					continue
				}
				if id := attrTrim(el, "id"); id != "" {
					counts.add(tag, id, 1)
				}
			}
		})
		stories = append(stories, &story{path: path, doc: doc})
	}
	return stories, counts, nil
}

// EnsureReplyAnchors gives every reply of g a commentRangeStart,
// commentRangeEnd and commentReference. Missing anchors are cloned next to
// the parent's anchors so the reply covers the same range. It returns the
// number of story parts rewritten.
func EnsureReplyAnchors(dir string, g *domain.Graph) (int, error) {
	if g == nil || len(g.ChildIDs()) == 0 {
		return 0, nil
	}
	stories, counts, err := loadStories(dir)
	if err != nil {
		return 0, err
	}

	var issues []string
	for _, child := range g.TopologicalOrder() {
		parent := g.Parent(child)
		if parent == "" || counts.complete(child) {
			continue
		}
		if !counts.complete(parent) {
			issues = append(issues, fmt.Sprintf(
				"cannot synthesize anchors for reply %s: parent %s has incomplete anchors", child, parent))
			continue
		}

		for _, s := range stories {
			need := counts.missing(child)
			if len(need) == 0 {
				break
			}
			inserted := cloneAnchors(s.doc.Root(), parent, child, need)
			for tag, n := range inserted {
				counts.add(tag, child, n)
				s.changed = true
			}
		}

		if missing := counts.missing(child); len(missing) > 0 {
			issues = append(issues, fmt.Sprintf(
				"reply %s still missing: %s (parent %s)", child, strings.Join(missing, ", "), parent))
		}
	}

	changed := 0
	for _, s := range stories {
		if !s.changed {
			continue
		}
		if err := writeXML(s.doc, s.path); err != nil {
			return changed, err
		}
		changed++
	}
	if len(issues) > 0 {
		return changed, &domain.AnchorSynthesisError{Issues: issues}
	}
	return changed, nil
}

func isAnchor(el *etree.Element, tag, id string) bool {
	return el.Tag == tag && attrTrim(el, "id") == id
}

// cloneAnchors inserts at most one anchor of each needed tag for child
// next to the matching anchor of parent. Starts and references go after
// the parent's (and after any adjacent ones of the same kind); ends go
// before the parent's end and any adjacent ends.
func cloneAnchors(root *etree.Element, parent, child string, need []string) map[string]int {
	pending := make(map[string]bool, len(need))
	for _, tag := range need {
		pending[tag] = true
	}
	inserted := make(map[string]int)

	var containers []*etree.Element
	walk(root, func(el *etree.Element) { containers = append(containers, el) })

	for _, container := range containers {
		if len(pending) == 0 {
			break
		}
		children := container.ChildElements()
		for idx := 0; idx < len(children) && len(pending) > 0; {
			el := children[idx]
			switch {
			case pending[tagRangeStart] && isAnchor(el, tagRangeStart, parent):
				at := skipForward(children, idx+1, tagRangeStart)
				insertElementAt(container, children, at, newAnchor(el, tagRangeStart, child))
				delete(pending, tagRangeStart)
				inserted[tagRangeStart]++
				children = container.ChildElements()
				idx = at + 1
			case pending[tagRangeEnd] && isAnchor(el, tagRangeEnd, parent):
				at := idx
				for at > 0 && children[at-1].Tag == tagRangeEnd {
					at--
				}
				insertElementAt(container, children, at, newAnchor(el, tagRangeEnd, child))
				delete(pending, tagRangeEnd)
				inserted[tagRangeEnd]++
				children = container.ChildElements()
				idx++
			case pending[tagReference] && isAnchor(el, tagReference, parent):
				at := skipForward(children, idx+1, tagReference)
				insertElementAt(container, children, at, newAnchor(el, tagReference, child))
				delete(pending, tagReference)
				inserted[tagReference]++
				children = container.ChildElements()
				idx = at + 1
			default:
				idx++
			}
		}
	}
	return inserted
}

func skipForward(children []*etree.Element, at int, tag string) int {
	for at < len(children) && children[at].Tag == tag {
		at++
	}
	return at
}

// newAnchor builds an anchor element for id with the same prefix as the
// parent anchor it is cloned from.
func newAnchor(like *etree.Element, tag, id string) *etree.Element {
	el := etree.NewElement(qualified(like.Space, tag))
	el.CreateAttr(qualified(like.Space, "id"), id)
	return el
}

// insertElementAt inserts el so that it becomes element number at among
// the container's element children.
func insertElementAt(container *etree.Element, children []*etree.Element, at int, el *etree.Element) {
	switch {
	case at < len(children):
		container.InsertChildAt(children[at].Index(), el)
	case len(children) > 0:
		container.InsertChildAt(children[len(children)-1].Index()+1, el)
	default:
		container.AddChild(el)
	}
}
