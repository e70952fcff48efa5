package docx

import (
	"fmt"
	"regexp"
	"strconv"
)

var relIDRe = regexp.MustCompile(`^rId([0-9]+)$`)

// EnsureRelationship makes document.xml.rels hold exactly one target for
// relType. A new relationship gets the next free rIdN. It reports false
// and does nothing when the rels part is missing.
func EnsureRelationship(dir, relType, target string) (bool, error) {
	path := wordPath(dir, documentRelsFile)
	if !exists(path) {
		return false, nil
	}
	doc, err := readXML(path)
	if err != nil {
		return false, err
	}
	root := doc.Root()

	changed := false
	found := false
	maxID := 0
	for _, rel := range root.ChildElements() {
		if rel.Tag != "Relationship" {
			continue
		}
		if m := relIDRe.FindStringSubmatch(rel.SelectAttrValue("Id", "")); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxID {
				maxID = n
			}
		}
		if rel.SelectAttrValue("Type", "") != relType {
			continue
		}
		found = true
		if rel.SelectAttrValue("Target", "") != target {
			rel.CreateAttr("Target", target)
			changed = true
		}
	}
	if !found {
		rel := root.CreateElement(qualified(root.Space, "Relationship"))
		rel.CreateAttr("Id", fmt.Sprintf("rId%d", maxID+1))
		rel.CreateAttr("Type", relType)
		rel.CreateAttr("Target", target)
		changed = true
	}
	if !changed {
		return false, nil
	}
	return true, writeXML(doc, path)
}

// EnsureContentTypeOverride registers contentType for partName in
// [Content_Types].xml. It reports false when the part is missing.
func EnsureContentTypeOverride(dir, partName, contentType string) (bool, error) {
	path := pkgPath(dir, contentTypesFile)
	if !exists(path) {
		return false, nil
	}
	doc, err := readXML(path)
	if err != nil {
		return false, err
	}
	root := doc.Root()

	changed := false
	found := false
	for _, el := range root.ChildElements() {
		if el.Tag != "Override" || el.SelectAttrValue("PartName", "") != partName {
			continue
		}
		found = true
		if el.SelectAttrValue("ContentType", "") != contentType {
			el.CreateAttr("ContentType", contentType)
			changed = true
		}
		break
	}
	if !found {
		el := root.CreateElement(qualified(root.Space, "Override"))
		el.CreateAttr("PartName", partName)
		el.CreateAttr("ContentType", contentType)
		changed = true
	}
	if !changed {
		return false, nil
	}
	return true, writeXML(doc, path)
}

// registerThreadParts wires every thread part into the package.
func registerThreadParts(dir string) (bool, error) {
	changed := false
	for _, part := range threadParts {
		ok, err := EnsureRelationship(dir, part.RelType, part.File)
		if err != nil {
			return changed, err
		}
		changed = changed || ok
		ok, err = EnsureContentTypeOverride(dir, part.PartName(), part.ContentType)
		if err != nil {
			return changed, err
		}
		changed = changed || ok
	}
	return changed, nil
}
