package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the reconciliation failures
var (
	ErrDuplicateComment = errors.New("duplicate comment")
	ErrThreadIntegrity  = errors.New("invalid comment thread")
	ErrMarkerIntegrity  = errors.New("invalid comment markers")
	ErrAnchorSynthesis  = errors.New("cannot restore reply anchors")
)

// DuplicateCommentError is returned when a graph already holds an id
type DuplicateCommentError struct {
	ID string
}

func (e *DuplicateCommentError) Error() string {
	return fmt.Sprintf("duplicate comment id %s", e.ID)
}

func (e *DuplicateCommentError) Is(target error) bool {
	return target == ErrDuplicateComment
}

// ThreadIntegrityError lists unknown parents, self parents and cycles.
// Source names where the links came from; empty means markdown cards.
type ThreadIntegrityError struct {
	Source string
	Issues []string
}

func (e *ThreadIntegrityError) Error() string {
	source := e.Source
	if source == "" {
		source = "markdown cards/spans"
	}
	return bulletList(
		"Invalid comment thread relationships in "+source+".",
		e.Issues,
		"Fix parent IDs so every reply points to an existing comment and no cycles exist.",
	)
}

func (e *ThreadIntegrityError) Is(target error) bool {
	return target == ErrThreadIntegrity
}

// MarkerIntegrityError lists every malformed milestone marker in a document.
type MarkerIntegrityError struct {
	Source string
	Issues []string
}

func (e *MarkerIntegrityError) Error() string {
	source := e.Source
	if source == "" {
		source = "<markdown input>"
	}
	return bulletList(
		"Comment marker validation failed before md->docx conversion.\nSource: "+source,
		e.Issues,
		"Fix markers by keeping one exact pair per root anchor in prose: "+
			"`///<ID>.START/// ... ///<ID>.END///` (optional wrapper: `==///<ID>.START///==`). "+
			"Ensure each root `CARD_META` entry has a matching marker pair with the same ID.",
	)
}

func (e *MarkerIntegrityError) Is(target error) bool {
	return target == ErrMarkerIntegrity
}

// AnchorSynthesisError reports replies whose anchors could not be cloned.
type AnchorSynthesisError struct {
	Issues []string
}

func (e *AnchorSynthesisError) Error() string {
	return bulletList(
		"Unable to restore reply anchors required for threaded Word comments.",
		e.Issues,
		"Fix malformed or missing parent anchors in markdown/converted DOCX and retry.",
	)
}

func (e *AnchorSynthesisError) Is(target error) bool {
	return target == ErrAnchorSynthesis
}

func bulletList(heading string, issues []string, guidance string) string {
	var b strings.Builder
	b.WriteString(heading)
	for _, issue := range issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	b.WriteString("\n- ")
	b.WriteString(guidance)
	return b.String()
}
