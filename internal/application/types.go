package application

import (
	"path/filepath"
	"strings"

	"dmt/internal/domain"
)

// Mode is a conversion direction
type Mode string

const (
	ModeDocx2Md Mode = "docx2md"
	ModeMd2Docx Mode = "md2docx"
)

// Extension returns the file extension a mode produces
func (m Mode) Extension() string {
	if m == ModeDocx2Md {
		return ".md"
	}
	return ".docx"
}

// MarkdownExtensions are the extensions treated as markdown input
var MarkdownExtensions = []string{".md", ".markdown", ".mdown", ".mkd"}

// IsMarkdown reports whether path has a markdown extension
func IsMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, m := range MarkdownExtensions {
		if ext == m {
			return true
		}
	}
	return false
}

// IsDocx reports whether path has a .docx extension
func IsDocx(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".docx")
}

// Re-export domain types for use by adapters
type (
	Comment  = domain.Comment
	Graph    = domain.Graph
	State    = domain.State
	Presence = domain.Presence
)

const (
	StateActive   = domain.StateActive
	StateResolved = domain.StateResolved
)
