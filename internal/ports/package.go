package ports

import "dmt/internal/domain"

// CommentPackage reads and patches the comment parts of Word packages
type CommentPackage interface {
	// Extract unpacks the package at src into dir
	Extract(src, dir string) error

	// Pack zips dir into a package at dst
	Pack(dir, dst string) error

	// ReadComments returns the comment graph of an unpacked package
	ReadComments(dir string) (*domain.Graph, error)

	// WriteComments replaces the comments of an unpacked package with g
	WriteComments(dir string, g *domain.Graph) (bool, error)

	// EnsureReplyAnchors gives every reply its own range and reference marks
	EnsureReplyAnchors(dir string, g *domain.Graph) (int, error)

	// WriteThreadState writes reply links, resolution and ids of g
	WriteThreadState(dir string, g *domain.Graph) (bool, error)
}
