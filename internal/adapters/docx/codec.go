package docx

import "dmt/internal/domain"

// Codec implements ports.CommentPackage on top of the package functions.
type Codec struct{}

// NewCodec creates a docx comment codec
func NewCodec() *Codec {
	return &Codec{}
}

func (Codec) Extract(src, dir string) error {
	return Extract(src, dir)
}

func (Codec) Pack(dir, dst string) error {
	return Pack(dir, dst)
}

func (Codec) ReadComments(dir string) (*domain.Graph, error) {
	return ReadComments(dir)
}

func (Codec) WriteComments(dir string, g *domain.Graph) (bool, error) {
	return WriteComments(dir, g)
}

func (Codec) EnsureReplyAnchors(dir string, g *domain.Graph) (int, error) {
	return EnsureReplyAnchors(dir, g)
}

func (Codec) WriteThreadState(dir string, g *domain.Graph) (bool, error) {
	return WriteThreadState(dir, g)
}
