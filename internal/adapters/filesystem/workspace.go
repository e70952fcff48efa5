package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"dmt/internal/ports"
)

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Workspace implements ports.Workspace with a hidden scratch directory
// created next to the destination
type Workspace struct {
	dir string
}

// NewWorkspaceFactory returns a factory of scratch directories named
// .dmt-<runID>-*
func NewWorkspaceFactory() ports.WorkspaceFactory {
	return func(dst, runID string) (ports.Workspace, error) {
		ws, err := NewWorkspace(dst, runID)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
}

// NewWorkspace creates a scratch directory in dst's parent, or in the OS
// temp dir when the parent is not writable
func NewWorkspace(dst, runID string) (*Workspace, error) {
	abs, err := filepath.Abs(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dst, err)
	}
	parent := filepath.Dir(abs)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	pattern := ".dmt-" + runID + "-"
	dir, err := os.MkdirTemp(parent, pattern)
	if err != nil {
		dir, err = os.MkdirTemp("", pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the scratch directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns name inside the scratch directory
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Commit moves a scratch file over dst. Moves across devices fall back to
// a copy through a temporary sibling of dst
func (w *Workspace) Commit(name, dst string) error {
	src := w.Path(name)
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return copyReplace(src, dst)
}

func copyReplace(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary output: %w", err)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to copy output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to copy output: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Close removes the scratch directory and everything in it
func (w *Workspace) Close() error {
	return os.RemoveAll(w.dir)
}
