package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWorkspace_CreatesHiddenDirNextToDestination(t *testing.T) {
	outDir := t.TempDir()
	dst := filepath.Join(outDir, "report.docx")

	ws, err := NewWorkspace(dst, "run1")
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	defer ws.Close()

	if filepath.Dir(ws.Dir()) != outDir {
		t.Errorf("expected scratch dir in %s, got %s", outDir, ws.Dir())
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir()), ".dmt-run1-") {
		t.Errorf("unexpected scratch dir name %s", filepath.Base(ws.Dir()))
	}
	if got := ws.Path("out.docx"); got != filepath.Join(ws.Dir(), "out.docx") {
		t.Errorf("Path returned %s", got)
	}
}

func TestWorkspace_CommitReplacesDestination(t *testing.T) {
	outDir := t.TempDir()
	dst := filepath.Join(outDir, "report.md")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("failed to seed destination: %v", err)
	}

	ws, err := NewWorkspace(dst, "run2")
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	defer ws.Close()

	if err := os.WriteFile(ws.Path("out.md"), []byte("new"), 0o644); err != nil {
		t.Fatalf("failed to write scratch file: %v", err)
	}
	if err := ws.Commit("out.md", dst); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	content, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("failed to read destination: %v", err)
	}
	if string(content) != "new" {
		t.Errorf("expected committed content, got %q", content)
	}
}

func TestWorkspace_CloseRemovesEverything(t *testing.T) {
	outDir := t.TempDir()
	ws, err := NewWorkspace(filepath.Join(outDir, "x.md"), "run3")
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(ws.Dir(), "unpacked", "word"), 0o755); err != nil {
		t.Fatalf("failed to populate scratch dir: %v", err)
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("scratch dir still exists after Close")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("failed to list output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty output dir, found %d entries", len(entries))
	}
}

func TestNewWorkspaceFactory(t *testing.T) {
	factory := NewWorkspaceFactory()
	ws, err := factory(filepath.Join(t.TempDir(), "doc.docx"), "abc")
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	defer ws.Close()

	if !strings.HasPrefix(filepath.Base(ws.Dir()), ".dmt-abc-") {
		t.Errorf("unexpected scratch dir name %s", filepath.Base(ws.Dir()))
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/docs/a.md", filepath.Join(home, "docs/a.md")},
		{"docs/~a.md", "docs/~a.md"},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandHome(tt.in); got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
