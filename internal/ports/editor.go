package ports

import "os/exec"

// EditorOpener opens files in the user's editor
type EditorOpener interface {
	// OpenFile opens path, positioned at line when line > 0 and the
	// editor understands +N
	OpenFile(path string, line int) error

	// Command returns the editor process without starting it, for
	// bubbletea's ExecProcess
	Command(path string, line int) (*exec.Cmd, error)
}
