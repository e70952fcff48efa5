package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Opener implements ports.EditorOpener
type Opener struct {
	lookupEnv func(string) string
	lookPath  func(string) (string, error)
}

// NewOpener creates an opener reading $EDITOR and $VISUAL
func NewOpener() *Opener {
	return &Opener{lookupEnv: os.Getenv, lookPath: exec.LookPath}
}

// OpenFile opens path in the editor and waits for it to exit
func (o *Opener) OpenFile(path string, line int) error {
	cmd, err := o.Command(path, line)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// Command returns the editor process for path, positioned at line when
// the editor supports it
func (o *Opener) Command(path string, line int) (*exec.Cmd, error) {
	argv := o.editorArgv()
	if len(argv) == 0 {
		return nil, fmt.Errorf("no editor found: set $EDITOR environment variable")
	}

	args := append(argv[1:], positionArgs(argv[0], path, line)...)
	cmd := exec.Command(argv[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

// editorArgv returns the configured editor split into words. $EDITOR may
// carry flags, e.g. "code --wait".
func (o *Opener) editorArgv() []string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if fields := strings.Fields(o.lookupEnv(env)); len(fields) > 0 {
			return fields
		}
	}
	for _, name := range []string{"nvim", "vim", "vi", "nano", "code"} {
		if path, err := o.lookPath(name); err == nil {
			return []string{path}
		}
	}
	return nil
}

// positionArgs builds the file arguments for the editor binary
func positionArgs(bin, path string, line int) []string {
	if line <= 0 {
		return []string{path}
	}
	switch strings.TrimSuffix(filepath.Base(bin), ".exe") {
	case "vi", "vim", "nvim", "nano", "emacs", "micro", "kak", "hx":
		return []string{"+" + strconv.Itoa(line), path}
	case "code", "codium", "cursor":
		return []string{"--goto", path + ":" + strconv.Itoa(line)}
	case "subl", "zed":
		return []string{path + ":" + strconv.Itoa(line)}
	}
	return []string{path}
}
