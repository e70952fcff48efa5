package tui

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmt/internal/adapters/tui/views"
	"dmt/internal/domain"
)

type stubEditor struct{}

func (stubEditor) OpenFile(string, int) error { return nil }

func (stubEditor) Command(path string, line int) (*exec.Cmd, error) {
	return exec.Command("true"), nil
}

func TestCardLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.md")
	content := "Intro ==///1.START///==text==///1.END///==.\n" +
		"\n" +
		"> [!COMMENT 1: Ann (active)]\n" +
		"> <!--CARD_META{#1 \"author\":\"Ann\"}-->\n" +
		"> Body\n" +
		">\n" +
		"> > [!REPLY 2: Bob (active)]\n" +
		"> > <!--CARD_META{#2 \"author\":\"Bob\",\"parent\":\"1\"}-->\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	assert.Equal(t, map[string]int{"1": 4, "2": 8}, CardLines(path))
	assert.Empty(t, CardLines(filepath.Join(t.TempDir(), "missing.md")))
}

func TestApp_SwitchesViews(t *testing.T) {
	g, err := domain.BuildValidGraph([]*domain.Comment{{ID: "1", Author: "Ann", Body: "Hello"}})
	require.NoError(t, err)

	a := NewApp("review.docx", g, stubEditor{})
	assert.Contains(t, a.View(), "1 Ann: Hello")

	a.Update(views.SwitchToHelpMsg{})
	assert.Contains(t, a.View(), "dmt Help")

	a.Update(views.SwitchToThreadsMsg{})
	assert.Contains(t, a.View(), "dmt threads")

	a.Update(editorFinishedMsg{err: assert.AnError})
	assert.Contains(t, a.View(), "Editor failed")
}
