package tui

import (
	"bufio"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dmt/internal/adapters/tui/views"
	"dmt/internal/application"
	"dmt/internal/domain"
	"dmt/internal/domain/milestone"
	"dmt/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewThreads ViewState = iota
	ViewHelp
)

// App is the main TUI application model
type App struct {
	editor ports.EditorOpener

	state   ViewState
	threads *views.ThreadsModel
	help    *views.HelpModel

	width  int
	height int
}

// NewApp creates a thread browser for the document at path. Editing is
// offered for markdown documents when ed is set.
func NewApp(path string, g *domain.Graph, ed ports.EditorOpener) *App {
	a := &App{
		editor:  ed,
		state:   ViewThreads,
		threads: views.NewThreadsModel(path, g),
		help:    views.NewHelpModel(),
	}
	if ed != nil && application.IsMarkdown(path) {
		lines := CardLines(path)
		a.threads.Locate = func(id string) int { return lines[id] }
	}
	return a
}

// Run starts the browser in the alternate screen and blocks until it quits
func Run(path string, g *domain.Graph, ed ports.EditorOpener) error {
	p := tea.NewProgram(NewApp(path, g, ed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.threads.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.threads.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToThreadsMsg:
		a.state = ViewThreads
		return a, nil

	case views.OpenEditorMsg:
		a.state = ViewThreads
		return a, a.openEditor(msg.Path, msg.Line)

	case editorFinishedMsg:
		if msg.err != nil {
			a.threads.SetMessage(fmt.Sprintf("Editor failed: %v", msg.err), true)
		}
		return a, nil
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewThreads:
		_, cmd = a.threads.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

type editorFinishedMsg struct{ err error }

func (a *App) openEditor(path string, line int) tea.Cmd {
	if a.editor == nil {
		return nil
	}

	cmd, err := a.editor.Command(path, line)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewHelp:
		return a.help.View()
	default:
		return a.threads.View()
	}
}

// CardLines maps comment ids to the 1-based line of their CARD_META marker.
// Unreadable files yield an empty map.
func CardLines(path string) map[string]int {
	lines := map[string]int{}
	f, err := os.Open(path)
	if err != nil {
		return lines
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; sc.Scan(); n++ {
		if id, _, ok := milestone.ParseMetaMarker(sc.Text()); ok {
			if _, seen := lines[id]; !seen {
				lines[id] = n
			}
		}
	}
	return lines
}
