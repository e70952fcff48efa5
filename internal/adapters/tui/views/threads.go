package views

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dmt/internal/adapters/tui/styles"
	"dmt/internal/domain"
	"dmt/internal/domain/milestone"
)

// ThreadsKeyMap defines key bindings for the thread browser
type ThreadsKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	NextRoot key.Binding
	PrevRoot key.Binding
	Copy     key.Binding
	Edit     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var ThreadsKeys = ThreadsKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "toggle"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "next page"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "prev page"),
	),
	NextRoot: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next thread"),
	),
	PrevRoot: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev thread"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy card"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

const threadsPageSize = 15

type threadNode struct {
	comment  *domain.Comment
	parent   *threadNode
	children []*threadNode
	depth    int
	expanded bool
}

// ThreadsModel is the model for the comment thread browser
type ThreadsModel struct {
	ViewState

	path  string
	roots []*threadNode
	pager *threadPager

	// Locate returns the 1-based line of a comment's card, or 0
	Locate func(id string) int
	// Copy writes text to the system clipboard
	Copy func(text string) error
}

// NewThreadsModel creates a browser over every thread of g, fully expanded
func NewThreadsModel(path string, g *domain.Graph) *ThreadsModel {
	m := &ThreadsModel{
		path:  path,
		pager: newThreadPager(threadsPageSize),
		Copy:  clipboard.WriteAll,
	}
	for _, id := range g.Roots() {
		m.roots = append(m.roots, buildThreadNode(g, id, nil, 0))
	}
	m.refreshRows()
	return m
}

func buildThreadNode(g *domain.Graph, id string, parent *threadNode, depth int) *threadNode {
	cm, _ := g.Get(id)
	n := &threadNode{comment: cm, parent: parent, depth: depth, expanded: true}
	for _, child := range g.Children(id) {
		n.children = append(n.children, buildThreadNode(g, child, n, depth+1))
	}
	return n
}

// Init initializes the browser
func (m *ThreadsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the browser
func (m *ThreadsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		m.ClearMessage()

		switch {
		case key.Matches(msg, ThreadsKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, ThreadsKeys.Up):
			m.pager.Up()
			return m, nil

		case key.Matches(msg, ThreadsKeys.Down):
			m.pager.Down()
			return m, nil

		case key.Matches(msg, ThreadsKeys.PageDown):
			m.pager.NextPage()
			return m, nil

		case key.Matches(msg, ThreadsKeys.PageUp):
			m.pager.PrevPage()
			return m, nil

		case key.Matches(msg, ThreadsKeys.NextRoot):
			m.pager.NextThread()
			return m, nil

		case key.Matches(msg, ThreadsKeys.PrevRoot):
			m.pager.PrevThread()
			return m, nil

		case key.Matches(msg, ThreadsKeys.Left):
			if node := m.pager.Selected(); node != nil {
				if node.expanded && len(node.children) > 0 {
					node.expanded = false
					m.refreshRows()
				} else if node.parent != nil {
					m.pager.Select(node.parent)
				}
			}
			return m, nil

		case key.Matches(msg, ThreadsKeys.Right):
			if node := m.pager.Selected(); node != nil && !node.expanded {
				node.expanded = true
				m.refreshRows()
			}
			return m, nil

		case key.Matches(msg, ThreadsKeys.Enter):
			if node := m.pager.Selected(); node != nil && len(node.children) > 0 {
				node.expanded = !node.expanded
				m.refreshRows()
			}
			return m, nil

		case key.Matches(msg, ThreadsKeys.Copy):
			if node := m.pager.Selected(); node != nil {
				if err := m.Copy(cardSnippet(node)); err != nil {
					m.SetMessage(fmt.Sprintf("Copy failed: %v", err), true)
				} else {
					m.SetMessage(fmt.Sprintf("Copied card %s", node.comment.ID), false)
				}
			}
			return m, nil

		case key.Matches(msg, ThreadsKeys.Edit):
			node := m.pager.Selected()
			if node == nil {
				return m, nil
			}
			if m.Locate == nil {
				m.SetMessage("Editing needs a markdown file", true)
				return m, nil
			}
			path, line := m.path, m.Locate(node.comment.ID)
			return m, func() tea.Msg {
				return OpenEditorMsg{Path: path, Line: line}
			}

		case key.Matches(msg, ThreadsKeys.Help):
			return m, func() tea.Msg {
				return SwitchToHelpMsg{}
			}
		}
	}

	return m, nil
}

// Selected returns the comment under the cursor
func (m *ThreadsModel) Selected() *domain.Comment {
	if node := m.pager.Selected(); node != nil {
		return node.comment
	}
	return nil
}

func (m *ThreadsModel) refreshRows() {
	var rows []*threadNode
	var walk func(nodes []*threadNode)
	walk = func(nodes []*threadNode) {
		for _, n := range nodes {
			rows = append(rows, n)
			if n.expanded {
				walk(n.children)
			}
		}
	}
	walk(m.roots)
	m.pager.SetRows(rows)
}

// View renders the browser
func (m *ThreadsModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("dmt threads"))
	b.WriteString("\n\n")
	b.WriteString(styles.Subtitle.Render(m.path))
	b.WriteString("\n\n")

	if len(m.pager.Rows()) == 0 {
		b.WriteString(styles.MutedText.Render("No comments in this document."))
		b.WriteString("\n\n")
		b.WriteString(keyHelpLine(ThreadsKeys.Help, ThreadsKeys.Quit))
		return styles.App.Render(b.String())
	}

	selected := m.pager.Selected()
	for _, node := range m.pager.Page() {
		b.WriteString(m.renderNode(node, node == selected))
		b.WriteString("\n")
	}
	if indicator := m.pager.Indicator(); indicator != "" {
		b.WriteString(styles.MutedText.Render(indicator))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if selected != nil {
		b.WriteString(m.renderDetail(selected.comment))
		b.WriteString("\n\n")
	}

	if m.Message != "" {
		if m.MessageErr {
			b.WriteString(styles.ErrorMsg.Render(m.Message))
		} else {
			b.WriteString(styles.Success.Render(m.Message))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(keyHelpLine(
		ThreadsKeys.Down,
		ThreadsKeys.Left,
		ThreadsKeys.Right,
		ThreadsKeys.NextRoot,
		ThreadsKeys.Copy,
		ThreadsKeys.Edit,
		ThreadsKeys.Help,
		ThreadsKeys.Quit,
	))
	return styles.App.Render(b.String())
}

// keyHelpLine renders bindings as "key desc" pairs joined by the separator
func keyHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

func (m *ThreadsModel) renderNode(node *threadNode, selected bool) string {
	indent := strings.Repeat("  ", node.depth)

	prefix := styles.TreeLeaf
	if len(node.children) > 0 {
		if node.expanded {
			prefix = styles.TreeExpanded
		} else {
			prefix = styles.TreeCollapsed
		}
	}

	cm := node.comment
	text := fmt.Sprintf("%s %s: %s", cm.ID, cm.Author, domain.FirstLine(cm.Body))

	var style lipgloss.Style
	switch {
	case cm.State.Resolved():
		style = styles.NodeResolved
	case node.depth == 0:
		style = styles.NodeRoot
	default:
		style = styles.NodeReply
	}
	if selected {
		style = styles.NodeSelected
	}

	return fmt.Sprintf("%s%s%s", indent, styles.TreeBranch.Render(prefix), style.Render(text))
}

func (m *ThreadsModel) renderDetail(cm *domain.Comment) string {
	var b strings.Builder
	b.WriteString(styles.Author.Render(cm.Author))
	b.WriteString(" ")
	b.WriteString(styles.StateBadge(string(domain.ParseState(string(cm.State)))))
	if cm.Date != "" {
		b.WriteString(" ")
		b.WriteString(styles.MutedText.Render(cm.Date))
	}
	b.WriteString("\n")
	if cm.AnchorText != "" {
		b.WriteString(styles.InputLabel.Render("Anchor:") + " " + styles.Anchor.Render(cm.AnchorText))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(cm.Body)

	pane := styles.Detail
	if m.Width > 8 {
		pane = pane.Width(m.Width - 8)
	}
	return pane.Render(b.String())
}

// SetSize updates the view dimensions
func (m *ThreadsModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
}

// cardSnippet renders the markdown card of a comment with its replies
func cardSnippet(node *threadNode) string {
	lines := []string{
		milestone.FormatHeader(node.comment),
		milestone.FormatMetaMarker(node.comment.ID, milestone.MetaOf(node.comment)),
	}
	if body := domain.NormalizeCommentText(node.comment.Body); body != "" {
		lines = append(lines, strings.Split(body, "\n")...)
	}
	for _, child := range node.children {
		lines = append(lines, "")
		lines = append(lines, strings.Split(cardSnippet(child), "\n")...)
	}
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}
