// Package tui provides the interactive confirmation prompt used before
// destructive operations.
package tui

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stepStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	bulletStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
)

// Model is a yes/no prompt listing what is about to happen.
type Model struct {
	title string
	steps []string
	keys  KeyMap
	help  help.Model

	yes       bool // Current selection
	confirmed bool
	done      bool
}

// NewModel creates a prompt. The selection starts on "no".
func NewModel(title string, steps []string) Model {
	return Model{
		title: title,
		steps: steps,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
}

// Confirmed reports whether the user accepted.
func (m Model) Confirmed() bool {
	return m.confirmed
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		m.confirmed, m.done = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.No), key.Matches(keyMsg, m.keys.Quit):
		m.confirmed, m.done = false, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Toggle):
		m.yes = !m.yes
	case key.Matches(keyMsg, m.keys.Submit):
		m.confirmed, m.done = m.yes, true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the prompt.
func (m Model) View() string {
	if m.done {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")
	for _, step := range m.steps {
		sb.WriteString(bulletStyle.Render("  • "))
		sb.WriteString(stepStyle.Render(step))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	yes, no := inactiveStyle.Render("Yes"), activeStyle.Render("No")
	if m.yes {
		yes, no = activeStyle.Render("Yes"), inactiveStyle.Render("No")
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, "  ", yes, " ", no))
	sb.WriteString("\n\n")
	sb.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	sb.WriteString("\n")

	return sb.String()
}

// Confirm runs the prompt on the given streams and reports the answer.
func Confirm(in io.Reader, out io.Writer, title string, steps []string) (bool, error) {
	p := tea.NewProgram(NewModel(title, steps), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(Model).Confirmed(), nil
}
