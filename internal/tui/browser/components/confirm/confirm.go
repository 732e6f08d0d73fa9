package confirm

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"
)

// --- Messages ---

// ConfirmedMsg is sent when the user answers yes.
type ConfirmedMsg struct {
	ID string
}

// CancelledMsg is sent when the user answers no.
type CancelledMsg struct {
	ID string
}

// AbortedMsg is sent when the user dismisses the dialog without answering.
type AbortedMsg struct {
	ID string
}

// --- Model ---

// Model is a yes/no dialog. ID tells the parent which question was answered.
type Model struct {
	Active bool
	Prompt string
	ID     string
	keys   keyMap
}

// New creates a new confirmation dialog model.
func New() Model {
	return Model{
		keys: defaultKeyMap,
	}
}

// Activate shows the dialog with prompt and tags its answer with id.
func (m *Model) Activate(id, prompt string) {
	m.ID = id
	m.Prompt = prompt
	m.Active = true
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.Active {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	id := m.ID
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		m.Active = false
		return m, func() tea.Msg { return ConfirmedMsg{ID: id} }
	case key.Matches(keyMsg, m.keys.Cancel):
		m.Active = false
		return m, func() tea.Msg { return CancelledMsg{ID: id} }
	case key.Matches(keyMsg, m.keys.Abort):
		m.Active = false
		return m, func() tea.Msg { return AbortedMsg{ID: id} }
	}

	return m, nil
}

// --- View ---

func (m Model) View() string {
	if !m.Active {
		return ""
	}

	dialogBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.DefaultTheme.Colors.Orange).
		Padding(1, 2).
		Render(m.Prompt)

	helpText := lipgloss.NewStyle().
		Faint(true).
		Width(lipgloss.Width(dialogBox)).
		Align(lipgloss.Center).
		Render("\n(y/n, esc to go back)")

	return lipgloss.JoinVertical(lipgloss.Left, dialogBox, helpText)
}

// --- KeyMap ---

type keyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
	Abort   key.Binding
}

var defaultKeyMap = keyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "yes"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "no"),
	),
	Abort: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
}
