package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattsolo1/grove-imgtag/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-imgtag/pkg/imageset"
	"github.com/mattsolo1/grove-imgtag/pkg/models"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case confirm.ConfirmedMsg:
		return m.onConfirmed(msg.ID)

	case confirm.CancelledMsg:
		if msg.ID == confirmQuit {
			return m, tea.Quit
		}
		m.message = "Cancelled"
		return m, nil

	case confirm.AbortedMsg:
		m.message = ""
		return m, nil
	}

	if m.confirm.Active {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	if m.adding {
		return m.updateInput(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.err = nil
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		if m.svc.Store.Stale() {
			m.confirm.Activate(confirmQuit, "Tags have changed. Save "+m.svc.Store.Path()+" before quitting?")
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.Next):
		m.move(m.svc.Images.Next)

	case key.Matches(keyMsg, m.keys.Prev):
		m.move(m.svc.Images.Prev)

	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.view.tags)-1 {
			m.cursor++
		}

	case key.Matches(keyMsg, m.keys.AddTag):
		if m.view.current == nil {
			m.message = "No image selected"
			return m, nil
		}
		m.adding = true
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(keyMsg, m.keys.RemoveTag):
		if m.view.current == nil || len(m.view.tags) == 0 {
			return m, nil
		}
		tag := m.view.tags[m.cursor]
		m.svc.RemoveTags(m.view.current, []models.Tag{tag})
		m.clampCursor()
		m.message = "Removed " + m.svc.Tagger.FormatTag(tag)

	case key.Matches(keyMsg, m.keys.ImportName):
		if m.view.current == nil {
			return m, nil
		}
		parsed := m.svc.Tagger.ParseFilename(m.view.current.Path)
		m.svc.Store.MergeTags(map[string][]models.Tag{m.view.current.Hash: parsed})
		m.message = fmt.Sprintf("Merged %d tags from filename", len(parsed))

	case key.Matches(keyMsg, m.keys.Save):
		if err := m.svc.Save(); err != nil {
			m.err = err
			return m, nil
		}
		m.message = "Saved " + m.svc.Store.Path()

	case key.Matches(keyMsg, m.keys.Apply):
		if !m.svc.Store.Stale() {
			m.message = "Tags unchanged since last save, nothing to apply"
			return m, nil
		}
		m.confirm.Activate(confirmApply, "Rename every image in this directory from its tags?")

	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m Model) onConfirmed(id string) (tea.Model, tea.Cmd) {
	switch id {
	case confirmQuit:
		if err := m.svc.Save(); err != nil {
			m.err = err
			return m, nil
		}
		return m, tea.Quit

	case confirmApply:
		report, err := m.svc.Apply(false, false)
		m.view.load(m.svc)
		if err != nil {
			m.err = fmt.Errorf("renamed %d files before failing: %w", report.RenamedFiles, err)
			return m, nil
		}
		m.message = fmt.Sprintf("Renamed %d files", report.RenamedFiles)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			value := strings.TrimSpace(m.input.Value())
			m.adding = false
			m.input.Blur()
			if value == "" {
				return m, nil
			}
			tags := m.svc.Tagger.ParseStem(value)
			m.svc.AddTags(m.view.current, tags)
			m.message = fmt.Sprintf("Added %d tags", len(tags))
			return m, nil

		case tea.KeyEsc:
			m.adding = false
			m.input.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) move(step func() (*models.Image, error)) {
	img, err := step()
	if err != nil {
		if errors.Is(err, imageset.ErrNoImages) {
			m.message = "No images to move between"
			return
		}
		m.err = err
		return
	}
	m.view.current = img
	m.view.load(m.svc)
	m.cursor = 0
	m.message = ""
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.view.tags) {
		m.cursor = len(m.view.tags) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
