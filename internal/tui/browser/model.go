package browser

import (
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattsolo1/grove-imgtag/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-imgtag/pkg/imageset"
	"github.com/mattsolo1/grove-imgtag/pkg/models"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

const (
	confirmQuit  = "quit"
	confirmApply = "apply"
)

// tagView is shared with the store's change hook, which runs while the
// model is being updated by value.
type tagView struct {
	current *models.Image
	tags    []models.Tag
}

// Model is the image browser TUI.
type Model struct {
	svc     *service.Service
	view    *tagView
	cursor  int
	adding  bool
	input   textinput.Model
	confirm confirm.Model
	help    help.Model
	keys    KeyMap
	message string
	err     error
	width   int
	height  int
}

// New creates the browser and registers it as the store's change listener.
func New(svc *service.Service) Model {
	ti := textinput.New()
	ti.Placeholder = "tags, e.g. sunset" + svc.Tagger.Separator() + "[john]"
	ti.CharLimit = 256

	m := Model{
		svc:     svc,
		view:    &tagView{},
		input:   ti,
		confirm: confirm.New(),
		help:    help.New(),
		keys:    defaultKeyMap(),
	}

	view := m.view
	svc.Store.OnChange(func() {
		view.load(svc)
	})

	if img, err := svc.Images.Current(); err == nil {
		m.view.current = img
		m.view.load(svc)
	} else if errors.Is(err, imageset.ErrNoImages) {
		m.message = "No images in " + svc.Config.Dir
	}

	return m
}

func (v *tagView) load(svc *service.Service) {
	if v.current == nil {
		v.tags = nil
		return
	}
	v.tags = svc.Tags(v.current)
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Current returns the image shown in the browser.
func (m Model) Current() *models.Image {
	return m.view.current
}

// Tags returns the tags shown for the current image.
func (m Model) Tags() []models.Tag {
	return m.view.tags
}
