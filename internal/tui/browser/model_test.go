package browser

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-imgtag/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-imgtag/pkg/models"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

func newTestBrowser(t *testing.T, files map[string]string) (Model, *service.Service) {
	t.Helper()
	dir := t.TempDir()
	scheme := "tag separator: \"_\"\ntag types:\n  person: [\"[\", \"]\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(scheme), 0644))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	svc, err := service.New(&service.Config{Dir: dir, SortTags: true}, logrus.NewEntry(logger))
	require.NoError(t, err)
	return New(svc), svc
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestBrowserNavigation(t *testing.T) {
	m, _ := newTestBrowser(t, map[string]string{"a.png": "a", "b.png": "b"})
	require.NotNil(t, m.Current())
	assert.Equal(t, "a.png", m.Current().Name())

	m, _ = send(t, m, runes("n"))
	assert.Equal(t, "b.png", m.Current().Name())

	m, _ = send(t, m, runes("n"))
	assert.Equal(t, "a.png", m.Current().Name(), "navigation wraps")

	m, _ = send(t, m, runes("p"))
	assert.Equal(t, "b.png", m.Current().Name())
}

func TestBrowserAddTagRefreshesView(t *testing.T) {
	m, svc := newTestBrowser(t, map[string]string{"a.png": "a"})
	assert.Empty(t, m.Tags())

	m, _ = send(t, m, runes("a"))
	for _, r := range "beach_[john]" {
		m, _ = send(t, m, runes(string(r)))
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, svc.Store.Stale())
	assert.Equal(t, []models.Tag{
		{Value: "beach", Type: models.DefaultTagType},
		{Value: "john", Type: "person"},
	}, m.Tags())

	// Remove the tag under the cursor.
	m, _ = send(t, m, runes("d"))
	assert.Equal(t, []models.Tag{{Value: "john", Type: "person"}}, m.Tags())
	assert.Contains(t, m.View(), "john")
}

func TestBrowserImportFromFilename(t *testing.T) {
	m, _ := newTestBrowser(t, map[string]string{"sunset_[anna].png": "a"})

	m, _ = send(t, m, runes("i"))
	assert.Len(t, m.Tags(), 2)
}

func TestBrowserQuitPromptsWhenStale(t *testing.T) {
	m, svc := newTestBrowser(t, map[string]string{"sunset.png": "a"})

	// Nothing changed: quit immediately.
	_, cmd := send(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	m, _ = send(t, m, runes("i"))
	m, cmd = send(t, m, runes("q"))
	assert.Nil(t, cmd)
	assert.True(t, m.confirm.Active)

	m, cmd = send(t, m, runes("y"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, confirm.ConfirmedMsg{ID: confirmQuit}, msg)

	_, cmd = send(t, m, msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.False(t, svc.Store.Stale())
	assert.FileExists(t, svc.Store.Path())
}

func TestBrowserApply(t *testing.T) {
	m, svc := newTestBrowser(t, map[string]string{"IMG_1.png": "a"})

	m, _ = send(t, m, runes("A"))
	assert.False(t, m.confirm.Active, "nothing to apply on a fresh load")

	m, _ = send(t, m, runes("a"))
	for _, r := range "[zoe]" {
		m, _ = send(t, m, runes(string(r)))
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = send(t, m, runes("A"))
	require.True(t, m.confirm.Active)

	m, _ = send(t, m, confirm.ConfirmedMsg{ID: confirmApply})
	assert.NoError(t, m.err)
	assert.Equal(t, filepath.Join(svc.Config.Dir, "[zoe].png"), m.Current().Path)
}

func TestBrowserEmptyDirectory(t *testing.T) {
	m, _ := newTestBrowser(t, nil)
	assert.Nil(t, m.Current())
	assert.Contains(t, m.View(), "No matching images found.")

	m, _ = send(t, m, runes("n"))
	assert.Nil(t, m.Current())
}

func TestBrowserFlagsTagsWithPathSeparators(t *testing.T) {
	m, svc := newTestBrowser(t, map[string]string{"a.png": "a"})

	m, _ = send(t, m, runes("a"))
	for _, r := range "../up" {
		m, _ = send(t, m, runes(string(r)))
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "invalid filename stem")

	m, _ = send(t, m, confirm.ConfirmedMsg{ID: confirmApply})
	assert.Error(t, m.err)
	assert.FileExists(t, filepath.Join(svc.Config.Dir, "a.png"))
}
