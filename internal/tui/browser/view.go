package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/mattsolo1/grove-imgtag/pkg/imageset"
	"github.com/mattsolo1/grove-imgtag/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var typeTitle = cases.Title(language.English)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(theme.DefaultTheme.Header.Render("Image Tagger"))
	b.WriteString("  ")
	b.WriteString(theme.DefaultTheme.Muted.Render(shortenPath(m.svc.Config.Dir)))
	b.WriteString("\n\n")

	if m.confirm.Active {
		b.WriteString(m.confirm.View())
		return b.String()
	}

	img := m.view.current
	if img == nil {
		b.WriteString(theme.DefaultTheme.Muted.Render("No matching images found."))
		b.WriteString("\n\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	position := fmt.Sprintf("[%d/%d]", m.svc.Images.Index()+1, m.svc.Images.Len())
	b.WriteString(theme.DefaultTheme.Info.Render(position))
	b.WriteString(" ")
	b.WriteString(img.Name())
	b.WriteString(" ")
	b.WriteString(theme.DefaultTheme.Muted.Render(img.ShortHash()))
	if m.svc.Store.Stale() {
		b.WriteString(" ")
		b.WriteString(theme.DefaultTheme.Highlight.Render("[modified]"))
	}
	b.WriteString("\n\n")

	if len(m.view.tags) == 0 {
		b.WriteString(theme.DefaultTheme.Muted.Render("  no tags"))
		b.WriteString("\n")
	}
	for i, tag := range m.view.tags {
		line := formatTagLine(tag)
		if i == m.cursor {
			b.WriteString(theme.DefaultTheme.Highlight.Render("▶ "))
			b.WriteString(theme.DefaultTheme.Selected.Render(line))
		} else {
			b.WriteString("  ")
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	target := m.svc.Tagger.RenderFilename(m.view.tags, m.svc.Config.SortTags)
	if target == "" {
		target = imageset.UntaggedPrefix + img.Hash
	}
	b.WriteString("\n")
	if err := imageset.ValidateStem(target); err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Red).Render("→ " + err.Error()))
	} else {
		b.WriteString(theme.DefaultTheme.Muted.Render("→ " + target + filepath.Ext(img.Path)))
	}
	b.WriteString("\n\n")

	if m.adding {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Red).Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.message != "" {
		b.WriteString(theme.DefaultTheme.Info.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func formatTagLine(tag models.Tag) string {
	if tag.IsDefault() {
		return tag.Value
	}
	return fmt.Sprintf("%-10s %s", typeTitle.String(tag.Type), tag.Value)
}

// shortenPath replaces the home directory prefix with a tilde (~).
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}

	if rel, err := filepath.Rel(home, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join("~", rel)
	}
	return path
}
