package browser

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings for the image browser
type KeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Up         key.Binding
	Down       key.Binding
	AddTag     key.Binding
	RemoveTag  key.Binding
	ImportName key.Binding
	Save       key.Binding
	Apply      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.AddTag, k.RemoveTag, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Up, k.Down},
		{k.AddTag, k.RemoveTag, k.ImportName},
		{k.Save, k.Apply, k.Help, k.Quit},
	}
}

func defaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("n", "right", "l"),
			key.WithHelp("n/→", "next image"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left", "h"),
			key.WithHelp("p/←", "previous image"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous tag"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next tag"),
		),
		AddTag: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add tags"),
		),
		RemoveTag: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "remove tag"),
		),
		ImportName: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "merge tags from filename"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save tags"),
		),
		Apply: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "rename files from tags"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
