package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Deselect key.Binding
	Add      key.Binding
	Hint     key.Binding
	New      key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Select:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
		Deselect: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add numbers")),
		Hint:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "hint")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new game")),
		Help:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "more keys")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save & quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Add, k.Hint, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Select, k.Deselect, k.Add, k.Hint},
		{k.New, k.Help, k.Quit},
	}
}
