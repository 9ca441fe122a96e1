package tui

import "github.com/charmbracelet/bubbles/v2/key"

// keyMap lists the action bindings shown in the help line.
type keyMap struct {
	Translate key.Binding
	Minify    key.Binding
	Convert   key.Binding
	RunAll    key.Binding
	Watch     key.Binding
	Detect    key.Binding
	Portfolio key.Binding
	Focus     key.Binding
	Blur      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Translate: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "translate")),
		Minify:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "minify")),
		Convert:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "html→pdf")),
		RunAll:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "run all")),
		Watch:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "start/stop watch")),
		Detect:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "detect scripts")),
		Portfolio: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "portfolio")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "edit fields")),
		Blur:      key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "done")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Translate, k.Minify, k.Convert, k.RunAll, k.Watch, k.Detect, k.Portfolio, k.Focus, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Translate, k.Minify, k.Convert, k.RunAll},
		{k.Watch, k.Detect, k.Portfolio},
		{k.Focus, k.Blur, k.Quit},
	}
}
