package wizard

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Quit    key.Binding
	Back    key.Binding
	Enter   key.Binding
	Next    key.Binding
	Prev    key.Binding
	Skip    key.Binding
	Retry   key.Binding
	Choices key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous")),
		Skip:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "skip step")),
		Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry login")),
		Choices: key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←→", "choose")),
	}
}

// hint returns the key and description pair of b for renderHintBar.
func hint(b key.Binding) []string {
	h := b.Help()
	return []string{h.Key, h.Desc}
}
