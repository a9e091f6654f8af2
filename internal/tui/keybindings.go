package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/mcarch/mcarch-editor/internal/i18n"
)

func Accept() key.Binding {
	return key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp(i18n.T("key.enter"), i18n.T("key.help.accept")),
	)
}

func Complete() key.Binding {
	return key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp(i18n.T("key.tab"), i18n.T("key.help.complete")),
	)
}

func NextField() key.Binding {
	return key.NewBinding(
		key.WithKeys("down", "enter"),
		key.WithHelp(fmt.Sprintf("%s/%s", "↓", i18n.T("key.enter")), i18n.T("key.help.next_field")),
	)
}

func PrevField() key.Binding {
	return key.NewBinding(
		key.WithKeys("up", "shift+tab"),
		key.WithHelp("↑", i18n.T("key.help.prev_field")),
	)
}

func AddTag() key.Binding {
	return key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp(i18n.T("key.enter"), i18n.T("key.help.add_tag")),
	)
}

func AddVersion() key.Binding {
	return key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", i18n.T("key.help.add_version")),
	)
}

func AddFile() key.Binding {
	return key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("ctrl+f", i18n.T("key.help.add_file")),
	)
}

func Remove() key.Binding {
	return key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", i18n.T("key.help.remove")),
	)
}

func Submit() key.Binding {
	return key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", i18n.T("key.help.submit")),
	)
}

// HelpMore avoids ctrl+h, which many terminals send for backspace.
func HelpMore() key.Binding {
	return key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("ctrl+g", i18n.T("key.help.more")),
	)
}

func PrevTag() key.Binding {
	return key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←/→", i18n.T("key.help.select_tag")),
	)
}

func NextTag() key.Binding {
	return key.NewBinding(
		key.WithKeys("right"),
	)
}

func QuitWithEsc() key.Binding {
	return key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp(fmt.Sprintf("%s/%s", i18n.T("key.ctrl_c"), i18n.T("key.esc")), i18n.T("key.help.quit")),
	)
}

func TranslatedInputKeyBindings() []key.Binding {
	return []key.Binding{Complete(), Accept(), QuitWithEsc()}
}
