package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type TranslatedInputKeyMap struct{}

func (k TranslatedInputKeyMap) ShortHelp() []key.Binding {
	return TranslatedInputKeyBindings()
}

func (k TranslatedInputKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// EditorKeyMap holds the bindings of the record editor. It satisfies
// help.KeyMap.
type EditorKeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Complete   key.Binding
	AddTag     key.Binding
	PrevTag    key.Binding
	NextTag    key.Binding
	AddVersion key.Binding
	AddFile    key.Binding
	Remove     key.Binding
	Submit     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func NewEditorKeyMap() EditorKeyMap {
	return EditorKeyMap{
		Next:       NextField(),
		Prev:       PrevField(),
		Complete:   Complete(),
		AddTag:     AddTag(),
		PrevTag:    PrevTag(),
		NextTag:    NextTag(),
		AddVersion: AddVersion(),
		AddFile:    AddFile(),
		Remove:     Remove(),
		Submit:     Submit(),
		Help:       HelpMore(),
		Quit:       QuitWithEsc(),
	}
}

func (k EditorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Submit, k.Help, k.Quit}
}

func (k EditorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Complete, k.AddTag, k.PrevTag},
		{k.AddVersion, k.AddFile, k.Remove},
		{k.Submit, k.Help, k.Quit},
	}
}
