package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// AnsweredMsg is emitted once a question accepts its value.
type AnsweredMsg struct {
	Key   string
	Value string
}

// QuestionModel is a single line prompt. An empty answer falls back to the
// placeholder; Validate may reject the value and keep the prompt open.
type QuestionModel struct {
	Key      string
	Value    string
	Validate func(string) error
	// Optional questions accept an empty answer when there is no placeholder.
	Optional bool

	input  textinput.Model
	help   help.Model
	keymap TranslatedInputKeyMap
	err    error
}

func NewQuestion(key, question, placeholder string) QuestionModel {
	input := textinput.New()
	input.Prompt = QuestionStyle.Render("? ") + TitleStyle.Render(question) + " "
	input.Placeholder = placeholder
	input.PlaceholderStyle = PlaceholderStyle
	input.Focus()

	return QuestionModel{
		Key:    key,
		input:  input,
		help:   help.New(),
		keymap: TranslatedInputKeyMap{},
	}
}

// WithSuggestions enables tab completion from values.
func (model QuestionModel) WithSuggestions(values []string) QuestionModel {
	model.input.ShowSuggestions = len(values) > 0
	model.input.SetSuggestions(values)
	return model
}

func (model QuestionModel) WithValue(value string) QuestionModel {
	model.input.SetValue(value)
	return model
}

func (model QuestionModel) WithEchoMode(mode textinput.EchoMode) QuestionModel {
	model.input.EchoMode = mode
	return model
}

func (model QuestionModel) Answered() bool {
	return model.Value != "" || (model.Optional && !model.input.Focused())
}

func (model QuestionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (model QuestionModel) Update(msg tea.Msg) (QuestionModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			return model.accept()
		case tea.KeyTab:
			if model.input.Value() == "" && model.input.Placeholder != "" && len(model.input.AvailableSuggestions()) == 0 {
				model.input.SetValue(model.input.Placeholder)
				model.input.CursorEnd()
				return model, nil
			}
		default:
			model.err = nil
		}
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(msg)
	return model, cmd
}

func (model QuestionModel) accept() (QuestionModel, tea.Cmd) {
	value := strings.TrimSpace(model.input.Value())
	if value == "" {
		value = strings.TrimSpace(model.input.Placeholder)
	}
	if value == "" && !model.Optional {
		return model, nil
	}
	if model.Validate != nil {
		if err := model.Validate(value); err != nil {
			model.err = err
			return model, nil
		}
	}

	model.Value = value
	model.input.SetValue(value)
	model.input.Blur()
	key := model.Key
	return model, func() tea.Msg { return AnsweredMsg{Key: key, Value: value} }
}

func (model QuestionModel) View() string {
	if !model.input.Focused() {
		shown := model.Value
		if model.input.EchoMode != textinput.EchoNormal && shown != "" {
			shown = strings.Repeat(string(model.input.EchoCharacter), 8)
		}
		return fmt.Sprintf("%s%s", model.input.Prompt, SelectedItemStyle.Render(shown))
	}

	errorString := ""
	if model.err != nil {
		errorString = ErrorStyle.Render(" <- " + model.err.Error())
	}
	return fmt.Sprintf("%s%s\n\n%s", model.input.View(), errorString, model.help.View(model.keymap))
}
