package init

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcarch/mcarch-editor/internal/environment"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/tui"
)

const (
	questionServer        = "server"
	questionSession       = "session"
	questionSubmitTimeout = "submit_timeout"
)

type wizardState int

const (
	wizardAsking wizardState = iota
	wizardDone
	wizardAborted
)

// wizardModel asks, one after the other, for the settings no flag provided.
type wizardModel struct {
	ctx         context.Context
	sessionSpan *perf.Span

	state     wizardState
	questions []tui.QuestionModel
	current   int
	result    initOptions
	quit      key.Binding
}

func newWizardModel(ctx context.Context, sessionSpan *perf.Span, options initOptions) wizardModel {
	model := wizardModel{
		ctx:         ctx,
		sessionSpan: sessionSpan,
		result:      options,
		quit:        tui.QuitWithEsc(),
	}

	if !options.Provided.Server {
		question := tui.NewQuestion(questionServer, i18n.T("cmd.init.tui.server"), environment.ServerURL())
		question.Validate = validateServerURL
		model.questions = append(model.questions, question)
	}
	if !options.Provided.Session {
		question := tui.NewQuestion(questionSession, i18n.T("cmd.init.tui.session"), "").WithEchoMode(textinput.EchoPassword)
		question.Optional = true
		model.questions = append(model.questions, question)
	}
	if !options.Provided.SubmitTimeout {
		question := tui.NewQuestion(questionSubmitTimeout, i18n.T("cmd.init.tui.submit_timeout"), environment.DefaultSubmitTimeout.String())
		question.Validate = validateTimeout
		model.questions = append(model.questions, question)
	}

	if len(model.questions) == 0 {
		model.state = wizardDone
	}
	return model
}

func (model wizardModel) Init() tea.Cmd {
	if model.state != wizardAsking {
		return nil
	}
	return model.questions[model.current].Init()
}

func (model wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if model.state != wizardAsking {
		return model, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, model.quit) {
			model.event("tui.init.action.abort")
			model.state = wizardAborted
			return model, tea.Quit
		}
	case tui.AnsweredMsg:
		model.apply(msg)
		model.event("tui.init.answer." + msg.Key)
		model.current++
		if model.current == len(model.questions) {
			model.state = wizardDone
			return model, tea.Quit
		}
		return model, model.questions[model.current].Init()
	}

	var cmd tea.Cmd
	model.questions[model.current], cmd = model.questions[model.current].Update(msg)
	return model, cmd
}

func (model *wizardModel) apply(answer tui.AnsweredMsg) {
	switch answer.Key {
	case questionServer:
		model.result.Server = answer.Value
	case questionSession:
		model.result.Session = answer.Value
	case questionSubmitTimeout:
		// The question validated the value already.
		if timeout, err := time.ParseDuration(strings.TrimSpace(answer.Value)); err == nil {
			model.result.SubmitTimeout = timeout
		}
	}
}

func (model wizardModel) event(name string) {
	if model.sessionSpan == nil {
		return
	}
	model.sessionSpan.AddEvent(name)
}

func (model wizardModel) View() string {
	if model.state != wizardAsking {
		return ""
	}

	var out strings.Builder
	out.WriteString(tui.TitleStyle.Render(i18n.T("cmd.init.tui.title")))
	out.WriteString("\n\n")
	for i := 0; i <= model.current; i++ {
		out.WriteString(model.questions[i].View())
		out.WriteString("\n")
	}
	return out.String()
}
