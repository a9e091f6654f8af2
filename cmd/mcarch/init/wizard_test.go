package init

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/tui"
)

// feed sends msgs in order and delivers the answer an enter key produces.
func feed(t *testing.T, model wizardModel, msgs ...tea.Msg) wizardModel {
	t.Helper()
	for _, msg := range msgs {
		updated, cmd := model.Update(msg)
		model = updated.(wizardModel)
		if keyMsg, ok := msg.(tea.KeyMsg); !ok || keyMsg.Type != tea.KeyEnter || cmd == nil {
			continue
		}
		if answered, ok := cmd().(tui.AnsweredMsg); ok {
			updated, _ = model.Update(answered)
			model = updated.(wizardModel)
		}
	}
	return model
}

func enter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func typed(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func TestWizardAsksOnlyForMissingValues(t *testing.T) {
	model := newWizardModel(context.Background(), nil, initOptions{
		Provided: providedFlags{Server: true, SubmitTimeout: true},
	})

	require.Len(t, model.questions, 1)
	assert.Equal(t, questionSession, model.questions[0].Key)
	assert.Equal(t, wizardAsking, model.state)
}

func TestWizardWithEverythingProvidedIsDone(t *testing.T) {
	model := newWizardModel(context.Background(), nil, initOptions{
		Provided: providedFlags{Server: true, Session: true, SubmitTimeout: true},
	})

	assert.Equal(t, wizardDone, model.state)
	assert.Nil(t, model.Init())
	assert.Empty(t, model.View())
}

func TestWizardCollectsAnswers(t *testing.T) {
	t.Setenv("MCARCH_SERVER", "")
	model := newWizardModel(context.Background(), nil, initOptions{GlobalOptions: cli.GlobalOptions{ConfigPath: configPath}})

	model = feed(t, model, typed("https://archive.test"), enter())
	assert.Equal(t, 1, model.current)
	model = feed(t, model, typed("cookie"), enter())
	model = feed(t, model, typed("1m"), enter())

	assert.Equal(t, wizardDone, model.state)
	assert.Equal(t, "https://archive.test", model.result.Server)
	assert.Equal(t, "cookie", model.result.Session)
	assert.Equal(t, time.Minute, model.result.SubmitTimeout)
	assert.Equal(t, configPath, model.result.ConfigPath)
}

func TestWizardUsesPlaceholders(t *testing.T) {
	t.Setenv("MCARCH_SERVER", "http://env.test")
	model := newWizardModel(context.Background(), nil, initOptions{})

	model = feed(t, model, enter(), enter(), enter())

	assert.Equal(t, wizardDone, model.state)
	assert.Equal(t, "http://env.test", model.result.Server)
	assert.Empty(t, model.result.Session)
	assert.Equal(t, 30*time.Second, model.result.SubmitTimeout)
}

func TestWizardKeepsAskingOnInvalidAnswers(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	model := newWizardModel(context.Background(), nil, initOptions{
		Provided: providedFlags{Session: true, SubmitTimeout: true},
	})

	model = feed(t, model, typed("ftp://archive.test"), enter())

	assert.Equal(t, wizardAsking, model.state)
	assert.Equal(t, 0, model.current)
	assert.Contains(t, model.View(), "cmd.init.error.server")
}

func TestWizardEscAborts(t *testing.T) {
	perf.Reset()
	t.Cleanup(perf.Reset)
	_, span := perf.StartSpan(context.Background(), "tui.init.session")
	model := newWizardModel(context.Background(), span, initOptions{})

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	span.End()

	assert.Equal(t, wizardAborted, updated.(wizardModel).state)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	session, ok := perf.FindSpanByName(perf.GetSpans(), "tui.init.session")
	require.True(t, ok)
	assert.True(t, session.HasEvent("tui.init.action.abort"))
}

func TestWizardProgram(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	t.Setenv("MCARCH_SERVER", "")
	perf.Reset()
	t.Cleanup(perf.Reset)
	ctx, span := perf.StartSpan(context.Background(), "tui.init.session")

	tm := teatest.NewTestModel(t, newWizardModel(ctx, span, initOptions{}), teatest.WithInitialTermSize(80, 24))
	tm.Type("https://archive.test")
	tm.Send(enter())
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return strings.Contains(string(bts), "cmd.init.tui.session")
	}, teatest.WithDuration(2*time.Second))
	tm.Type("secret")
	tm.Send(enter())
	tm.Send(enter())

	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
	final, ok := tm.FinalModel(t).(wizardModel)
	require.True(t, ok)
	span.End()

	assert.Equal(t, wizardDone, final.state)
	assert.Equal(t, "https://archive.test", final.result.Server)
	assert.Equal(t, "secret", final.result.Session)
	assert.Equal(t, 30*time.Second, final.result.SubmitTimeout)
	session, ok := perf.FindSpanByName(perf.GetSpans(), "tui.init.session")
	require.True(t, ok)
	assert.True(t, session.HasEvent("tui.init.answer.server"))
	assert.True(t, session.HasEvent("tui.init.answer.session"))
	assert.True(t, session.HasEvent("tui.init.answer.submit_timeout"))
}
