package edit

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mcarch/mcarch-editor/internal/constants"
	"github.com/mcarch/mcarch-editor/internal/editor"
	"github.com/mcarch/mcarch-editor/internal/environment"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/schema"
	"github.com/mcarch/mcarch-editor/internal/submit"
	"github.com/mcarch/mcarch-editor/internal/tui"
)

type editTUIState int

const (
	editTUIStateEditing editTUIState = iota
	editTUIStateDone
	editTUIStateAborted
)

type suggestionLists struct {
	authors  []string
	gameVsns []string
}

// noticeRelay receives the submitter's callbacks on the send goroutine and
// hands them to the model with the result message.
type noticeRelay struct {
	mu       sync.Mutex
	notice   *submit.Notification
	redirect string
}

func (relay *noticeRelay) Notify(notification submit.Notification) {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	relay.notice = &notification
}

func (relay *noticeRelay) Navigate(target string) {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	relay.redirect = target
}

func (relay *noticeRelay) take() *submit.Notification {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	notice := relay.notice
	relay.notice = nil
	return notice
}

func (relay *noticeRelay) navigatedTo() string {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	return relay.redirect
}

type submitResultMsg struct {
	redirect string
	err      error
	notice   *submit.Notification
}

type editTUIModel struct {
	ctx         context.Context
	sessionSpan *perf.Span

	state editTUIState
	width int

	editor      *editor.Editor
	submitter   *submit.Submitter
	relay       *noticeRelay
	suggestions suggestionLists

	rows  []row
	focus int
	// tagCursor is the selected tag on a tag row; -1 selects none.
	tagCursor int

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    tui.EditorKeyMap

	submitting   bool
	notice       string
	noticeFailed bool
	redirect     string
}

func newEditTUIModel(ctx context.Context, sessionSpan *perf.Span, ed *editor.Editor, submitter *submit.Submitter, relay *noticeRelay, suggestions suggestionLists) editTUIModel {
	input := textinput.New()
	input.Prompt = ""
	input.PlaceholderStyle = tui.PlaceholderStyle

	model := editTUIModel{
		ctx:         ctx,
		sessionSpan: sessionSpan,
		width:       80,
		editor:      ed,
		submitter:   submitter,
		relay:       relay,
		suggestions: suggestions,
		input:       input,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:        help.New(),
		keys:        tui.NewEditorKeyMap(),
		tagCursor:   -1,
	}
	model.rows = buildRows(ed)
	model.focusRow(0)
	return model
}

func (model editTUIModel) Init() tea.Cmd {
	return textinput.Blink
}

func (model editTUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			model.width = msg.Width
			model.help.Width = msg.Width
		}
		return model, nil
	case spinner.TickMsg:
		if !model.submitting {
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(msg)
		return model, cmd
	case submitResultMsg:
		return model.handleSubmitResult(msg)
	case tea.KeyMsg:
		return model.handleKey(msg)
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(msg)
	return model, cmd
}

func (model editTUIModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	current := model.rows[model.focus]

	switch {
	case key.Matches(msg, model.keys.Quit):
		model.event("tui.edit.action.abort")
		model.state = editTUIStateAborted
		return model, tea.Quit
	case key.Matches(msg, model.keys.Submit):
		return model.startSubmit()
	case key.Matches(msg, model.keys.Help):
		model.help.ShowAll = !model.help.ShowAll
		return model, nil
	case key.Matches(msg, model.keys.AddVersion):
		model.event("tui.edit.action.add_version")
		model.editor.AddVersion()
		model.rebuild()
		version := model.editor.VersionCount() - 1
		model.focusRow(findRow(model.rows, func(r row) bool { return r.scope == scopeVersion && r.version == version }))
		return model, nil
	case key.Matches(msg, model.keys.AddFile):
		return model.addFile(current), nil
	case key.Matches(msg, model.keys.Remove):
		return model.remove(current), nil
	case current.tags && model.input.Value() == "" && key.Matches(msg, model.keys.PrevTag):
		model.tagCursor = prevTag(model.tagCursor, len(current.tagValues(model.editor)))
		return model, nil
	case current.tags && model.input.Value() == "" && key.Matches(msg, model.keys.NextTag):
		model.tagCursor = nextTag(model.tagCursor, len(current.tagValues(model.editor)))
		return model, nil
	case current.tags && key.Matches(msg, model.keys.AddTag) && strings.TrimSpace(model.input.Value()) != "":
		if err := current.addTag(model.editor, model.input.Value()); err != nil {
			model.setNotice(err.Error(), true)
		}
		model.input.SetValue("")
		model.tagCursor = -1
		return model, nil
	case key.Matches(msg, model.keys.Next):
		model.focusRow(model.focus + 1)
		return model, nil
	case key.Matches(msg, model.keys.Prev):
		model.focusRow(model.focus - 1)
		return model, nil
	}

	var cmd tea.Cmd
	previous := model.input.Value()
	model.input, cmd = model.input.Update(msg)
	if !current.tags && model.input.Value() != previous {
		if err := current.set(model.editor, model.input.Value()); err != nil {
			model.setNotice(err.Error(), true)
		}
	}
	return model, cmd
}

func (model editTUIModel) addFile(current row) editTUIModel {
	if current.scope == scopeMod {
		model.setNotice(i18n.T("cmd.edit.tui.no_version"), true)
		return model
	}
	model.event("tui.edit.action.add_file")
	if err := model.editor.AddFile(current.version); err != nil {
		model.setNotice(err.Error(), true)
		return model
	}
	model.rebuild()
	file := model.editor.FileCount(current.version) - 1
	model.focusRow(findRow(model.rows, func(r row) bool {
		return r.scope == scopeFile && r.version == current.version && r.file == file
	}))
	return model
}

func (model editTUIModel) remove(current row) editTUIModel {
	var err error
	switch {
	case current.tags:
		model.event("tui.edit.action.remove_tag")
		err = current.removeTag(model.editor, model.tagCursor)
		if remaining := len(current.tagValues(model.editor)); model.tagCursor >= remaining {
			model.tagCursor = remaining - 1
		}
	case current.scope == scopeVersion:
		model.event("tui.edit.action.remove_version")
		err = model.editor.RemoveVersion(current.version)
	case current.scope == scopeFile:
		model.event("tui.edit.action.remove_file")
		err = model.editor.RemoveFile(current.version, current.file)
	default:
		return model
	}

	switch {
	case errors.Is(err, editor.ErrLastFile):
		model.setNotice(i18n.T("cmd.edit.tui.last_file"), true)
	case err != nil:
		model.setNotice(err.Error(), true)
	}
	model.rebuild()
	cursor := model.tagCursor
	model.focusRow(model.focus)
	if current.tags {
		model.tagCursor = cursor
	}
	return model
}

// prevTag moves the selection left; from no selection it picks the newest tag.
func prevTag(cursor, count int) int {
	switch {
	case count == 0:
		return -1
	case cursor < 0:
		return count - 1
	case cursor > 0:
		return cursor - 1
	default:
		return 0
	}
}

// nextTag moves the selection right; past the newest tag nothing is selected.
func nextTag(cursor, count int) int {
	if cursor < 0 || cursor+1 >= count {
		return -1
	}
	return cursor + 1
}

func (model editTUIModel) startSubmit() (tea.Model, tea.Cmd) {
	attempt, err := model.submitter.Begin(model.editor)

	var fieldErrs schema.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		model.event("tui.edit.submit.invalid", attribute.Int("errors", len(fieldErrs)))
		model.setNotice(i18n.T("cmd.edit.tui.invalid", i18n.Tvars{Count: len(fieldErrs)}), true)
		if index := model.firstErrorRow(fieldErrs); index >= 0 {
			model.focusRow(index)
		}
		return model, nil
	case errors.Is(err, submit.ErrSubmitInFlight), errors.Is(err, submit.ErrSessionEnded):
		return model, nil
	case err != nil:
		model.setNotice(err.Error(), true)
		return model, nil
	}

	model.event("tui.edit.submit.start")
	model.submitting = true
	model.notice = ""
	return model, tea.Batch(model.spinner.Tick, sendCmd(model.ctx, attempt, model.relay))
}

func sendCmd(ctx context.Context, attempt *submit.Attempt, relay *noticeRelay) tea.Cmd {
	return func() tea.Msg {
		redirect, err := attempt.Send(ctx)
		return submitResultMsg{redirect: redirect, err: err, notice: relay.take()}
	}
}

func (model editTUIModel) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	model.submitting = false
	if msg.notice != nil {
		model.setNotice(msg.notice.Message, msg.notice.Kind == submit.NotifyError)
	}
	if msg.err != nil {
		model.event("tui.edit.submit.failed", attribute.String("error_type", errorType(msg.err)))
		return model, nil
	}

	model.event("tui.edit.submit.succeeded")
	model.redirect = msg.redirect
	model.state = editTUIStateDone
	return model, tea.Quit
}

func (model editTUIModel) firstErrorRow(fieldErrs schema.FieldErrors) int {
	return findRow(model.rows, func(r row) bool { return fieldErrs.Has(r.path()) })
}

func (model *editTUIModel) rebuild() {
	model.rows = buildRows(model.editor)
}

// focusRow clamps index, marks the row being left as touched and loads the
// new row into the shared input.
func (model *editTUIModel) focusRow(index int) {
	if index < 0 {
		index = 0
	}
	if index >= len(model.rows) {
		index = len(model.rows) - 1
	}
	if model.focus < len(model.rows) && model.focus != index {
		model.editor.Touch(model.rows[model.focus].path())
	}
	model.focus = index
	model.tagCursor = -1

	current := model.rows[index]
	if current.tags {
		model.input.SetValue("")
		model.input.Placeholder = i18n.T("cmd.edit.tui.tag_placeholder")
		suggestions := model.suggestions.authors
		if current.scope != scopeMod {
			suggestions = model.suggestions.gameVsns
		}
		model.input.ShowSuggestions = len(suggestions) > 0
		model.input.SetSuggestions(suggestions)
	} else {
		model.input.Placeholder = ""
		model.input.ShowSuggestions = false
		model.input.SetSuggestions(nil)
		model.input.SetValue(current.value(model.editor))
	}
	model.input.CursorEnd()
	model.input.Focus()
}

func (model *editTUIModel) setNotice(message string, failed bool) {
	model.notice = message
	model.noticeFailed = failed
}

func (model editTUIModel) event(name string, attributes ...attribute.KeyValue) {
	if model.sessionSpan == nil {
		return
	}
	model.sessionSpan.AddEvent(name, perf.WithEventAttributes(attributes...))
}

func (model editTUIModel) View() string {
	if model.state != editTUIStateEditing {
		return ""
	}

	var out strings.Builder
	out.WriteString(tui.Header(tui.HeaderConfig{
		App:     constants.CommandName,
		Version: environment.AppVersion(),
		Extras:  []string{model.recordName(), model.submitter.State().String()},
	}, model.width))
	out.WriteString("\n")

	visible := model.editor.VisibleErrors()
	for i, current := range model.rows {
		if startsSection(model.rows, i) {
			out.WriteString("\n")
			out.WriteString(model.sectionTitle(current, visible))
			out.WriteString("\n")
		}
		out.WriteString(model.renderRow(i, current))
		out.WriteString("\n")
		if message, ok := visible[current.path()]; ok {
			out.WriteString(tui.FieldErrorStyle.Render(message))
			out.WriteString("\n")
		}
	}

	out.WriteString("\n")
	if model.submitting {
		out.WriteString(model.spinner.View() + " " + i18n.T("cmd.edit.tui.submitting"))
		out.WriteString("\n")
	} else if model.notice != "" {
		out.WriteString(tui.Notice(model.notice, model.noticeFailed))
		out.WriteString("\n")
	}
	out.WriteString(tui.HelpStyle.Render(model.help.View(model.keys)))
	return out.String()
}

func (model editTUIModel) sectionTitle(current row, visible schema.FieldErrors) string {
	var title string
	switch current.scope {
	case scopeVersion:
		title = i18n.T("cmd.edit.tui.section.version", i18n.Tvars{Data: &i18n.TData{"number": current.version + 1}})
	case scopeFile:
		title = i18n.T("cmd.edit.tui.section.file", i18n.Tvars{Data: &i18n.TData{"number": current.file + 1}})
	default:
		title = i18n.T("cmd.edit.tui.section.mod")
	}
	if current.scope == scopeFile {
		title = "  " + title
	}
	rendered := tui.SectionStyle.Render(title)

	// List level problems, such as a version without files, belong to the
	// version heading.
	if current.scope == scopeVersion {
		if message, ok := visible[schema.PathOf("mod_vsns", current.version, "files")]; ok {
			rendered += "\n" + tui.FieldErrorStyle.Render(message)
		}
	}
	return rendered
}

func (model editTUIModel) renderRow(index int, current row) string {
	focused := index == model.focus
	label := current.label() + ":"
	if current.scope == scopeFile {
		label = "  " + label
	}

	var value string
	switch {
	case current.tags:
		selected := -1
		if focused {
			selected = model.tagCursor
		}
		value = renderTags(current.tagValues(model.editor), selected)
		if focused {
			value = strings.TrimSpace(value + " " + model.input.View())
		}
	case focused:
		value = model.input.View()
	default:
		value = current.value(model.editor)
	}

	if focused {
		return tui.FocusedLabelStyle.Render("❯ "+label) + " " + value
	}
	return tui.LabelStyle.Render(label) + " " + value
}

func renderTags(tags []string, selected int) string {
	rendered := make([]string, 0, len(tags))
	for i, tag := range tags {
		if i == selected {
			rendered = append(rendered, tui.SelectedTagStyle.Render(tag))
			continue
		}
		rendered = append(rendered, tui.TagStyle.Render(tag))
	}
	return strings.Join(rendered, " ")
}

func (model editTUIModel) recordName() string {
	name, _ := model.editor.ModField(editor.FieldName)
	if name == "" {
		return i18n.T("cmd.edit.tui.untitled")
	}
	return name
}
