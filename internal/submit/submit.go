// Package submit sends a validated mod tree to the archive and turns every
// outcome into a notification for the user.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mcarch/mcarch-editor/internal/environment"
	"github.com/mcarch/mcarch-editor/internal/httpclient"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/schema"
)

const maxResponseSize = 1 << 20

// Form is the tree being edited. Validate is the submit time check.
type Form interface {
	Validate() (models.ModRecord, schema.FieldErrors)
}

type Submitter struct {
	client    httpclient.Doer
	pageURL   *url.URL
	timeout   time.Duration
	notifier  Notifier
	navigator Navigator
	observer  func(State)

	mu    sync.Mutex
	state State
}

type Option func(*Submitter)

func WithTimeout(timeout time.Duration) Option {
	return func(submitter *Submitter) {
		if timeout > 0 {
			submitter.timeout = timeout
		}
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(submitter *Submitter) {
		submitter.notifier = notifier
	}
}

func WithNavigator(navigator Navigator) Option {
	return func(submitter *Submitter) {
		submitter.navigator = navigator
	}
}

// WithObserver is called on every state change, while the submitter lock is held.
func WithObserver(observer func(State)) Option {
	return func(submitter *Submitter) {
		submitter.observer = observer
	}
}

func New(client httpclient.Doer, pageURL string, options ...Option) (*Submitter, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("page url %q must be absolute", pageURL)
	}

	submitter := &Submitter{
		client:    client,
		pageURL:   parsed,
		timeout:   environment.DefaultSubmitTimeout,
		notifier:  noopNotifier{},
		navigator: noopNavigator{},
	}
	for _, option := range options {
		option(submitter)
	}
	return submitter, nil
}

func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CanSubmit reports whether the submit control is enabled.
func (s *Submitter) CanSubmit() bool {
	return s.State() == Editing
}

func (s *Submitter) transition(state State) {
	s.state = state
	if s.observer != nil {
		s.observer(state)
	}
}

// Attempt is a submission that passed validation and holds the submit lock
// until Send returns.
type Attempt struct {
	submitter *Submitter
	record    models.ModRecord
	body      []byte
	once      sync.Once
}

func (a *Attempt) Record() models.ModRecord {
	return a.record.Clone()
}

// Begin validates the form. Field errors are returned as schema.FieldErrors and
// leave the submitter in Editing without a request being made.
func (s *Submitter) Begin(form Form) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Submitting:
		return nil, ErrSubmitInFlight
	case Succeeded:
		return nil, ErrSessionEnded
	}

	record, fieldErrs := form.Validate()
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mod: %w", err)
	}

	s.transition(Submitting)
	return &Attempt{submitter: s, record: record, body: body}, nil
}

// Submit validates and sends in one step.
func (s *Submitter) Submit(ctx context.Context, form Form) (string, error) {
	attempt, err := s.Begin(form)
	if err != nil {
		return "", err
	}
	return attempt.Send(ctx)
}

// Send posts the record and returns the resolved redirect. It runs at most
// once; the submitter always leaves Submitting before Send returns.
func (a *Attempt) Send(ctx context.Context) (redirect string, err error) {
	sent := false
	a.once.Do(func() {
		sent = true
		redirect, err = a.submitter.send(ctx, a.body)
	})
	if !sent {
		return "", ErrSubmitInFlight
	}
	return redirect, err
}

func (s *Submitter) send(ctx context.Context, body []byte) (redirect string, err error) {
	ctx, span := perf.StartSpan(ctx, "submit.send",
		perf.WithAttributes(attribute.String("url", s.pageURL.String())),
	)
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			redirect, err = "", &PanicError{Value: recovered}
		}
		s.finish(redirect, err)
		if err != nil {
			span.RecordError(err)
		}
	}()

	return s.post(ctx, body)
}

func (s *Submitter) post(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.pageURL.String(), bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return "", &TransportError{Err: httpclient.WrapTimeoutError(err)}
	}
	defer func() {
		_ = httpclient.DrainAndClose(response.Body)
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", &TransportError{StatusCode: response.StatusCode, Status: response.Status}
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return "", &TransportError{Err: httpclient.WrapTimeoutError(err)}
	}
	return s.interpret(data)
}

func (s *Submitter) interpret(data []byte) (string, error) {
	var answer models.SubmitResponse
	if err := json.Unmarshal(data, &answer); err != nil {
		return "", &ProtocolError{Reason: "body is not a submit response", Err: err}
	}
	if answer.Result == nil {
		return "", &ProtocolError{Reason: "missing result"}
	}
	if *answer.Result != models.SubmitResultSuccess {
		return "", &ServerError{Result: *answer.Result, Message: answer.Error}
	}
	if answer.Redirect == "" {
		return "", &ProtocolError{Reason: "missing redirect"}
	}

	target, err := s.pageURL.Parse(answer.Redirect)
	if err != nil {
		return "", &ProtocolError{Reason: "invalid redirect", Err: err}
	}
	return target.String(), nil
}

func (s *Submitter) finish(redirect string, err error) {
	s.mu.Lock()
	if err == nil {
		s.transition(Succeeded)
		s.mu.Unlock()
		s.notifier.Notify(Notification{Kind: NotifySuccess, Message: i18n.T("submit.saved")})
		s.navigator.Navigate(redirect)
		return
	}
	s.transition(Failed)
	s.transition(Editing)
	s.mu.Unlock()
	s.notifier.Notify(Notification{Kind: NotifyError, Message: FailureMessage(err)})
}

// FailureMessage is what the user is told about a failed submission.
func FailureMessage(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return i18n.T("submit.error.server", i18n.Tvars{Data: &i18n.TData{"error": serverErr.Message}})
	}
	var protocolErr *ProtocolError
	if errors.As(err, &protocolErr) {
		return i18n.T("submit.error.invalid_response")
	}
	var timeoutErr *httpclient.TimeoutError
	if errors.As(err, &timeoutErr) {
		return i18n.T("submit.error.timeout")
	}
	return i18n.T("submit.error.generic")
}
