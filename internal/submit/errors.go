package submit

import (
	"errors"
	"fmt"
)

var (
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrSessionEnded   = errors.New("the changes were already saved")
)

// TransportError covers failed requests and non 2xx answers.
type TransportError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submitting changes failed: %v", e.Err)
	}
	return fmt.Sprintf("submitting changes failed: %s", e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is a 2xx answer whose body is not a valid submit response.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid submit response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid submit response: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ServerError is a well formed answer with a result other than success.
type ServerError struct {
	Result  string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("archive rejected the changes (%s): %s", e.Result, e.Message)
}

type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("submission aborted: %v", e.Value)
}
