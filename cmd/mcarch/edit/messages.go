package edit

import (
	"errors"
	"fmt"

	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/pagedata"
	"github.com/mcarch/mcarch-editor/internal/schema"
)

// reportedError marks a failure the command has already written to the log.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

func reportFieldErrors(log *logger.Logger, fieldErrs schema.FieldErrors) {
	log.Error(i18n.T("cmd.edit.invalid", i18n.Tvars{Count: len(fieldErrs)}))
	for _, path := range fieldErrs.Paths() {
		log.Error(fmt.Sprintf("  %s: %s", path, fieldErrs[path]))
	}
}

func describeLoadError(err error) string {
	var notFound *pagedata.FileNotFoundError
	if errors.As(err, &notFound) {
		return i18n.T("cmd.edit.error.data_not_found", i18n.Tvars{Data: &i18n.TData{"path": notFound.Path}})
	}
	var invalid *pagedata.InvalidError
	if errors.As(err, &invalid) {
		return i18n.T("cmd.edit.error.data_invalid", i18n.Tvars{Data: &i18n.TData{"path": invalid.Path, "error": invalid.Err.Error()}})
	}
	return err.Error()
}

func errorType(err error) string {
	return fmt.Sprintf("%T", err)
}
