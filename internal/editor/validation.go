package editor

import (
	"strconv"
	"strings"

	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/schema"
)

func (e *Editor) revalidate() {
	_, fieldErrs := schema.Validate(e.record)
	e.storeErrors(fieldErrs)
}

func (e *Editor) storeErrors(fieldErrs schema.FieldErrors) {
	e.errs = make(map[fieldRef]string, len(fieldErrs))
	for path, message := range fieldErrs {
		e.errs[e.refFor(path)] = message
	}
}

// refFor resolves a field path against the current tree to the element that owns it.
func (e *Editor) refFor(path string) fieldRef {
	segments := strings.Split(path, ".")
	if len(segments) < 3 || segments[0] != "mod_vsns" {
		return fieldRef{e.rootKey, path}
	}
	versionIndex, err := strconv.Atoi(segments[1])
	if err != nil || !e.validVersion(versionIndex) {
		return fieldRef{e.rootKey, path}
	}
	keys := e.versions[versionIndex]
	if len(segments) >= 5 && segments[2] == "files" {
		fileIndex, err := strconv.Atoi(segments[3])
		if err == nil && fileIndex >= 0 && fileIndex < len(keys.files) {
			return fieldRef{keys.files[fileIndex], schema.JoinPath(segments[4:])}
		}
	}
	return fieldRef{keys.key, schema.JoinPath(segments[2:])}
}

// pathOf renders a reference with the element's current index.
func (e *Editor) pathOf(ref fieldRef) string {
	if ref.key == e.rootKey {
		return ref.field
	}
	for versionIndex, keys := range e.versions {
		if keys.key == ref.key {
			return schema.PathOf("mod_vsns", versionIndex, ref.field)
		}
		for fileIndex, key := range keys.files {
			if key == ref.key {
				return schema.PathOf("mod_vsns", versionIndex, "files", fileIndex, ref.field)
			}
		}
	}
	return ""
}

// Errors returns every current validation error keyed by field path.
func (e *Editor) Errors() schema.FieldErrors {
	out := make(schema.FieldErrors, len(e.errs))
	for ref, message := range e.errs {
		if path := e.pathOf(ref); path != "" {
			out[path] = message
		}
	}
	return out
}

// VisibleErrors hides errors of fields the user has not touched until a
// submit has been attempted.
func (e *Editor) VisibleErrors() schema.FieldErrors {
	out := make(schema.FieldErrors, len(e.errs))
	for ref, message := range e.errs {
		if !e.attempted && !e.touched[ref] {
			continue
		}
		if path := e.pathOf(ref); path != "" {
			out[path] = message
		}
	}
	return out
}

// ErrorFor returns the visible error of one field.
func (e *Editor) ErrorFor(path string) (string, bool) {
	ref := e.refFor(path)
	message, ok := e.errs[ref]
	return message, ok && (e.attempted || e.touched[ref])
}

func (e *Editor) Valid() bool {
	return len(e.errs) == 0
}

// Touch marks a field as visited so its error shows before the first submit.
func (e *Editor) Touch(path string) {
	e.touched[e.refFor(path)] = true
}

// Validate is the submit time check. From here on every error is visible.
func (e *Editor) Validate() (models.ModRecord, schema.FieldErrors) {
	e.attempted = true
	record, fieldErrs := schema.Validate(e.record)
	e.storeErrors(fieldErrs)
	if len(fieldErrs) == 0 {
		return record, nil
	}
	return record, e.Errors()
}

func (e *Editor) SubmitAttempted() bool {
	return e.attempted
}
