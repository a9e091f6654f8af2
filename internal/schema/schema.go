// Package schema normalizes raw mod data into records and validates records
// against the archive's field constraints.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	instance := validator.New(validator.WithRequiredStructEnabled())
	instance.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return instance
}

// Normalize converts loosely typed input (a decoded JSON object, raw JSON bytes
// or a record) into a ModRecord by running the normalization rule table. The
// input is never modified and normalizing a result again yields the same record.
func Normalize(raw any) (models.ModRecord, error) {
	tree, err := toTree(raw)
	if err != nil {
		return models.ModRecord{}, err
	}

	root, ok := tree.(map[string]any)
	if !ok {
		return models.ModRecord{}, &SchemaError{Reason: "expected an object"}
	}

	if err := applyRules(root, normalizationRules); err != nil {
		return models.ModRecord{}, err
	}

	data, err := json.Marshal(root)
	if err != nil {
		return models.ModRecord{}, &SchemaError{Reason: err.Error()}
	}

	var record models.ModRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.ModRecord{}, &SchemaError{Reason: err.Error()}
	}
	return record, nil
}

// Validate checks the record against the declared constraints. It returns the
// record with every list set (never nil) and, when something fails, the
// failing field paths.
func Validate(record models.ModRecord) (models.ModRecord, FieldErrors) {
	validated := record.Clone()

	err := validate.Struct(validated)
	if err == nil {
		return validated, nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return validated, FieldErrors{"": err.Error()}
	}

	errs := make(FieldErrors, len(validationErrs))
	for _, fieldErr := range validationErrs {
		path := namespacePath(fieldErr.Namespace())
		if errs.Has(path) {
			continue
		}
		errs[path] = message(fieldErr)
	}
	return validated, errs
}

func message(fieldErr validator.FieldError) string {
	data := &i18n.TData{
		"field": fieldErr.Field(),
		"limit": fieldErr.Param(),
	}

	switch fieldErr.Tag() {
	case "required":
		return i18n.T("schema.error.required", i18n.Tvars{Data: data})
	case "max":
		return i18n.T("schema.error.max_length", i18n.Tvars{Data: data})
	case "min":
		return i18n.T("schema.error.min_items", i18n.Tvars{Data: data})
	default:
		return i18n.T("schema.error.invalid", i18n.Tvars{Data: data})
	}
}

func toTree(raw any) (any, error) {
	var data []byte
	switch typed := raw.(type) {
	case nil:
		return nil, &SchemaError{Reason: "no mod data"}
	case json.RawMessage:
		data = typed
	case []byte:
		data = typed
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return nil, &SchemaError{Reason: err.Error()}
		}
		data = encoded
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var tree any
	if err := decoder.Decode(&tree); err != nil {
		return nil, &SchemaError{Reason: err.Error()}
	}
	if tree == nil {
		return nil, &SchemaError{Reason: "no mod data"}
	}
	return tree, nil
}
