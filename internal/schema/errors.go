package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// SchemaError reports raw input that cannot be turned into a record.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid mod data: %s", e.Reason)
	}
	return fmt.Sprintf("invalid mod data at %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	t, ok := target.(*SchemaError)
	if !ok {
		return false
	}
	return t.Path == "" || t.Path == e.Path
}

// FieldErrors maps a field path to a human readable message.
type FieldErrors map[string]string

func (errs FieldErrors) Has(path string) bool {
	_, ok := errs[path]
	return ok
}

// Paths returns the failing paths in natural order, so mod_vsns.2 sorts before mod_vsns.10.
func (errs FieldErrors) Paths() []string {
	paths := make([]string, 0, len(errs))
	for path := range errs {
		paths = append(paths, path)
	}
	slices.SortFunc(paths, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		default:
			return 0
		}
	})
	return paths
}

func (errs FieldErrors) Error() string {
	lines := make([]string, 0, len(errs))
	for _, path := range errs.Paths() {
		lines = append(lines, fmt.Sprintf("%s: %s", path, errs[path]))
	}
	return strings.Join(lines, "\n")
}
