// Package pagedata loads the document the archive hands the editor: the mod
// under edit and the suggestion lists for its tag inputs.
package pagedata

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/schema"
)

// StdinPath makes Load read the document from the given reader.
const StdinPath = "-"

type Page struct {
	Mod      models.ModRecord
	Authors  []string
	GameVsns []string
}

type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("page data file not found: %s", e.Path)
}

type InvalidError struct {
	Path string
	Err  error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid page data in %s: %v", e.Path, e.Err)
}

func (e *InvalidError) Unwrap() error {
	return e.Err
}

func Load(fs afero.Fs, path string, stdin io.Reader) (Page, error) {
	data, err := read(fs, path, stdin)
	if err != nil {
		return Page{}, err
	}
	page, err := Parse(data)
	if err != nil {
		return Page{}, &InvalidError{Path: path, Err: err}
	}
	return page, nil
}

// Parse accepts either a page document ({"mod": ...}) or a bare mod object.
func Parse(data []byte) (Page, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Page{}, err
	}

	var document models.PageData
	if _, ok := fields["mod"]; ok {
		if err := json.Unmarshal(data, &document); err != nil {
			return Page{}, err
		}
	} else {
		document.Mod = data
	}

	mod, err := schema.Normalize(document.Mod)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Mod:      mod,
		Authors:  models.SuggestionNames(document.Authors),
		GameVsns: models.SuggestionNames(document.GameVsns),
	}, nil
}

// Blank is the page of a mod that does not exist yet.
func Blank() Page {
	return Page{
		Mod: models.ModRecord{
			Authors: []string{},
			ModVsns: []models.VersionRecord{},
		},
		Authors:  []string{},
		GameVsns: []string{},
	}
}

func read(fs afero.Fs, path string, stdin io.Reader) ([]byte, error) {
	if path == StdinPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read page data from stdin: %w", err)
		}
		return data, nil
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &FileNotFoundError{Path: path}
	}
	return afero.ReadFile(fs, path)
}
