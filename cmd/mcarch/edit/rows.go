package edit

import (
	"github.com/mcarch/mcarch-editor/internal/editor"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/schema"
)

type rowScope int

const (
	scopeMod rowScope = iota
	scopeVersion
	scopeFile
)

// row is one focusable line of the form. Rows are rebuilt from the editor
// after every structural change, so indices are always current.
type row struct {
	scope   rowScope
	tags    bool
	version int
	file    int
	field   editor.Field
}

func buildRows(ed *editor.Editor) []row {
	rows := make([]row, 0, 16)
	for _, field := range editor.ModFields {
		rows = append(rows, row{scope: scopeMod, field: field})
	}
	rows = append(rows, row{scope: scopeMod, tags: true})

	for v := 0; v < ed.VersionCount(); v++ {
		for _, field := range editor.VersionFields {
			rows = append(rows, row{scope: scopeVersion, version: v, field: field})
		}
		rows = append(rows, row{scope: scopeVersion, version: v, tags: true})

		for f := 0; f < ed.FileCount(v); f++ {
			for _, field := range editor.FileFields {
				rows = append(rows, row{scope: scopeFile, version: v, file: f, field: field})
			}
		}
	}
	return rows
}

func (r row) path() string {
	switch r.scope {
	case scopeVersion:
		if r.tags {
			return schema.PathOf("mod_vsns", r.version, "game_vsns")
		}
		return schema.PathOf("mod_vsns", r.version, string(r.field))
	case scopeFile:
		return schema.PathOf("mod_vsns", r.version, "files", r.file, string(r.field))
	default:
		if r.tags {
			return "authors"
		}
		return string(r.field)
	}
}

func (r row) label() string {
	if r.tags {
		if r.scope == scopeMod {
			return i18n.T("cmd.edit.field.authors")
		}
		return i18n.T("cmd.edit.field.game_vsns")
	}
	return i18n.T("cmd.edit.field." + string(r.field))
}

func (r row) value(ed *editor.Editor) string {
	var value string
	switch r.scope {
	case scopeMod:
		value, _ = ed.ModField(r.field)
	case scopeVersion:
		value, _ = ed.VersionField(r.version, r.field)
	case scopeFile:
		value, _ = ed.FileField(r.version, r.file, r.field)
	}
	return value
}

func (r row) set(ed *editor.Editor, value string) error {
	switch r.scope {
	case scopeVersion:
		return ed.SetVersionField(r.version, r.field, value)
	case scopeFile:
		return ed.SetFileField(r.version, r.file, r.field, value)
	default:
		return ed.SetModField(r.field, value)
	}
}

func (r row) tagValues(ed *editor.Editor) []string {
	record := ed.Record()
	if r.scope == scopeMod {
		return record.Authors
	}
	if r.version < len(record.ModVsns) {
		return record.ModVsns[r.version].GameVsns
	}
	return nil
}

func (r row) addTag(ed *editor.Editor, name string) error {
	if r.scope == scopeMod {
		ed.AddAuthorTag(name)
		return nil
	}
	return ed.AddGameVsnTag(r.version, name)
}

// removeTag drops the tag at index, or the newest tag when index is negative.
func (r row) removeTag(ed *editor.Editor, index int) error {
	count := len(r.tagValues(ed))
	if count == 0 {
		return nil
	}
	if index < 0 {
		index = count - 1
	}
	if r.scope == scopeMod {
		return ed.RemoveAuthorTag(index)
	}
	return ed.RemoveGameVsnTag(r.version, index)
}

// startsSection reports whether a heading goes above the row.
func startsSection(rows []row, index int) bool {
	if index == 0 {
		return true
	}
	previous, current := rows[index-1], rows[index]
	return previous.scope != current.scope || previous.version != current.version || previous.file != current.file
}

func findRow(rows []row, match func(row) bool) int {
	for i, candidate := range rows {
		if match(candidate) {
			return i
		}
	}
	return -1
}
