// Package editor holds the mod tree being edited. Versions and files carry
// stable keys so error and touched state follow the element, not its index.
package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/schema"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrLastFile        = errors.New("a version needs at least one file")
	ErrUnknownField    = errors.New("unknown field")
)

type Key string

func newKey() Key {
	return Key(uuid.NewString())
}

type fieldRef struct {
	key   Key
	field string
}

type versionKeys struct {
	key   Key
	files []Key
}

// Editor is owned by a single goroutine. Every mutation revalidates the whole tree.
type Editor struct {
	record    models.ModRecord
	rootKey   Key
	versions  []versionKeys
	errs      map[fieldRef]string
	touched   map[fieldRef]bool
	attempted bool
}

func New(record models.ModRecord) *Editor {
	editor := &Editor{
		record:  record.Clone(),
		rootKey: newKey(),
		touched: map[fieldRef]bool{},
	}
	editor.versions = make([]versionKeys, len(editor.record.ModVsns))
	for i, version := range editor.record.ModVsns {
		editor.versions[i] = newVersionKeys(len(version.Files))
	}
	editor.revalidate()
	return editor
}

func newVersionKeys(files int) versionKeys {
	keys := versionKeys{key: newKey(), files: make([]Key, files)}
	for i := range keys.files {
		keys.files[i] = newKey()
	}
	return keys
}

// Record returns a copy of the current tree.
func (e *Editor) Record() models.ModRecord {
	return e.record.Clone()
}

func (e *Editor) VersionCount() int {
	return len(e.record.ModVsns)
}

func (e *Editor) FileCount(versionIndex int) int {
	if !e.validVersion(versionIndex) {
		return 0
	}
	return len(e.record.ModVsns[versionIndex].Files)
}

func (e *Editor) VersionKey(versionIndex int) (Key, error) {
	if !e.validVersion(versionIndex) {
		return "", indexError("mod_vsns", versionIndex)
	}
	return e.versions[versionIndex].key, nil
}

func (e *Editor) FileKey(versionIndex, fileIndex int) (Key, error) {
	if !e.validFile(versionIndex, fileIndex) {
		return "", indexError(schema.PathOf("mod_vsns", versionIndex, "files"), fileIndex)
	}
	return e.versions[versionIndex].files[fileIndex], nil
}

func (e *Editor) AddVersion() {
	e.record.ModVsns = append(e.record.ModVsns, models.BlankVersion())
	e.versions = append(e.versions, newVersionKeys(1))
	e.revalidate()
}

func (e *Editor) RemoveVersion(index int) error {
	if !e.validVersion(index) {
		return indexError("mod_vsns", index)
	}
	removed := e.versions[index]
	e.record.ModVsns = append(e.record.ModVsns[:index], e.record.ModVsns[index+1:]...)
	e.versions = append(e.versions[:index], e.versions[index+1:]...)
	e.forget(removed.key)
	for _, key := range removed.files {
		e.forget(key)
	}
	e.revalidate()
	return nil
}

func (e *Editor) AddFile(versionIndex int) error {
	if !e.validVersion(versionIndex) {
		return indexError("mod_vsns", versionIndex)
	}
	version := &e.record.ModVsns[versionIndex]
	version.Files = append(version.Files, models.BlankFile())
	keys := &e.versions[versionIndex]
	keys.files = append(keys.files, newKey())
	e.touched[fieldRef{keys.key, "files"}] = true
	e.revalidate()
	return nil
}

func (e *Editor) RemoveFile(versionIndex, fileIndex int) error {
	if !e.validFile(versionIndex, fileIndex) {
		return indexError(schema.PathOf("mod_vsns", versionIndex, "files"), fileIndex)
	}
	version := &e.record.ModVsns[versionIndex]
	if len(version.Files) == 1 {
		return ErrLastFile
	}
	keys := &e.versions[versionIndex]
	removed := keys.files[fileIndex]
	version.Files = append(version.Files[:fileIndex], version.Files[fileIndex+1:]...)
	keys.files = append(keys.files[:fileIndex], keys.files[fileIndex+1:]...)
	e.forget(removed)
	e.touched[fieldRef{keys.key, "files"}] = true
	e.revalidate()
	return nil
}

// AddAuthorTag appends a tag. Blank names are ignored.
func (e *Editor) AddAuthorTag(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	e.record.Authors = append(e.record.Authors, name)
	e.touched[fieldRef{e.rootKey, "authors"}] = true
	e.revalidate()
}

func (e *Editor) RemoveAuthorTag(index int) error {
	if index < 0 || index >= len(e.record.Authors) {
		return indexError("authors", index)
	}
	e.record.Authors = append(e.record.Authors[:index], e.record.Authors[index+1:]...)
	e.touched[fieldRef{e.rootKey, "authors"}] = true
	e.revalidate()
	return nil
}

func (e *Editor) AddGameVsnTag(versionIndex int, name string) error {
	if !e.validVersion(versionIndex) {
		return indexError("mod_vsns", versionIndex)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	version := &e.record.ModVsns[versionIndex]
	version.GameVsns = append(version.GameVsns, name)
	e.touched[fieldRef{e.versions[versionIndex].key, "game_vsns"}] = true
	e.revalidate()
	return nil
}

func (e *Editor) RemoveGameVsnTag(versionIndex, index int) error {
	if !e.validVersion(versionIndex) {
		return indexError("mod_vsns", versionIndex)
	}
	version := &e.record.ModVsns[versionIndex]
	if index < 0 || index >= len(version.GameVsns) {
		return indexError(schema.PathOf("mod_vsns", versionIndex, "game_vsns"), index)
	}
	version.GameVsns = append(version.GameVsns[:index], version.GameVsns[index+1:]...)
	e.touched[fieldRef{e.versions[versionIndex].key, "game_vsns"}] = true
	e.revalidate()
	return nil
}

func (e *Editor) validVersion(index int) bool {
	return index >= 0 && index < len(e.record.ModVsns)
}

func (e *Editor) validFile(versionIndex, fileIndex int) bool {
	return e.validVersion(versionIndex) &&
		fileIndex >= 0 && fileIndex < len(e.record.ModVsns[versionIndex].Files)
}

func (e *Editor) forget(key Key) {
	for ref := range e.touched {
		if ref.key == key {
			delete(e.touched, ref)
		}
	}
}

func indexError(path string, index int) error {
	return fmt.Errorf("%w: %s.%s", ErrIndexOutOfRange, path, strconv.Itoa(index))
}
