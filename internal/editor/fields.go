package editor

import (
	"fmt"

	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/schema"
)

type Field string

const (
	FieldName        Field = "name"
	FieldDesc        Field = "desc"
	FieldWebsite     Field = "website"
	FieldURL         Field = "url"
	FieldPageURL     Field = "page_url"
	FieldRedirectURL Field = "redirect_url"
	FieldDirectURL   Field = "direct_url"
)

var (
	ModFields     = []Field{FieldName, FieldWebsite, FieldDesc}
	VersionFields = []Field{FieldName, FieldURL, FieldDesc}
	FileFields    = []Field{FieldDesc, FieldPageURL, FieldRedirectURL, FieldDirectURL}
)

func (e *Editor) ModField(field Field) (string, error) {
	target, err := modField(&e.record, field)
	if err != nil {
		return "", err
	}
	return *target, nil
}

func (e *Editor) SetModField(field Field, value string) error {
	target, err := modField(&e.record, field)
	if err != nil {
		return err
	}
	*target = value
	e.touched[fieldRef{e.rootKey, string(field)}] = true
	e.revalidate()
	return nil
}

func (e *Editor) VersionField(versionIndex int, field Field) (string, error) {
	if !e.validVersion(versionIndex) {
		return "", indexError("mod_vsns", versionIndex)
	}
	target, err := versionField(&e.record.ModVsns[versionIndex], field)
	if err != nil {
		return "", err
	}
	return *target, nil
}

func (e *Editor) SetVersionField(versionIndex int, field Field, value string) error {
	if !e.validVersion(versionIndex) {
		return indexError("mod_vsns", versionIndex)
	}
	target, err := versionField(&e.record.ModVsns[versionIndex], field)
	if err != nil {
		return err
	}
	*target = value
	e.touched[fieldRef{e.versions[versionIndex].key, string(field)}] = true
	e.revalidate()
	return nil
}

func (e *Editor) FileField(versionIndex, fileIndex int, field Field) (string, error) {
	if !e.validFile(versionIndex, fileIndex) {
		return "", indexError(schema.PathOf("mod_vsns", versionIndex, "files"), fileIndex)
	}
	target, err := fileField(&e.record.ModVsns[versionIndex].Files[fileIndex], field)
	if err != nil {
		return "", err
	}
	return *target, nil
}

func (e *Editor) SetFileField(versionIndex, fileIndex int, field Field, value string) error {
	if !e.validFile(versionIndex, fileIndex) {
		return indexError(schema.PathOf("mod_vsns", versionIndex, "files"), fileIndex)
	}
	target, err := fileField(&e.record.ModVsns[versionIndex].Files[fileIndex], field)
	if err != nil {
		return err
	}
	*target = value
	e.touched[fieldRef{e.versions[versionIndex].files[fileIndex], string(field)}] = true
	e.revalidate()
	return nil
}

func modField(record *models.ModRecord, field Field) (*string, error) {
	switch field {
	case FieldName:
		return &record.Name, nil
	case FieldDesc:
		return &record.Desc, nil
	case FieldWebsite:
		return &record.Website, nil
	}
	return nil, unknownField(field)
}

func versionField(version *models.VersionRecord, field Field) (*string, error) {
	switch field {
	case FieldName:
		return &version.Name, nil
	case FieldDesc:
		return &version.Desc, nil
	case FieldURL:
		return &version.URL, nil
	}
	return nil, unknownField(field)
}

func fileField(file *models.FileRecord, field Field) (*string, error) {
	switch field {
	case FieldDesc:
		return &file.Desc, nil
	case FieldPageURL:
		return &file.PageURL, nil
	case FieldRedirectURL:
		return &file.RedirectURL, nil
	case FieldDirectURL:
		return &file.DirectURL, nil
	}
	return nil, unknownField(field)
}

func unknownField(field Field) error {
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}
