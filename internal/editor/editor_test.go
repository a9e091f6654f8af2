package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcarch/mcarch-editor/internal/models"
)

func validRecord() models.ModRecord {
	return models.ModRecord{
		Name:    "Test Mod",
		Authors: []string{"alice"},
		ModVsns: []models.VersionRecord{
			{Name: "1.0", GameVsns: []string{"b1.7.3"}, Files: []models.FileRecord{{DirectURL: "http://x/y"}}},
		},
	}
}

func TestNewDoesNotShareTheRecord(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	record := validRecord()
	editor := New(record)

	require.NoError(t, editor.SetVersionField(0, FieldName, "2.0"))
	editor.AddAuthorTag("bob")

	assert.Equal(t, "1.0", record.ModVsns[0].Name)
	assert.Equal(t, []string{"alice"}, record.Authors)
	assert.Equal(t, "2.0", editor.Record().ModVsns[0].Name)
}

func TestAddVersionAppendsBlankVersionWithOneFile(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	editor := New(validRecord())

	editor.AddVersion()

	record := editor.Record()
	require.Len(t, record.ModVsns, 2)
	added := record.ModVsns[1]
	assert.Equal(t, "", added.Name)
	assert.Empty(t, added.GameVsns)
	assert.Equal(t, []models.FileRecord{{}}, added.Files)
	assert.Equal(t, 1, editor.FileCount(1))

	assert.True(t, editor.Errors().Has("mod_vsns.1.name"))
	assert.False(t, editor.VisibleErrors().Has("mod_vsns.1.name"))
}

func TestRemoveVersionDoesNotLeaveStalePaths(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	record := validRecord()
	record.ModVsns = append(record.ModVsns,
		models.VersionRecord{Name: "", Files: []models.FileRecord{{}}},
		models.VersionRecord{Name: "3.0", Files: []models.FileRecord{{}}},
	)
	editor := New(record)
	require.Equal(t, []string{"mod_vsns.1.name"}, editor.Errors().Paths())

	require.NoError(t, editor.RemoveVersion(0))
	assert.Equal(t, []string{"mod_vsns.0.name"}, editor.Errors().Paths())

	require.NoError(t, editor.RemoveVersion(0))
	assert.Empty(t, editor.Errors())
	assert.Equal(t, "3.0", editor.Record().ModVsns[0].Name)
}

func TestTouchedStateFollowsTheVersion(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	editor := New(validRecord())
	editor.AddVersion()
	editor.AddVersion()
	require.NoError(t, editor.SetVersionField(2, FieldName, ""))

	assert.Equal(t, []string{"mod_vsns.2.name"}, editor.VisibleErrors().Paths())

	require.NoError(t, editor.RemoveVersion(1))
	assert.Equal(t, []string{"mod_vsns.1.name"}, editor.VisibleErrors().Paths())

	_, visible := editor.ErrorFor("mod_vsns.1.name")
	assert.True(t, visible)
}

func TestKeysAreStableAcrossRemoval(t *testing.T) {
	editor := New(validRecord())
	editor.AddVersion()
	second, err := editor.VersionKey(1)
	require.NoError(t, err)

	require.NoError(t, editor.RemoveVersion(0))

	first, err := editor.VersionKey(0)
	require.NoError(t, err)
	assert.Equal(t, second, first)

	_, err = editor.VersionKey(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFileKeysAreStableAcrossRemoval(t *testing.T) {
	editor := New(validRecord())
	require.NoError(t, editor.AddFile(0))
	require.NoError(t, editor.AddFile(0))
	third, err := editor.FileKey(0, 2)
	require.NoError(t, err)

	require.NoError(t, editor.RemoveFile(0, 1))

	moved, err := editor.FileKey(0, 1)
	require.NoError(t, err)
	assert.Equal(t, third, moved)

	_, err = editor.FileKey(0, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = editor.FileKey(3, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRemoveFile(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	editor := New(validRecord())

	t.Run("last file is kept", func(t *testing.T) {
		err := editor.RemoveFile(0, 0)
		assert.ErrorIs(t, err, ErrLastFile)
		assert.Len(t, editor.Record().ModVsns[0].Files, 1)
	})

	t.Run("removes by index and keeps order", func(t *testing.T) {
		require.NoError(t, editor.AddFile(0))
		require.NoError(t, editor.AddFile(0))
		require.NoError(t, editor.SetFileField(0, 1, FieldDesc, "second"))
		require.NoError(t, editor.SetFileField(0, 2, FieldDesc, "third"))

		require.NoError(t, editor.RemoveFile(0, 0))

		files := editor.Record().ModVsns[0].Files
		require.Len(t, files, 2)
		assert.Equal(t, "second", files[0].Desc)
		assert.Equal(t, "third", files[1].Desc)
	})

	t.Run("out of range", func(t *testing.T) {
		assert.ErrorIs(t, editor.RemoveFile(0, 5), ErrIndexOutOfRange)
		assert.ErrorIs(t, editor.RemoveFile(3, 0), ErrIndexOutOfRange)
		assert.ErrorIs(t, editor.AddFile(-1), ErrIndexOutOfRange)
	})
}

func TestEmptyFilesFailUntilOneIsAdded(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	record := validRecord()
	record.ModVsns[0].Files = []models.FileRecord{}
	editor := New(record)

	_, fieldErrs := editor.Validate()
	assert.True(t, fieldErrs.Has("mod_vsns.0.files"))

	require.NoError(t, editor.AddFile(0))

	validated, fieldErrs := editor.Validate()
	assert.Empty(t, fieldErrs)
	assert.Len(t, validated.ModVsns[0].Files, 1)
}

func TestFileErrorsUseFilePaths(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	editor := New(validRecord())
	require.NoError(t, editor.AddFile(0))

	long := make([]byte, models.URLMaxLength+1)
	for i := range long {
		long[i] = 'a'
	}
	require.NoError(t, editor.SetFileField(0, 1, FieldPageURL, string(long)))

	assert.Equal(t, []string{"mod_vsns.0.files.1.page_url"}, editor.VisibleErrors().Paths())
	assert.Contains(t, editor.Errors()["mod_vsns.0.files.1.page_url"], "schema.error.max_length")

	require.NoError(t, editor.RemoveFile(0, 0))
	assert.Equal(t, []string{"mod_vsns.0.files.0.page_url"}, editor.Errors().Paths())
}

func TestTags(t *testing.T) {
	editor := New(validRecord())

	editor.AddAuthorTag("bob")
	editor.AddAuthorTag("   ")
	editor.AddAuthorTag(" carol ")
	assert.Equal(t, []string{"alice", "bob", "carol"}, editor.Record().Authors)

	require.NoError(t, editor.RemoveAuthorTag(0))
	assert.Equal(t, []string{"bob", "carol"}, editor.Record().Authors)
	assert.ErrorIs(t, editor.RemoveAuthorTag(2), ErrIndexOutOfRange)

	require.NoError(t, editor.AddGameVsnTag(0, "1.2.5"))
	require.NoError(t, editor.AddGameVsnTag(0, ""))
	assert.Equal(t, []string{"b1.7.3", "1.2.5"}, editor.Record().ModVsns[0].GameVsns)

	require.NoError(t, editor.RemoveGameVsnTag(0, 0))
	assert.Equal(t, []string{"1.2.5"}, editor.Record().ModVsns[0].GameVsns)
	assert.ErrorIs(t, editor.RemoveGameVsnTag(0, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, editor.AddGameVsnTag(1, "x"), ErrIndexOutOfRange)
}

func TestFieldAccess(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	editor := New(validRecord())

	require.NoError(t, editor.SetModField(FieldWebsite, "https://example.org"))
	website, err := editor.ModField(FieldWebsite)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", website)

	assert.ErrorIs(t, editor.SetModField(FieldPageURL, "x"), ErrUnknownField)
	assert.ErrorIs(t, editor.SetVersionField(0, FieldWebsite, "x"), ErrUnknownField)
	assert.ErrorIs(t, editor.SetFileField(0, 0, FieldName, "x"), ErrUnknownField)

	url, err := editor.FileField(0, 0, FieldDirectURL)
	require.NoError(t, err)
	assert.Equal(t, "http://x/y", url)

	_, err = editor.VersionField(4, FieldName)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestErrorsBecomeVisibleAfterSubmitAttempt(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	record := validRecord()
	record.Name = ""
	editor := New(record)

	assert.Empty(t, editor.VisibleErrors())
	assert.False(t, editor.Valid())

	_, fieldErrs := editor.Validate()
	assert.Equal(t, []string{"name"}, fieldErrs.Paths())
	assert.True(t, editor.SubmitAttempted())
	assert.Equal(t, []string{"name"}, editor.VisibleErrors().Paths())

	require.NoError(t, editor.SetModField(FieldName, "Fixed"))
	assert.Empty(t, editor.VisibleErrors())
	assert.True(t, editor.Valid())
}

func TestTouchRevealsSingleField(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	editor := New(validRecord())
	editor.AddVersion()

	editor.Touch("mod_vsns.1.name")

	assert.Equal(t, []string{"mod_vsns.1.name"}, editor.VisibleErrors().Paths())
}
