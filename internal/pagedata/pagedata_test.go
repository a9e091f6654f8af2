package pagedata

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/schema"
)

const pageDocument = `{
  "mod": {
    "id": 7,
    "name": "Test Mod",
    "desc": null,
    "website": null,
    "authors": [{"id": 1, "name": "Notch"}],
    "mod_vsns": [{
      "id": 3,
      "name": "1.0",
      "desc": null,
      "url": null,
      "game_vsns": [{"id": 2, "name": "b1.7.3"}],
      "files": [{"id": 9, "desc": null, "page_url": null, "redirect_url": null, "direct_url": "http://x/y"}]
    }]
  },
  "authors": [{"id": 1, "name": "Notch"}, {"id": 4, "name": "jeb_"}],
  "game_vsns": [{"id": 2, "name": "b1.7.3"}]
}`

func TestLoadFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "page.json", []byte(pageDocument), 0644))

	page, err := Load(fs, "page.json", nil)
	require.NoError(t, err)

	assert.Equal(t, "Test Mod", page.Mod.Name)
	assert.Equal(t, "", page.Mod.Desc)
	assert.Equal(t, []string{"Notch"}, page.Mod.Authors)
	require.NotNil(t, page.Mod.ID)
	assert.Equal(t, int64(7), *page.Mod.ID)
	assert.Equal(t, []string{"b1.7.3"}, page.Mod.ModVsns[0].GameVsns)
	assert.Equal(t, "http://x/y", page.Mod.ModVsns[0].Files[0].DirectURL)
	assert.Equal(t, []string{"Notch", "jeb_"}, page.Authors)
	assert.Equal(t, []string{"b1.7.3"}, page.GameVsns)
}

func TestLoadFromStdin(t *testing.T) {
	page, err := Load(afero.NewMemMapFs(), StdinPath, strings.NewReader(`{"name":"Bare Mod","mod_vsns":null}`))
	require.NoError(t, err)

	assert.Equal(t, "Bare Mod", page.Mod.Name)
	assert.Equal(t, []models.VersionRecord{}, page.Mod.ModVsns)
	assert.Empty(t, page.Authors)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "missing.json", nil)

	var notFound *FileNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing.json", notFound.Path)
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "broken.json", []byte(`{"mod":`), 0644))
	require.NoError(t, afero.WriteFile(fs, "nameless.json", []byte(`{"mod":{"desc":"x"}}`), 0644))

	_, err := Load(fs, "broken.json", nil)
	var invalid *InvalidError
	assert.ErrorAs(t, err, &invalid)

	_, err = Load(fs, "nameless.json", nil)
	assert.ErrorIs(t, err, &schema.SchemaError{Path: "name"})
}

func TestBlank(t *testing.T) {
	page := Blank()
	assert.Equal(t, "", page.Mod.Name)
	assert.NotNil(t, page.Mod.ModVsns)
}
