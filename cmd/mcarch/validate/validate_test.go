package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/minecraft"
	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/pagedata"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
	"github.com/mcarch/mcarch-editor/testutil"
)

const validMod = `{"name":"Example","desc":null,"authors":["Alice"],"mod_vsns":[{"name":"1.0","files":[{"page_url":null}]}]}`

func runWith(t *testing.T, fs afero.Fs, stdin string, options validateOptions) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(stdin))
	_, err := runValidate(context.Background(), cmd, options, validateDeps{
		fs:     fs,
		logger: logger.New(out, errOut, false, false),
	})
	return out.String(), errOut.String(), err
}

func TestValidDocument(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "mod.json", []byte(validMod), 0o644))

	out, errOut, err := runWith(t, fs, "", validateOptions{Path: "mod.json"})

	require.NoError(t, err)
	assert.Contains(t, out, "cmd.validate.valid")
	assert.Contains(t, out, "name:Example")
	assert.Empty(t, errOut)
}

func TestNormalizedOutput(t *testing.T) {
	out, _, err := runWith(t, afero.NewMemMapFs(), validMod, validateOptions{Path: pagedata.StdinPath, Normalized: true})

	require.NoError(t, err)
	var record models.ModRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "", record.Desc)
	assert.Equal(t, []string{}, record.ModVsns[0].GameVsns)
	assert.Equal(t, "", record.ModVsns[0].Files[0].PageURL)
}

func TestInvalidDocumentListsEveryPath(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	document := `{"name":"","mod_vsns":[{"name":"a","files":[{}]},{"name":"","files":[]}]}`

	_, errOut, err := runWith(t, afero.NewMemMapFs(), document, validateOptions{Path: pagedata.StdinPath})

	var invalid *invalidDocumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 3, invalid.count)
	assert.Equal(t, 1, invalid.ExitCode())

	lines := strings.Split(strings.TrimSpace(errOut), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "cmd.validate.invalid")
	assert.True(t, strings.HasPrefix(lines[1], "  mod_vsns.1.files: schema.error.min_items"))
	assert.True(t, strings.HasPrefix(lines[2], "  mod_vsns.1.name: schema.error.required"))
	assert.True(t, strings.HasPrefix(lines[3], "  name: schema.error.required"))
}

func TestMissingFile(t *testing.T) {
	_, _, err := runWith(t, afero.NewMemMapFs(), "", validateOptions{Path: "missing.json"})

	var notFound *pagedata.FileNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCommandSilencesInvalidDocuments(t *testing.T) {
	telemetry.Reset()
	t.Cleanup(telemetry.Reset)

	cmd := commandWithRunner(func(_ context.Context, _ *cobra.Command, options validateOptions, _ validateDeps) (telemetry.CommandTelemetry, error) {
		assert.Equal(t, "page.json", options.Path)
		assert.True(t, options.Normalized)
		return telemetry.CommandTelemetry{}, &invalidDocumentError{count: 2}
	})
	root := &cobra.Command{Use: "mcarch"}
	cli.RegisterGlobalFlags(root)
	root.AddCommand(cmd)
	root.SetArgs([]string{"validate", "page.json", "--normalized"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()

	require.Error(t, err)
	assert.True(t, cmd.SilenceErrors)
	recorded := telemetry.RecordedCommands()
	require.Len(t, recorded, 1)
	assert.Equal(t, "validate", recorded[0].Command)
	assert.False(t, recorded[0].Success)
	assert.Equal(t, 1, recorded[0].ExitCode)
}

func TestCommandRecordsSpan(t *testing.T) {
	perf.Reset()
	t.Cleanup(perf.Reset)

	cmd := commandWithRunner(func(context.Context, *cobra.Command, validateOptions, validateDeps) (telemetry.CommandTelemetry, error) {
		return telemetry.CommandTelemetry{}, nil
	})
	cmd.SetArgs([]string{"page.json"})
	cli.RegisterGlobalFlags(cmd)
	cmd.SetOut(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())

	span, ok := perf.FindSpanByName(perf.GetSpans(), "app.command.validate")
	require.True(t, ok)
	assert.Equal(t, true, span.Attributes["success"])
}

func runWithMojang(t *testing.T, document string, manifest http.HandlerFunc) (telemetry.CommandTelemetry, string, string, *testutil.RehostDoer, error) {
	t.Helper()
	minecraft.ClearManifestCache()
	t.Cleanup(minecraft.ClearManifestCache)
	mojang := httptest.NewServer(manifest)
	t.Cleanup(mojang.Close)
	doer := testutil.MustNewRehostDoer(mojang.URL, mojang.Client())

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(document))
	payload, err := runValidate(context.Background(), cmd, validateOptions{Path: pagedata.StdinPath, Mojang: true}, validateDeps{
		fs:              afero.NewMemMapFs(),
		logger:          logger.New(out, errOut, false, false),
		minecraftClient: doer,
	})
	return payload, out.String(), errOut.String(), doer, err
}

func TestMojangWarnsAboutUnknownGameVersions(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	document := `{"name":"Example","mod_vsns":[
		{"name":"1.0","game_vsns":["1.7.10","1.7.11"],"files":[{}]},
		{"name":"2.0","game_vsns":["1.12.2"],"files":[{}]}]}`

	payload, out, errOut, doer, err := runWithMojang(t, document, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"versions":[{"id":"1.7.10","type":"release"}]}`)
	})

	require.NoError(t, err)
	assert.Equal(t, 2, payload.Extra["unknown_game_versions"])
	assert.Equal(t, []string{"launchermeta.mojang.com"}, doer.Hosts())
	lines := strings.Split(strings.TrimSpace(errOut), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "path:mod_vsns.0.game_vsns")
	assert.Contains(t, lines[0], "version:1.7.11")
	assert.Contains(t, lines[1], "path:mod_vsns.1.game_vsns")
	assert.Contains(t, lines[1], "version:1.12.2")
	assert.Contains(t, out, "cmd.validate.valid")
}

func TestMojangUnavailableIsNotAnError(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")

	payload, out, errOut, _, err := runWithMojang(t, validMod, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	require.NoError(t, err)
	assert.Equal(t, 0, payload.Extra["unknown_game_versions"])
	assert.Empty(t, errOut)
	assert.Contains(t, out, "cmd.validate.valid")
}
