package edit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mcarch/mcarch-editor/internal/archive"
	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/editor"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/submit"
)

// archiveServer fakes the edit endpoint and the suggestion lists.
type archiveServer struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   [][]byte
	response string
	status   int
}

func newArchiveServer(t *testing.T, response string) *archiveServer {
	t.Helper()
	server := &archiveServer{response: response, status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/authors.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]`)
	})
	mux.HandleFunc("/gamevsns.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"name":"1.7.10"},{"name":"1.12.2"}]`)
	})
	mux.HandleFunc("/mods/42/edit", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		server.mu.Lock()
		server.bodies = append(server.bodies, body)
		status, response := server.status, server.response
		server.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	})
	server.Server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func (server *archiveServer) posted() [][]byte {
	server.mu.Lock()
	defer server.mu.Unlock()
	return append([][]byte(nil), server.bodies...)
}

func newTestClient(t *testing.T, server *archiveServer) *archive.Client {
	t.Helper()
	client, err := archive.NewHTTPClient(server.URL, "")
	require.NoError(t, err)
	return client
}

func newTestModel(t *testing.T, record models.ModRecord, server *archiveServer) editTUIModel {
	t.Helper()
	client := newTestClient(t, server)
	relay := &noticeRelay{}
	submitter, err := submit.New(client, server.URL+"/mods/42/edit", submit.WithNotifier(relay), submit.WithNavigator(relay))
	require.NoError(t, err)
	return newEditTUIModel(context.Background(), nil, editor.New(record), submitter, relay, suggestionLists{
		authors:  []string{"Alice", "Bob"},
		gameVsns: []string{"1.7.10", "1.12.2"},
	})
}

func validRecord() models.ModRecord {
	return models.ModRecord{
		Name:    "Example Mod",
		Authors: []string{"Alice"},
		ModVsns: []models.VersionRecord{{
			Name:     "1.0",
			GameVsns: []string{"1.7.10"},
			Files:    []models.FileRecord{{PageURL: "https://example.com/files/1"}},
		}},
	}
}

func press(t *testing.T, model editTUIModel, msgs ...tea.Msg) editTUIModel {
	t.Helper()
	var updated tea.Model = model
	for _, msg := range msgs {
		updated, _ = updated.Update(msg)
	}
	typed, ok := updated.(editTUIModel)
	require.True(t, ok)
	return typed
}

func keyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

// drain runs cmd and every command it batches, returning the messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, inner := range batch {
			out = append(out, drain(inner)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func resultOf(t *testing.T, cmd tea.Cmd) submitResultMsg {
	t.Helper()
	for _, msg := range drain(cmd) {
		if result, ok := msg.(submitResultMsg); ok {
			return result
		}
	}
	require.FailNow(t, "no submit result produced")
	return submitResultMsg{}
}

// rootFor mounts cmd under a root carrying the global flags.
func rootFor(cmd *cobra.Command, args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	root := &cobra.Command{Use: "mcarch", SilenceErrors: true, SilenceUsage: true}
	cli.RegisterGlobalFlags(root)
	root.AddCommand(cmd)
	root.SetArgs(args)
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetIn(&bytes.Buffer{})
	return root, out, errOut
}

func testDeps(fs afero.Fs, out, errOut io.Writer) editDeps {
	return editDeps{
		fs:              fs,
		logger:          logger.New(out, errOut, false, false),
		newClient:       archive.NewHTTPClient,
		minecraftClient: http.DefaultClient,
		useTUI:          func(bool, *cobra.Command) bool { return false },
		runTea: func(tea.Model, ...tea.ProgramOption) (tea.Model, error) {
			panic("unexpected program run")
		},
	}
}
