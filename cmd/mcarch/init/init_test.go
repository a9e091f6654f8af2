package init

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/config"
	"github.com/mcarch/mcarch-editor/internal/logger"
)

const configPath = "/work/.mcarch.json"

type fakePrompter struct {
	overwrite bool
	newPath   string
	err       error
	asked     []string
}

func (p *fakePrompter) ConfirmOverwrite(configPath string) (bool, error) {
	p.asked = append(p.asked, "overwrite:"+configPath)
	return p.overwrite, p.err
}

func (p *fakePrompter) RequestNewConfigPath(configPath string) (string, error) {
	p.asked = append(p.asked, "path:"+configPath)
	return p.newPath, p.err
}

func newDeps(fs afero.Fs, prompter prompter, out io.Writer) initDeps {
	return initDeps{
		fs:       fs,
		prompter: prompter,
		logger:   logger.New(out, out, false, false),
		useTUI:   func(bool, *cobra.Command) bool { return false },
		runTea: func(tea.Model, ...tea.ProgramOption) (tea.Model, error) {
			panic("unexpected program run")
		},
	}
}

func readConfig(t *testing.T, fs afero.Fs, path string) config.Config {
	t.Helper()
	cfg, err := config.ReadConfig(context.Background(), fs, config.NewMetadata(path))
	require.NoError(t, err)
	return cfg
}

func TestInitWritesDefaults(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	fs := afero.NewMemMapFs()
	out := &bytes.Buffer{}

	meta, err := initWithDeps(context.Background(), initOptions{
		GlobalOptions: cli.GlobalOptions{ConfigPath: configPath, Server: "http://localhost:5000"},
	}, newDeps(fs, &fakePrompter{}, out))

	require.NoError(t, err)
	assert.Equal(t, configPath, meta.ConfigPath)
	assert.Equal(t, config.Config{Server: "http://localhost:5000", SubmitTimeout: "30s"}, readConfig(t, fs, configPath))
	assert.Contains(t, out.String(), "cmd.init.success")
}

func TestInitWritesSessionAndTimeout(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := initWithDeps(context.Background(), initOptions{
		GlobalOptions: cli.GlobalOptions{ConfigPath: configPath, Server: "https://archive.test", Session: "abc"},
		SubmitTimeout: 45 * time.Second,
	}, newDeps(fs, &fakePrompter{}, io.Discard))

	require.NoError(t, err)
	assert.Equal(t, config.Config{Server: "https://archive.test", Session: "abc", SubmitTimeout: "45s"}, readConfig(t, fs, configPath))
}

func TestInitRejectsBadValues(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")
	fs := afero.NewMemMapFs()

	_, err := initWithDeps(context.Background(), initOptions{
		GlobalOptions: cli.GlobalOptions{ConfigPath: configPath, Server: "ftp://archive.test"},
	}, newDeps(fs, &fakePrompter{}, io.Discard))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "cmd.init.error.server"))

	_, err = initWithDeps(context.Background(), initOptions{
		GlobalOptions: cli.GlobalOptions{ConfigPath: configPath},
		SubmitTimeout: -time.Second,
	}, newDeps(fs, &fakePrompter{}, io.Discard))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "cmd.init.error.timeout"))

	exists, _ := afero.Exists(fs, configPath)
	assert.False(t, exists)
}

func TestInitExistingConfig(t *testing.T) {
	existing := func(t *testing.T) afero.Fs {
		t.Helper()
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, configPath, []byte(`{"server":"http://old.test"}`), 0o600))
		return fs
	}
	options := initOptions{GlobalOptions: cli.GlobalOptions{ConfigPath: configPath, Server: "http://new.test"}}

	t.Run("quiet refuses", func(t *testing.T) {
		fs := existing(t)
		quiet := options
		quiet.Quiet = true
		prompter := &fakePrompter{}

		_, err := initWithDeps(context.Background(), quiet, newDeps(fs, prompter, io.Discard))

		assert.ErrorIs(t, err, errConfigExists)
		assert.Empty(t, prompter.asked)
		assert.Equal(t, "http://old.test", readConfig(t, fs, configPath).Server)
	})

	t.Run("overwrite", func(t *testing.T) {
		fs := existing(t)
		prompter := &fakePrompter{overwrite: true}

		_, err := initWithDeps(context.Background(), options, newDeps(fs, prompter, io.Discard))

		require.NoError(t, err)
		assert.Equal(t, []string{"overwrite:" + configPath}, prompter.asked)
		assert.Equal(t, "http://new.test", readConfig(t, fs, configPath).Server)
	})

	t.Run("new path", func(t *testing.T) {
		fs := existing(t)
		prompter := &fakePrompter{newPath: "/other/.mcarch.json"}

		meta, err := initWithDeps(context.Background(), options, newDeps(fs, prompter, io.Discard))

		require.NoError(t, err)
		assert.Equal(t, "/other/.mcarch.json", meta.ConfigPath)
		assert.Equal(t, "http://old.test", readConfig(t, fs, configPath).Server)
		assert.Equal(t, "http://new.test", readConfig(t, fs, "/other/.mcarch.json").Server)
	})

	t.Run("prompt failure", func(t *testing.T) {
		fs := existing(t)
		prompter := &fakePrompter{err: io.EOF}

		_, err := initWithDeps(context.Background(), options, newDeps(fs, prompter, io.Discard))

		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestTerminalPrompter(t *testing.T) {
	t.Setenv("MCARCH_TEST", "true")

	for answer, expected := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false} {
		out := &bytes.Buffer{}
		prompter := terminalPrompter{in: strings.NewReader(answer), out: out}

		overwrite, err := prompter.ConfirmOverwrite(configPath)

		require.NoError(t, err)
		assert.Equal(t, expected, overwrite, answer)
		assert.Contains(t, out.String(), "cmd.init.prompt.overwrite")
	}

	path, err := terminalPrompter{in: strings.NewReader(" /x/.mcarch.json \n"), out: io.Discard}.RequestNewConfigPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, "/x/.mcarch.json", path)

	_, err = terminalPrompter{in: strings.NewReader("\n"), out: io.Discard}.RequestNewConfigPath(configPath)
	assert.Error(t, err)

	_, err = terminalPrompter{in: strings.NewReader(""), out: io.Discard}.ConfirmOverwrite(configPath)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRunInteractiveInitSkipsWhenEverythingIsProvided(t *testing.T) {
	options := initOptions{
		GlobalOptions: cli.GlobalOptions{Server: "http://archive.test"},
		Provided:      providedFlags{Server: true, Session: true, SubmitTimeout: true},
	}

	result, err := runInteractiveInit(context.Background(), &cobra.Command{}, options, newDeps(afero.NewMemMapFs(), &fakePrompter{}, io.Discard))

	require.NoError(t, err)
	assert.Equal(t, options, result)
}

func TestRunInteractiveInitOutcomes(t *testing.T) {
	options := initOptions{GlobalOptions: cli.GlobalOptions{ConfigPath: configPath}}

	t.Run("done", func(t *testing.T) {
		deps := newDeps(afero.NewMemMapFs(), &fakePrompter{}, io.Discard)
		deps.runTea = func(model tea.Model, _ ...tea.ProgramOption) (tea.Model, error) {
			wizard := model.(wizardModel)
			wizard.result.Server = "http://picked.test"
			wizard.state = wizardDone
			return wizard, nil
		}

		result, err := runInteractiveInit(context.Background(), &cobra.Command{}, options, deps)

		require.NoError(t, err)
		assert.Equal(t, "http://picked.test", result.Server)
	})

	t.Run("aborted", func(t *testing.T) {
		deps := newDeps(afero.NewMemMapFs(), &fakePrompter{}, io.Discard)
		deps.runTea = func(model tea.Model, _ ...tea.ProgramOption) (tea.Model, error) {
			wizard := model.(wizardModel)
			wizard.state = wizardAborted
			return wizard, nil
		}

		_, err := runInteractiveInit(context.Background(), &cobra.Command{}, options, deps)

		assert.ErrorIs(t, err, cli.ErrAborted)
	})

	t.Run("program error", func(t *testing.T) {
		deps := newDeps(afero.NewMemMapFs(), &fakePrompter{}, io.Discard)
		deps.runTea = func(tea.Model, ...tea.ProgramOption) (tea.Model, error) {
			return nil, errors.New("no tty")
		}

		_, err := runInteractiveInit(context.Background(), &cobra.Command{}, options, deps)

		assert.EqualError(t, err, "no tty")
	})
}

func TestReadOptionsTracksProvidedFlags(t *testing.T) {
	var captured initOptions
	cmd := &cobra.Command{
		Use: "init",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			captured, err = readOptions(cmd)
			return err
		},
	}
	cmd.Flags().Duration("submit-timeout", 0, "")
	root := &cobra.Command{Use: "mcarch"}
	cli.RegisterGlobalFlags(root)
	root.AddCommand(cmd)
	root.SetArgs([]string{"init", "--server", "http://archive.test", "--submit-timeout", "10s"})

	require.NoError(t, root.Execute())

	assert.Equal(t, "http://archive.test", captured.Server)
	assert.Equal(t, 10*time.Second, captured.SubmitTimeout)
	assert.Equal(t, providedFlags{Server: true, SubmitTimeout: true}, captured.Provided)
}
