package init

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/config"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
	"github.com/mcarch/mcarch-editor/internal/tui"
)

type initOptions struct {
	cli.GlobalOptions
	SubmitTimeout time.Duration
	Provided      providedFlags
}

type providedFlags struct {
	Server        bool
	Session       bool
	SubmitTimeout bool
}

type initDeps struct {
	fs       afero.Fs
	prompter prompter
	logger   *logger.Logger
	useTUI   func(quiet bool, cmd *cobra.Command) bool
	runTea   func(model tea.Model, options ...tea.ProgramOption) (tea.Model, error)
}

type prompter interface {
	ConfirmOverwrite(configPath string) (bool, error)
	RequestNewConfigPath(configPath string) (string, error)
}

var errConfigExists = errors.New("configuration file already exists")

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: i18n.T("cmd.init.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			started := time.Now()
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.init")
			payload := telemetry.CommandTelemetry{Command: "init"}

			options, err := readOptions(cmd)
			if err != nil {
				return cli.Finish(span, payload, started, err)
			}
			deps := initDeps{
				fs: afero.NewOsFs(),
				prompter: terminalPrompter{
					in:  cmd.InOrStdin(),
					out: cmd.OutOrStdout(),
				},
				logger: options.Logger(cmd),
				useTUI: func(quiet bool, cmd *cobra.Command) bool {
					return tui.ShouldUseTUI(quiet, cmd.InOrStdin(), cmd.OutOrStdout())
				},
				runTea: func(model tea.Model, programOptions ...tea.ProgramOption) (tea.Model, error) {
					return tea.NewProgram(model, programOptions...).Run()
				},
			}

			payload.Interactive = deps.useTUI(options.Quiet, cmd)
			if payload.Interactive {
				options, err = runInteractiveInit(ctx, cmd, options, deps)
				if err != nil {
					return cli.Finish(span, payload, started, err)
				}
			}

			_, err = initWithDeps(ctx, options, deps)
			return cli.Finish(span, payload, started, err)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Duration("submit-timeout", 0, i18n.T("cmd.init.usage.submit_timeout"))

	return cmd
}

func readOptions(cmd *cobra.Command) (initOptions, error) {
	global, err := cli.ReadGlobalOptions(cmd)
	if err != nil {
		return initOptions{}, err
	}
	timeout, err := cmd.Flags().GetDuration("submit-timeout")
	if err != nil {
		return initOptions{}, err
	}
	return initOptions{
		GlobalOptions: global,
		SubmitTimeout: timeout,
		Provided: providedFlags{
			Server:        cmd.Flags().Changed("server"),
			Session:       cmd.Flags().Changed("session"),
			SubmitTimeout: cmd.Flags().Changed("submit-timeout"),
		},
	}, nil
}

type terminalPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p terminalPrompter) ConfirmOverwrite(configPath string) (bool, error) {
	_, _ = fmt.Fprint(p.out, i18n.T("cmd.init.prompt.overwrite", i18n.Tvars{Data: &i18n.TData{"path": configPath}})+" ")
	answer, err := readLine(p.in)
	if err != nil {
		return false, err
	}

	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

func (p terminalPrompter) RequestNewConfigPath(configPath string) (string, error) {
	_, _ = fmt.Fprint(p.out, i18n.T("cmd.init.prompt.new_path", i18n.Tvars{Data: &i18n.TData{"path": configPath}})+" ")
	answer, err := readLine(p.in)
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("config path cannot be empty")
	}
	return answer, nil
}

func readLine(reader io.Reader) (string, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return scanner.Text(), nil
}

func runInteractiveInit(ctx context.Context, cmd *cobra.Command, options initOptions, deps initDeps) (initOptions, error) {
	sessionCtx, sessionSpan := perf.StartSpan(ctx, "tui.init.session",
		perf.WithAttributes(
			attribute.Bool("provided_server", options.Provided.Server),
			attribute.Bool("provided_session", options.Provided.Session),
			attribute.Bool("provided_submit_timeout", options.Provided.SubmitTimeout),
		),
	)
	defer sessionSpan.End()

	model := newWizardModel(sessionCtx, sessionSpan, options)
	if model.state == wizardDone {
		return model.result, nil
	}

	result, err := deps.runTea(model, tui.ProgramOptions(cmd.InOrStdin(), cmd.OutOrStdout())...)
	if err != nil {
		return options, err
	}

	final, ok := result.(wizardModel)
	if !ok {
		return options, fmt.Errorf("interactive init failed")
	}
	if final.state != wizardDone {
		return options, cli.ErrAborted
	}
	return final.result, nil
}

// validateServerURL accepts absolute http and https URLs.
func validateServerURL(value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errors.New(i18n.T("cmd.init.error.server", i18n.Tvars{Data: &i18n.TData{"server": value}}))
	}
	return nil
}

func validateTimeout(value string) error {
	timeout, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || timeout <= 0 {
		return errors.New(i18n.T("cmd.init.error.timeout", i18n.Tvars{Data: &i18n.TData{"timeout": value}}))
	}
	return nil
}

func initWithDeps(ctx context.Context, options initOptions, deps initDeps) (config.Metadata, error) {
	if options.Server != "" {
		if err := validateServerURL(options.Server); err != nil {
			return config.Metadata{}, err
		}
	}
	if options.SubmitTimeout < 0 {
		return config.Metadata{}, validateTimeout(options.SubmitTimeout.String())
	}

	meta := options.Metadata()

	exists, _ := afero.Exists(deps.fs, meta.ConfigPath)
	if exists {
		if options.Quiet {
			return config.Metadata{}, fmt.Errorf("%w: %s", errConfigExists, meta.ConfigPath)
		}

		overwrite, err := deps.prompter.ConfirmOverwrite(meta.ConfigPath)
		if err != nil {
			return config.Metadata{}, err
		}
		if !overwrite {
			newPath, err := deps.prompter.RequestNewConfigPath(meta.ConfigPath)
			if err != nil {
				return config.Metadata{}, err
			}
			meta = config.NewMetadata(newPath)
		}
	}

	if err := deps.fs.MkdirAll(meta.Dir(), 0o755); err != nil {
		return config.Metadata{}, err
	}

	draft := config.Config{Server: options.Server, Session: options.Session}
	if options.SubmitTimeout > 0 {
		draft.SubmitTimeout = options.SubmitTimeout.String()
	}
	written, err := config.InitConfig(ctx, deps.fs, meta, draft)
	if err != nil {
		return config.Metadata{}, err
	}

	deps.logger.Log(i18n.T("cmd.init.success", i18n.Tvars{Data: &i18n.TData{
		"path":   meta.ConfigPath,
		"server": written.Server,
	}}), false)
	return meta, nil
}
