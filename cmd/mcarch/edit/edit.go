package edit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/mcarch/mcarch-editor/internal/archive"
	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/config"
	"github.com/mcarch/mcarch-editor/internal/editor"
	"github.com/mcarch/mcarch-editor/internal/httpclient"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/minecraft"
	"github.com/mcarch/mcarch-editor/internal/pagedata"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/schema"
	"github.com/mcarch/mcarch-editor/internal/submit"
	"github.com/mcarch/mcarch-editor/internal/suggest"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
	"github.com/mcarch/mcarch-editor/internal/tui"
)

type editOptions struct {
	cli.GlobalOptions
	DataPath string
	PageURL  string
	Timeout  time.Duration
	Mojang   bool
}

type editDeps struct {
	fs              afero.Fs
	logger          *logger.Logger
	newClient       func(serverURL string, session string) (*archive.Client, error)
	minecraftClient httpclient.Doer
	useTUI          func(quiet bool, cmd *cobra.Command) bool
	runTea          func(model tea.Model, options ...tea.ProgramOption) (tea.Model, error)
}

type editRunner func(context.Context, *perf.Span, *cobra.Command, editOptions, editDeps) (telemetry.CommandTelemetry, error)

func Command() *cobra.Command {
	return commandWithRunner(runEdit)
}

func commandWithRunner(runner editRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit --page <url>",
		Short: i18n.T("cmd.edit.short"),
		Long:  i18n.T("cmd.edit.long"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			started := time.Now()
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.edit")

			options, err := readOptions(cmd)
			if err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "edit"}, started, err)
			}
			span.SetAttributes(
				attribute.String("page", options.PageURL),
				attribute.Bool("mojang", options.Mojang),
			)

			payload, err := runner(ctx, span, cmd, options, editDeps{
				fs:              afero.NewOsFs(),
				logger:          options.Logger(cmd),
				newClient:       archive.NewHTTPClient,
				minecraftClient: httpclient.NewRLClient(rate.NewLimiter(rate.Inf, 0)),
				useTUI: func(quiet bool, cmd *cobra.Command) bool {
					return tui.ShouldUseTUI(quiet, cmd.InOrStdin(), cmd.OutOrStdout())
				},
				runTea: func(model tea.Model, programOptions ...tea.ProgramOption) (tea.Model, error) {
					return tea.NewProgram(model, programOptions...).Run()
				},
			})
			var alreadyReported *reportedError
			if errors.As(err, &alreadyReported) {
				cmd.SilenceErrors = true
			}
			payload.Command = "edit"
			return cli.Finish(span, payload, started, err)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringP("data", "f", "", i18n.T("cmd.edit.flag.data"))
	cmd.Flags().StringP("page", "p", "", i18n.T("cmd.edit.flag.page"))
	cmd.Flags().Duration("timeout", 0, i18n.T("cmd.edit.flag.timeout"))
	cmd.Flags().Bool("mojang", false, i18n.T("cmd.edit.flag.mojang"))
	_ = cmd.MarkFlagRequired("page")

	return cmd
}

func readOptions(cmd *cobra.Command) (editOptions, error) {
	global, err := cli.ReadGlobalOptions(cmd)
	if err != nil {
		return editOptions{}, err
	}
	options := editOptions{GlobalOptions: global}
	if options.DataPath, err = cmd.Flags().GetString("data"); err != nil {
		return options, err
	}
	if options.PageURL, err = cmd.Flags().GetString("page"); err != nil {
		return options, err
	}
	if options.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return options, err
	}
	if options.Mojang, err = cmd.Flags().GetBool("mojang"); err != nil {
		return options, err
	}
	return options, nil
}

func runEdit(ctx context.Context, commandSpan *perf.Span, cmd *cobra.Command, options editOptions, deps editDeps) (telemetry.CommandTelemetry, error) {
	payload := telemetry.CommandTelemetry{Command: "edit"}

	prepareCtx, prepareSpan := perf.StartSpan(ctx, "app.command.edit.stage.prepare")
	settings, err := options.Settings(prepareCtx, deps.fs, options.Timeout)
	if err != nil {
		prepareSpan.End()
		return payload, err
	}
	page, err := loadPage(deps.fs, options.DataPath, cmd)
	prepareSpan.SetAttributes(attribute.Bool("success", err == nil))
	prepareSpan.End()
	if err != nil {
		deps.logger.Error(describeLoadError(err))
		return payload, reported(err)
	}

	client, err := deps.newClient(settings.ServerURL, settings.Session)
	if err != nil {
		return payload, err
	}
	pageURL, err := resolvePageURL(client, options.PageURL)
	if err != nil {
		return payload, err
	}
	deps.logger.Debug(fmt.Sprintf("editing %q against %s (timeout %s)", page.Mod.Name, pageURL, settings.SubmitTimeout))

	ed := editor.New(page.Mod)
	interactive := options.DataPath != pagedata.StdinPath && deps.useTUI(options.Quiet, cmd)
	payload.Interactive = interactive

	if !interactive {
		return payload, submitOnce(ctx, ed, client, pageURL, settings, deps.logger)
	}

	suggestions := collectSuggestions(ctx, page, client, deps, options.Mojang)

	relay := &noticeRelay{}
	submitter, err := submit.New(client, pageURL,
		submit.WithTimeout(settings.SubmitTimeout),
		submit.WithNotifier(relay),
		submit.WithNavigator(relay),
	)
	if err != nil {
		return payload, err
	}

	tuiCtx, tuiSpan := perf.StartSpan(ctx, "tui.edit.session",
		perf.WithAttributes(attribute.Int("versions", ed.VersionCount())),
	)
	model := newEditTUIModel(tuiCtx, tuiSpan, ed, submitter, relay, suggestions)
	model.width = tui.TerminalWidth(cmd.OutOrStdout(), model.width)
	result, err := deps.runTea(model, tui.ProgramOptions(cmd.InOrStdin(), cmd.OutOrStdout())...)
	tuiSpan.End()
	if err != nil {
		return payload, err
	}

	final, ok := result.(editTUIModel)
	if !ok {
		return payload, errors.New("unexpected editor state")
	}
	if final.state != editTUIStateDone {
		if commandSpan != nil {
			commandSpan.AddEvent("app.command.edit.outcome.aborted")
		}
		return payload, cli.ErrAborted
	}

	deps.logger.Log(i18n.T("submit.saved"), true)
	deps.logger.Log(i18n.T("cmd.edit.redirect", i18n.Tvars{Data: &i18n.TData{"url": relay.navigatedTo()}}), true)
	return payload, nil
}

// submitOnce is the non interactive flow: the loaded document is validated and
// sent as is.
func submitOnce(ctx context.Context, ed *editor.Editor, client httpclient.Doer, pageURL string, settings config.Settings, log *logger.Logger) error {
	submitter, err := submit.New(client, pageURL,
		submit.WithTimeout(settings.SubmitTimeout),
		submit.WithNotifier(submit.NotifierFunc(func(notification submit.Notification) {
			if notification.Kind == submit.NotifyError {
				log.Error(notification.Message)
				return
			}
			log.Log(notification.Message, true)
		})),
		submit.WithNavigator(submit.NavigatorFunc(func(target string) {
			log.Log(i18n.T("cmd.edit.redirect", i18n.Tvars{Data: &i18n.TData{"url": target}}), true)
		})),
	)
	if err != nil {
		return err
	}

	attempt, err := submitter.Begin(ed)
	if err != nil {
		var fieldErrs schema.FieldErrors
		if errors.As(err, &fieldErrs) {
			reportFieldErrors(log, fieldErrs)
			return reported(err)
		}
		return err
	}
	// failed sends have already gone through the notifier
	_, err = attempt.Send(ctx)
	return reported(err)
}

func loadPage(fs afero.Fs, path string, cmd *cobra.Command) (pagedata.Page, error) {
	if path == "" {
		return pagedata.Blank(), nil
	}
	return pagedata.Load(fs, path, cmd.InOrStdin())
}

// resolvePageURL accepts an absolute URL or a path on the archive server.
func resolvePageURL(client *archive.Client, page string) (string, error) {
	parsed, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", page, err)
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}
	return client.URL(parsed.Path), nil
}

func collectSuggestions(ctx context.Context, page pagedata.Page, source suggest.Source, deps editDeps, mojang bool) suggestionLists {
	lists := suggestionLists{authors: page.Authors, gameVsns: page.GameVsns}

	fetched, err := suggest.NewClient(source).FetchAll(ctx)
	if err != nil {
		deps.logger.Debug(fmt.Sprintf("suggestions unavailable: %v", err))
	} else {
		lists.authors = suggest.Merge(lists.authors, fetched.Authors)
		lists.gameVsns = suggest.Merge(lists.gameVsns, fetched.GameVsns)
	}

	if mojang {
		releases, err := minecraft.GetReleaseVersions(ctx, deps.minecraftClient)
		if err != nil {
			deps.logger.Debug(fmt.Sprintf("minecraft versions unavailable: %v", err))
		} else {
			lists.gameVsns = suggest.Merge(lists.gameVsns, releases)
		}
	}
	return lists
}
