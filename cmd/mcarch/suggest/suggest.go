package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/mcarch/mcarch-editor/internal/archive"
	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/httpclient"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/minecraft"
	"github.com/mcarch/mcarch-editor/internal/perf"
	suggestions "github.com/mcarch/mcarch-editor/internal/suggest"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
)

const (
	listAuthors  = "authors"
	listGameVsns = "gamevsns"
)

type suggestOptions struct {
	cli.GlobalOptions
	List   string
	Query  string
	Limit  int
	Mojang bool
}

type suggestDeps struct {
	fs              afero.Fs
	logger          *logger.Logger
	newClient       func(serverURL string, session string) (*archive.Client, error)
	minecraftClient httpclient.Doer
}

type suggestRunner func(context.Context, suggestOptions, suggestDeps) (telemetry.CommandTelemetry, error)

func Command() *cobra.Command {
	return commandWithRunner(runSuggest)
}

func commandWithRunner(runner suggestRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "suggest authors|gamevsns [query]",
		Short:     i18n.T("cmd.suggest.short"),
		Args:      cobra.MatchAll(cobra.RangeArgs(1, 2), validList),
		ValidArgs: []string{listAuthors, listGameVsns},
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.suggest",
				perf.WithAttributes(attribute.String("list", args[0])),
			)

			global, err := cli.ReadGlobalOptions(cmd)
			if err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "suggest"}, started, err)
			}
			options := suggestOptions{GlobalOptions: global, List: args[0]}
			if len(args) > 1 {
				options.Query = args[1]
			}
			if options.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "suggest"}, started, err)
			}
			if options.Mojang, err = cmd.Flags().GetBool("mojang"); err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "suggest"}, started, err)
			}

			payload, err := runner(ctx, options, suggestDeps{
				fs:              afero.NewOsFs(),
				logger:          global.Logger(cmd),
				newClient:       archive.NewHTTPClient,
				minecraftClient: httpclient.NewRLClient(rate.NewLimiter(rate.Inf, 0)),
			})
			payload.Command = "suggest"
			return cli.Finish(span, payload, started, err)
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntP("limit", "n", 10, i18n.T("cmd.suggest.flag.limit"))
	cmd.Flags().Bool("mojang", false, i18n.T("cmd.suggest.flag.mojang"))

	return cmd
}

func validList(_ *cobra.Command, args []string) error {
	switch args[0] {
	case listAuthors, listGameVsns:
		return nil
	}
	return errors.New(i18n.T("cmd.suggest.error.unknown_list", i18n.Tvars{Data: &i18n.TData{"list": args[0]}}))
}

func runSuggest(ctx context.Context, options suggestOptions, deps suggestDeps) (telemetry.CommandTelemetry, error) {
	payload := telemetry.CommandTelemetry{
		Command: "suggest",
		Extra:   map[string]interface{}{"list": options.List, "mojang": options.Mojang},
	}

	settings, err := options.Settings(ctx, deps.fs, 0)
	if err != nil {
		return payload, err
	}
	client, err := deps.newClient(settings.ServerURL, settings.Session)
	if err != nil {
		return payload, err
	}

	candidates, err := fetchList(ctx, suggestions.NewClient(client), options.List)
	if err != nil {
		deps.logger.Error(i18n.T("cmd.suggest.error.fetch", i18n.Tvars{Data: &i18n.TData{"error": err.Error()}}))
		return payload, err
	}

	if options.Mojang && options.List == listGameVsns {
		releases, err := minecraft.GetReleaseVersions(ctx, deps.minecraftClient)
		if err != nil {
			deps.logger.Debug(fmt.Sprintf("minecraft versions unavailable: %v", err))
		} else {
			candidates = suggestions.Merge(candidates, releases)
		}
	}

	matches := candidates
	if options.Query != "" {
		matches = suggestions.Filter(candidates, options.Query, options.Limit)
	} else if options.Limit > 0 && len(matches) > options.Limit {
		matches = matches[:options.Limit]
	}
	payload.Extra["matches"] = len(matches)

	if len(matches) == 0 {
		deps.logger.Log(i18n.T("cmd.suggest.none", i18n.Tvars{Data: &i18n.TData{"query": options.Query}}), false)
		return payload, nil
	}
	for _, match := range matches {
		deps.logger.Log(match, true)
	}
	return payload, nil
}

func fetchList(ctx context.Context, client *suggestions.Client, list string) ([]string, error) {
	if list == listAuthors {
		return client.Authors(ctx)
	}
	return client.GameVersions(ctx)
}
