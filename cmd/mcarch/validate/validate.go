package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/httpclient"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/minecraft"
	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/pagedata"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/schema"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
)

type validateOptions struct {
	cli.GlobalOptions
	Path       string
	Normalized bool
	Mojang     bool
}

type validateDeps struct {
	fs              afero.Fs
	logger          *logger.Logger
	minecraftClient httpclient.Doer
}

// invalidDocumentError is returned after the field errors have been printed.
type invalidDocumentError struct {
	count int
}

func (e *invalidDocumentError) Error() string {
	return fmt.Sprintf("%d invalid fields", e.count)
}

func (e *invalidDocumentError) ExitCode() int {
	return 1
}

type validateRunner func(context.Context, *cobra.Command, validateOptions, validateDeps) (telemetry.CommandTelemetry, error)

func Command() *cobra.Command {
	return commandWithRunner(runValidate)
}

func commandWithRunner(runner validateRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: i18n.T("cmd.validate.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.validate")

			global, err := cli.ReadGlobalOptions(cmd)
			if err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "validate"}, started, err)
			}
			options := validateOptions{GlobalOptions: global, Path: args[0]}
			if options.Normalized, err = cmd.Flags().GetBool("normalized"); err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "validate"}, started, err)
			}
			if options.Mojang, err = cmd.Flags().GetBool("mojang"); err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "validate"}, started, err)
			}

			payload, err := runner(ctx, cmd, options, validateDeps{
				fs:              afero.NewOsFs(),
				logger:          global.Logger(cmd),
				minecraftClient: httpclient.NewRLClient(rate.NewLimiter(rate.Inf, 0)),
			})
			var invalid *invalidDocumentError
			if errors.As(err, &invalid) {
				cmd.SilenceErrors = true
			}
			payload.Command = "validate"
			return cli.Finish(span, payload, started, err)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("normalized", false, i18n.T("cmd.validate.flag.normalized"))
	cmd.Flags().Bool("mojang", false, i18n.T("cmd.validate.flag.mojang"))

	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, options validateOptions, deps validateDeps) (telemetry.CommandTelemetry, error) {
	payload := telemetry.CommandTelemetry{Command: "validate"}

	_, span := perf.StartSpan(ctx, "app.command.validate.stage.check")
	defer span.End()

	page, err := pagedata.Load(deps.fs, options.Path, cmd.InOrStdin())
	if err != nil {
		span.RecordError(err)
		return payload, err
	}

	record, fieldErrs := schema.Validate(page.Mod)
	span.SetAttributes(attribute.Int("errors", len(fieldErrs)))
	payload.Extra = map[string]interface{}{"errors": len(fieldErrs)}

	if len(fieldErrs) > 0 {
		deps.logger.Error(i18n.T("cmd.validate.invalid", i18n.Tvars{
			Count: len(fieldErrs),
			Data:  &i18n.TData{"path": options.Path},
		}))
		for _, path := range fieldErrs.Paths() {
			deps.logger.Error(fmt.Sprintf("  %s: %s", path, fieldErrs[path]))
		}
		return payload, &invalidDocumentError{count: len(fieldErrs)}
	}

	if options.Mojang {
		unknown := warnUnknownGameVersions(ctx, record, deps)
		payload.Extra["unknown_game_versions"] = unknown
	}

	if options.Normalized {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return payload, err
		}
		deps.logger.Log(string(data), true)
		return payload, nil
	}

	deps.logger.Log(i18n.T("cmd.validate.valid", i18n.Tvars{
		Data: &i18n.TData{"name": record.Name, "versions": len(record.ModVsns)},
	}), false)
	return payload, nil
}

// warnUnknownGameVersions reports game version tags Mojang has never released.
// They do not make the document invalid. Without the manifest nothing is
// reported.
func warnUnknownGameVersions(ctx context.Context, record models.ModRecord, deps validateDeps) int {
	ctx, span := perf.StartSpan(ctx, "app.command.validate.stage.game_versions")
	defer span.End()

	count := 0
	for index, version := range record.ModVsns {
		unknown, err := minecraft.UnknownVersions(ctx, deps.minecraftClient, version.GameVsns)
		if err != nil {
			span.RecordError(err)
			deps.logger.Debug(fmt.Sprintf("minecraft versions unavailable: %v", err))
			return count
		}
		for _, gameVersion := range unknown {
			count++
			deps.logger.Error(i18n.T("cmd.validate.unknown_game_version", i18n.Tvars{
				Data: &i18n.TData{"path": schema.PathOf("mod_vsns", index, "game_vsns"), "version": gameVersion},
			}))
		}
	}
	span.SetAttributes(attribute.Int("unknown", count))
	return count
}
