// Package cli holds the plumbing every subcommand shares: the persistent
// flags, settings resolution and the span/telemetry bookkeeping that closes a
// command run.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mcarch/mcarch-editor/internal/config"
	"github.com/mcarch/mcarch-editor/internal/constants"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
)

// ErrAborted ends a command the user cancelled. It is not reported as a
// failure.
var ErrAborted = errors.New("aborted by user")

type GlobalOptions struct {
	ConfigPath string
	Quiet      bool
	Debug      bool
	Server     string
	Session    string
}

// RegisterGlobalFlags adds the persistent flags ReadGlobalOptions reads.
func RegisterGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", constants.ConfigFileName, i18n.T("cmd.root.flag.config"))
	flags.BoolP("quiet", "q", false, i18n.T("cmd.root.flag.quiet"))
	flags.BoolP("debug", "d", false, i18n.T("cmd.root.flag.debug"))
	flags.String("server", "", i18n.T("cmd.root.flag.server"))
	flags.String("session", "", i18n.T("cmd.root.flag.session"))
	flags.Bool("perf", false, i18n.T("cmd.root.flag.perf"))
	flags.String("perf-out-dir", "", i18n.T("cmd.root.flag.perf_out_dir"))
}

// ReadGlobalOptions collects the root command's persistent flags.
func ReadGlobalOptions(cmd *cobra.Command) (GlobalOptions, error) {
	var options GlobalOptions
	var err error

	if options.ConfigPath, err = cmd.Flags().GetString("config"); err != nil {
		return options, err
	}
	if options.Quiet, err = cmd.Flags().GetBool("quiet"); err != nil {
		return options, err
	}
	if options.Debug, err = cmd.Flags().GetBool("debug"); err != nil {
		return options, err
	}
	if options.Server, err = cmd.Flags().GetString("server"); err != nil {
		return options, err
	}
	if options.Session, err = cmd.Flags().GetString("session"); err != nil {
		return options, err
	}
	return options, nil
}

func (options GlobalOptions) Logger(cmd *cobra.Command) *logger.Logger {
	return logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), options.Quiet, options.Debug)
}

func (options GlobalOptions) Metadata() config.Metadata {
	return config.NewMetadata(options.ConfigPath)
}

func (options GlobalOptions) Settings(ctx context.Context, fs afero.Fs, submitTimeout time.Duration) (config.Settings, error) {
	return config.LoadSettings(ctx, fs, options.Metadata(), config.Overrides{
		Server:        options.Server,
		Session:       options.Session,
		SubmitTimeout: submitTimeout,
	})
}

// Finish closes the command span and records the run. ErrAborted counts as a
// success and is swallowed.
func Finish(span *perf.Span, payload telemetry.CommandTelemetry, started time.Time, err error) error {
	if errors.Is(err, ErrAborted) {
		err = nil
	}

	span.SetAttributes(attribute.Bool("success", err == nil))
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	payload.Success = err == nil
	payload.Error = err
	payload.ExitCode = 0
	if err != nil {
		payload.ExitCode = 1
	}
	payload.Duration = time.Since(started)
	telemetry.RecordCommand(payload)

	return err
}
