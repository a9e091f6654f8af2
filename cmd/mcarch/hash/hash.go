package hash

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/filehash"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
)

type hashOptions struct {
	cli.GlobalOptions
	Paths       []string
	Fingerprint bool
	JSON        bool
}

type hashDeps struct {
	fs     afero.Fs
	logger *logger.Logger
}

type hashRunner func(context.Context, hashOptions, hashDeps) (telemetry.CommandTelemetry, error)

func Command() *cobra.Command {
	return commandWithRunner(runHash)
}

func commandWithRunner(runner hashRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <file>...",
		Short: i18n.T("cmd.hash.short"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.hash",
				perf.WithAttributes(attribute.Int("files", len(args))),
			)

			global, err := cli.ReadGlobalOptions(cmd)
			if err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "hash"}, started, err)
			}
			options := hashOptions{GlobalOptions: global, Paths: args}
			if options.Fingerprint, err = cmd.Flags().GetBool("fingerprint"); err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "hash"}, started, err)
			}
			if options.JSON, err = cmd.Flags().GetBool("json"); err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "hash"}, started, err)
			}

			payload, err := runner(ctx, options, hashDeps{
				fs:     afero.NewOsFs(),
				logger: global.Logger(cmd),
			})
			payload.Command = "hash"
			return cli.Finish(span, payload, started, err)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("fingerprint", false, i18n.T("cmd.hash.flag.fingerprint"))
	cmd.Flags().Bool("json", false, i18n.T("cmd.hash.flag.json"))

	return cmd
}

func runHash(ctx context.Context, options hashOptions, deps hashDeps) (telemetry.CommandTelemetry, error) {
	payload := telemetry.CommandTelemetry{
		Command: "hash",
		Extra:   map[string]interface{}{"files": len(options.Paths), "fingerprint": options.Fingerprint},
	}

	digests, err := digestAll(ctx, filehash.NewHasher(deps.fs), options.Paths, options.Fingerprint)
	if err != nil {
		deps.logger.Error(i18n.T("cmd.hash.error", i18n.Tvars{Data: &i18n.TData{"error": err.Error()}}))
		return payload, err
	}

	if options.JSON {
		data, err := json.MarshalIndent(digests, "", "  ")
		if err != nil {
			return payload, err
		}
		deps.logger.Log(string(data), true)
		return payload, nil
	}

	for _, digest := range digests {
		deps.logger.Log(formatDigest(digest, options.Fingerprint), true)
	}
	return payload, nil
}

// digestAll hashes the files in parallel and returns the digests in argument
// order.
func digestAll(ctx context.Context, hasher *filehash.Hasher, paths []string, withFingerprint bool) ([]filehash.Digest, error) {
	ctx, span := perf.StartSpan(ctx, "app.command.hash.stage.digest")
	defer span.End()

	out := make([]filehash.Digest, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))

	for i := range paths {
		group.Go(func() error {
			digest, err := hasher.Digest(groupCtx, paths[i], withFingerprint)
			if err != nil {
				return err
			}
			out[i] = digest
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// formatDigest follows the sha256sum layout so the output can be checked with
// sha256sum -c.
func formatDigest(digest filehash.Digest, withFingerprint bool) string {
	if withFingerprint {
		return fmt.Sprintf("%s  %s  %d", digest.SHA256, digest.Path, digest.Fingerprint)
	}
	return fmt.Sprintf("%s  %s", digest.SHA256, digest.Path)
}
