package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mcarch/mcarch-editor/cmd/mcarch"
	"github.com/mcarch/mcarch-editor/internal/constants"
	"github.com/mcarch/mcarch-editor/internal/lifecycle"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
)

const (
	perfLifecycleStartup  = "app.lifecycle.startup"
	perfLifecycleExecute  = "app.lifecycle.execute"
	perfLifecycleShutdown = "app.lifecycle.shutdown"
)

type shutdownTrigger string

const (
	shutdownTriggerExit   shutdownTrigger = "exit"
	shutdownTriggerSignal shutdownTrigger = "signal"
)

type runDeps struct {
	execute           func(context.Context) error
	telemetryInit     func()
	telemetryShutdown func(context.Context)
	register          func(lifecycle.Handler) lifecycle.HandlerID
	unregister        func(lifecycle.HandlerID)
	exportPerf        func(perfExportConfig, []perf.SpanSnapshot) error
	args              []string
	cwd               string
	stderr            io.Writer
}

type perfExportConfig struct {
	enabled bool
	debug   bool
	baseDir string
	outDir  string
}

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	os.Exit(runWithDeps(runDeps{
		execute:           mcarch.ExecuteContext,
		telemetryInit:     telemetry.Init,
		telemetryShutdown: telemetry.Shutdown,
		register:          lifecycle.Register,
		unregister:        lifecycle.Unregister,
		exportPerf:        exportPerfFile(afero.NewOsFs(), os.Stderr),
		args:              os.Args[1:],
		cwd:               cwd,
		stderr:            os.Stderr,
	}))
}

func runWithDeps(deps runDeps) int {
	ctx := context.Background()
	perfConfig := perfExportConfigFromArgs(deps.args, deps.cwd)

	_, startupSpan := perf.StartSpan(ctx, perfLifecycleStartup)
	deps.telemetryInit()

	var once sync.Once
	shutdown := func(trigger shutdownTrigger, sig os.Signal) {
		once.Do(func() {
			attributes := []attribute.KeyValue{attribute.String("trigger", string(trigger))}
			if sig != nil {
				attributes = append(attributes, attribute.String("signal", sig.String()))
			}
			shutdownCtx, span := perf.StartSpan(ctx, perfLifecycleShutdown, perf.WithAttributes(attributes...))
			deps.telemetryShutdown(shutdownCtx)
			span.End()

			if perfConfig.enabled && deps.exportPerf != nil {
				if err := deps.exportPerf(perfConfig, perf.GetSpans()); err != nil && deps.stderr != nil {
					_, _ = fmt.Fprintf(deps.stderr, "perf export failed: %v\n", err)
				}
			}
		})
	}

	handlerID := deps.register(func(sig os.Signal) {
		shutdown(shutdownTriggerSignal, sig)
	})
	startupSpan.End()

	executeCtx, executeSpan := perf.StartSpan(ctx, perfLifecycleExecute)
	err := deps.execute(executeCtx)
	executeSpan.SetAttributes(attribute.Bool("success", err == nil))
	executeSpan.End()

	shutdown(shutdownTriggerExit, nil)
	deps.unregister(handlerID)

	return exitCode(err)
}

// exitCode honours errors that carry their own code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return 1
}

func exportPerfFile(fs afero.Fs, stderr io.Writer) func(perfExportConfig, []perf.SpanSnapshot) error {
	return func(config perfExportConfig, spans []perf.SpanSnapshot) error {
		path, err := perf.ExportToFile(fs, config.outDir, spans)
		if err != nil {
			return err
		}
		if config.debug {
			_, _ = fmt.Fprintf(stderr, "perf data written to %s\n", path)
		}
		return nil
	}
}

// perfExportConfigFromArgs reads the perf flags before cobra parses them, so
// the export also happens when a command fails early. Output lands next to
// the config file unless --perf-out-dir says otherwise.
func perfExportConfigFromArgs(args []string, cwd string) perfExportConfig {
	config := perfExportConfig{}
	configPath := constants.ConfigFileName
	outDir := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		next := func() string {
			if hasValue {
				return value
			}
			if i+1 < len(args) {
				i++
				return args[i]
			}
			return ""
		}

		switch name {
		case "--perf":
			config.enabled = !hasValue || value != "false"
		case "--debug", "-d":
			config.debug = !hasValue || value != "false"
		case "--config", "-c":
			configPath = next()
		case "--perf-out-dir":
			outDir = next()
		}
	}

	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(cwd, filepath.FromSlash(configPath))
	}
	if absolute, err := filepath.Abs(configPath); err == nil {
		configPath = absolute
	}
	config.baseDir = filepath.Dir(configPath)

	switch {
	case outDir == "":
		config.outDir = config.baseDir
	case filepath.IsAbs(outDir):
		config.outDir = outDir
	default:
		config.outDir = filepath.Join(config.baseDir, filepath.FromSlash(outDir))
	}
	return config
}
