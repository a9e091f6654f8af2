// Package telemetry sends one anonymous usage event per session. Setting
// MCARCH_DISABLE_TELEMETRY or disable_telemetry in the config turns it off.
package telemetry

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"

	"github.com/mcarch/mcarch-editor/internal/constants"
	"github.com/mcarch/mcarch-editor/internal/environment"
	"github.com/mcarch/mcarch-editor/internal/perf"
)

const (
	disableEnvVar = "MCARCH_DISABLE_TELEMETRY"
	endpoint      = "https://eu.i.posthog.com"
	closeTimeout  = 2 * time.Second
)

type Client interface {
	io.Closer
	Enqueue(posthog.Message) error
}

type CommandTelemetry struct {
	Command     string
	Success     bool
	Error       error
	ExitCode    int
	Duration    time.Duration
	Interactive bool
	Extra       map[string]interface{}
}

var (
	machineIDProvider = func() (string, error) {
		return machineid.ProtectedID(constants.AppName)
	}
	clientBuilder = func(apiKey, endpoint string) (Client, error) {
		built, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
		if err != nil {
			return nil, err
		}
		return built, nil
	}

	mu        sync.Mutex
	client    Client
	machineID string
	commands  []CommandTelemetry
)

func Disabled() bool {
	value, present := os.LookupEnv(disableEnvVar)
	return present && strings.TrimSpace(value) != ""
}

// Init builds the client unless telemetry is disabled. Failures leave it off.
func Init() {
	if Disabled() {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		return
	}

	id, err := machineIDProvider()
	if err != nil || id == "" {
		return
	}
	built, err := clientBuilder(environment.PosthogAPIKey(), endpoint)
	if err != nil {
		return
	}
	client = built
	machineID = id
}

// Capture enqueues a single event right away.
func Capture(event string, properties map[string]interface{}) {
	if strings.TrimSpace(event) == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	capture(event, properties)
}

func capture(event string, properties map[string]interface{}) {
	if client == nil {
		return
	}
	props := posthog.NewProperties()
	for key, value := range properties {
		props.Set(key, value)
	}
	props.Set("version", environment.AppVersion())
	_ = client.Enqueue(posthog.Capture{
		Event:      event,
		DistinctId: machineID,
		Properties: props,
	})
}

// RecordCommand keeps the outcome of a command for the session event sent by Shutdown.
func RecordCommand(command CommandTelemetry) {
	mu.Lock()
	defer mu.Unlock()
	commands = append(commands, command)
}

// Shutdown sends the session event and closes the client, waiting at most
// until ctx ends.
func Shutdown(ctx context.Context) {
	mu.Lock()
	active := client
	if active == nil {
		mu.Unlock()
		return
	}
	if len(commands) > 0 {
		capture(sessionName(commands), map[string]interface{}{
			"commands":   summaries(commands),
			"span_count": len(perf.GetSpans()),
		})
	}
	client = nil
	commands = nil
	mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = active.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func sessionName(recorded []CommandTelemetry) string {
	if len(recorded) == 1 && strings.TrimSpace(recorded[0].Command) != "" {
		return recorded[0].Command
	}
	if len(recorded) > 1 {
		return "session"
	}
	return "unknown"
}

func summaries(recorded []CommandTelemetry) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(recorded))
	for _, command := range recorded {
		summary := map[string]interface{}{
			"name":        command.Command,
			"success":     command.Success,
			"exit_code":   command.ExitCode,
			"duration_ms": command.Duration.Milliseconds(),
			"interactive": command.Interactive,
		}
		if command.Error != nil {
			summary["error"] = command.Error.Error()
		}
		if command.Extra != nil {
			summary["extra"] = command.Extra
		}
		out = append(out, summary)
	}
	return out
}

// Reset drops all state (tests only).
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	client = nil
	machineID = ""
	commands = nil
}

// RecordedCommands returns the commands recorded so far.
func RecordedCommands() []CommandTelemetry {
	mu.Lock()
	defer mu.Unlock()
	out := make([]CommandTelemetry, len(commands))
	copy(out, commands)
	return out
}
