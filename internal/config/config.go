// Package config reads and writes the client configuration file.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/mcarch/mcarch-editor/internal/environment"
	"github.com/mcarch/mcarch-editor/internal/perf"
)

// Config is the content of .mcarch.json. Empty values fall back to the
// environment and then to built in defaults.
type Config struct {
	Server           string `json:"server"`
	Session          string `json:"session,omitempty"`
	SubmitTimeout    string `json:"submit_timeout,omitempty"`
	DisableTelemetry bool   `json:"disable_telemetry,omitempty"`
}

// Settings are the effective values a command runs with.
type Settings struct {
	ServerURL        string
	Session          string
	SubmitTimeout    time.Duration
	DisableTelemetry bool
}

func ReadConfig(ctx context.Context, fs afero.Fs, meta Metadata) (Config, error) {
	_, span := perf.StartSpan(ctx, "io.config.read")
	defer span.End()

	exists, err := afero.Exists(fs, meta.ConfigPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read configuration file: %w", err)
	}
	if !exists {
		return Config{}, &FileNotFoundError{Path: meta.ConfigPath}
	}

	data, err := afero.ReadFile(fs, meta.ConfigPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, &FileInvalidError{Err: err}
	}
	if config.SubmitTimeout != "" {
		if _, err := parseTimeout(config.SubmitTimeout); err != nil {
			return Config{}, &FileInvalidError{Err: err}
		}
	}
	return config, nil
}

// ReadConfigIfExists treats a missing file as an empty configuration.
func ReadConfigIfExists(ctx context.Context, fs afero.Fs, meta Metadata) (Config, error) {
	config, err := ReadConfig(ctx, fs, meta)
	var notFound *FileNotFoundError
	if errors.As(err, &notFound) {
		return Config{}, nil
	}
	return config, err
}

func WriteConfig(ctx context.Context, fs afero.Fs, meta Metadata, config Config) error {
	_, span := perf.StartSpan(ctx, "io.config.write")
	defer span.End()

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	// The file may hold a session cookie.
	return writeFileAtomic(fs, meta.ConfigPath, data, 0o600)
}

// InitConfig writes a fresh configuration. An empty server or submit timeout
// in draft is filled from the environment and the defaults.
func InitConfig(ctx context.Context, fs afero.Fs, meta Metadata, draft Config) (Config, error) {
	ctx, span := perf.StartSpan(ctx, "io.config.init")
	defer span.End()

	config := draft
	if config.Server == "" {
		config.Server = environment.ServerURL()
	}
	if config.SubmitTimeout == "" {
		config.SubmitTimeout = environment.DefaultSubmitTimeout.String()
	}
	if _, err := parseTimeout(config.SubmitTimeout); err != nil {
		return Config{}, &FileInvalidError{Err: err}
	}
	if err := WriteConfig(ctx, fs, meta, config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Settings resolves the configuration against the environment.
func (config Config) Settings() Settings {
	settings := Settings{
		ServerURL:        environment.ServerURL(),
		Session:          environment.SessionCookie(),
		SubmitTimeout:    environment.SubmitTimeout(),
		DisableTelemetry: config.DisableTelemetry,
	}
	if config.Server != "" {
		settings.ServerURL = config.Server
	}
	if config.Session != "" {
		settings.Session = config.Session
	}
	if timeout, err := parseTimeout(config.SubmitTimeout); err == nil {
		settings.SubmitTimeout = timeout
	}
	return settings
}

func parseTimeout(value string) (time.Duration, error) {
	timeout, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("submit_timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("submit_timeout must be positive, got %s", value)
	}
	return timeout, nil
}

// Overrides are command line values. Zero values leave the setting alone.
type Overrides struct {
	Server        string
	Session       string
	SubmitTimeout time.Duration
}

// LoadSettings resolves flags over the config file over the environment.
func LoadSettings(ctx context.Context, fs afero.Fs, meta Metadata, overrides Overrides) (Settings, error) {
	config, err := ReadConfigIfExists(ctx, fs, meta)
	if err != nil {
		return Settings{}, err
	}
	settings := config.Settings()
	if overrides.Server != "" {
		settings.ServerURL = overrides.Server
	}
	if overrides.Session != "" {
		settings.Session = overrides.Session
	}
	if overrides.SubmitTimeout > 0 {
		settings.SubmitTimeout = overrides.SubmitTimeout
	}
	return settings, nil
}
