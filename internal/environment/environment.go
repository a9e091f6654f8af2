// Package environment reads runtime environment configuration.
package environment

import (
	"os"
	"time"
)

const (
	DefaultServerURL     = "https://mcarchive.net"
	DefaultSubmitTimeout = 30 * time.Second
)

// Release builds set these with -ldflags -X.
var (
	posthogAPIKeyDefault = "REPL_POSTHOG_API_KEY" // #nosec G101 -- build-time placeholder replaced in release builds.
	appVersion           = "REPL_VERSION"
	helpURL              = "REPL_HELP_URL"
)

// ServerURL is the archive base URL used when neither a flag nor the config
// file names one.
func ServerURL() string {
	if value, present := os.LookupEnv("MCARCH_SERVER"); present && value != "" {
		return value
	}
	return DefaultServerURL
}

// SessionCookie is the archive session used as request credentials.
func SessionCookie() string {
	return os.Getenv("MCARCH_SESSION")
}

func SubmitTimeout() time.Duration {
	value, present := os.LookupEnv("MCARCH_SUBMIT_TIMEOUT")
	if !present {
		return DefaultSubmitTimeout
	}
	timeout, err := time.ParseDuration(value)
	if err != nil || timeout <= 0 {
		return DefaultSubmitTimeout
	}
	return timeout
}

func PosthogAPIKey() string {
	if key, present := os.LookupEnv("POSTHOG_API_KEY"); present {
		return key
	}
	return posthogAPIKeyDefault
}

func AppVersion() string {
	return appVersion
}

func HelpURL() string {
	return helpURL
}
