package environment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServerURL(t *testing.T) {
	t.Run("defaults to the public archive", func(t *testing.T) {
		t.Setenv("MCARCH_SERVER", "")
		assert.Equal(t, DefaultServerURL, ServerURL())
	})

	t.Run("reads MCARCH_SERVER", func(t *testing.T) {
		t.Setenv("MCARCH_SERVER", "http://localhost:5000")
		assert.Equal(t, "http://localhost:5000", ServerURL())
	})
}

func TestSessionCookie(t *testing.T) {
	t.Setenv("MCARCH_SESSION", "abc123")
	assert.Equal(t, "abc123", SessionCookie())
}

func TestSubmitTimeout(t *testing.T) {
	t.Run("parses durations", func(t *testing.T) {
		t.Setenv("MCARCH_SUBMIT_TIMEOUT", "5s")
		assert.Equal(t, 5*time.Second, SubmitTimeout())
	})

	t.Run("falls back on garbage", func(t *testing.T) {
		t.Setenv("MCARCH_SUBMIT_TIMEOUT", "soon")
		assert.Equal(t, DefaultSubmitTimeout, SubmitTimeout())
	})

	t.Run("falls back on non-positive values", func(t *testing.T) {
		t.Setenv("MCARCH_SUBMIT_TIMEOUT", "-1s")
		assert.Equal(t, DefaultSubmitTimeout, SubmitTimeout())
	})
}

func TestPosthogAPIKey(t *testing.T) {
	t.Setenv("POSTHOG_API_KEY", "phc_test")
	assert.Equal(t, "phc_test", PosthogAPIKey())
}

func TestBuildPlaceholders(t *testing.T) {
	assert.Equal(t, "REPL_VERSION", AppVersion())
	assert.Equal(t, "REPL_HELP_URL", HelpURL())
}
