// Package archive talks to the mod archive server on behalf of the editor.
package archive

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/mcarch/mcarch-editor/internal/environment"
	"github.com/mcarch/mcarch-editor/internal/httpclient"
	"github.com/mcarch/mcarch-editor/internal/perf"
)

const SessionCookieName = "session"

type Client struct {
	client  httpclient.Doer
	baseURL *url.URL
}

func NewClient(doer httpclient.Doer, serverURL string) (*Client, error) {
	base, err := parseServerURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Client{client: doer, baseURL: base}, nil
}

func (archiveClient *Client) Do(request *http.Request) (*http.Response, error) {
	ctx, span := perf.StartSpan(request.Context(), "api.archive.http.request", perf.WithAttributes(attribute.String("url", request.URL.String())))
	defer span.End()

	request.Header.Set("User-Agent", UserAgent())
	if request.Header.Get("Accept") == "" {
		request.Header.Set("Accept", "application/json")
	}

	return archiveClient.client.Do(request.WithContext(ctx))
}

func (archiveClient *Client) BaseURL() string {
	return archiveClient.baseURL.String()
}

// URL resolves path against the server, e.g. URL("authors.json").
func (archiveClient *Client) URL(path string) string {
	return archiveClient.baseURL.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")}).String()
}

func UserAgent() string {
	return fmt.Sprintf("github_com/mcarch/mcarch-editor/%s", environment.AppVersion())
}

// NewSessionJar returns a cookie jar that sends the session cookie to the
// archive server only.
func NewSessionJar(serverURL string, session string) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if session == "" {
		return jar, nil
	}
	base, err := parseServerURL(serverURL)
	if err != nil {
		return nil, err
	}
	jar.SetCookies(base, []*http.Cookie{{
		Name:  SessionCookieName,
		Value: session,
		Path:  "/",
	}})
	return jar, nil
}

// NewHTTPClient is the transport stack of every archive request: rate limited,
// carrying the session credentials and never retrying.
func NewHTTPClient(serverURL string, session string) (*Client, error) {
	jar, err := NewSessionJar(serverURL, session)
	if err != nil {
		return nil, err
	}
	limited := httpclient.NewRLClient(
		rate.NewLimiter(rate.Limit(5), 5),
		httpclient.WithRetryConfig(httpclient.NoRetries()),
		httpclient.WithCookieJar(jar),
	)
	return NewClient(limited, serverURL)
}

func parseServerURL(serverURL string) (*url.URL, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must include scheme and host", serverURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base, nil
}
