// Package httpclient provides the rate limited, retrying HTTP client every
// archive request goes through.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/mcarch/mcarch-editor/internal/perf"
)

type Doer interface {
	Do(request *http.Request) (*http.Response, error)
}

type RetryConfig struct {
	MaxRetries int
	Interval   time.Duration
}

// RLHTTPClient waits on a rate limiter before each attempt and retries 5xx
// answers. Requests with a body are only retried when they can be replayed.
type RLHTTPClient struct {
	client      *http.Client
	Ratelimiter *rate.Limiter
	RetryConfig *RetryConfig
}

type Option func(*RLHTTPClient)

func WithRetryConfig(config *RetryConfig) Option {
	return func(client *RLHTTPClient) {
		client.RetryConfig = config
	}
}

// WithCookieJar makes the client send and keep credentials across requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(client *RLHTTPClient) {
		client.client.Jar = jar
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(client *RLHTTPClient) {
		client.client.Transport = otelhttp.NewTransport(transport)
	}
}

func NewRLClient(limiter *rate.Limiter, options ...Option) *RLHTTPClient {
	client := &RLHTTPClient{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Ratelimiter: limiter,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

func NoRetries() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 0,
		Interval:   0,
	}
}

func (client *RLHTTPClient) Do(request *http.Request) (*http.Response, error) {
	ctx, requestSpan := perf.StartSpan(request.Context(), "net.http.request",
		perf.WithAttributes(
			attribute.String("url", request.URL.String()),
			attribute.String("method", request.Method),
			attribute.String("host", request.URL.Host),
		),
	)
	defer requestSpan.End()

	retryConfig := client.retryConfig()
	if request.Body != nil && request.GetBody == nil {
		retryConfig.MaxRetries = 0
	}

	var response *http.Response
	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		attemptRequest, err := replayable(request, attempt)
		if err != nil {
			requestSpan.RecordError(err)
			return nil, err
		}

		var retry bool
		response, retry, err = client.doAttempt(ctx, attemptRequest, attempt, retryConfig)
		if err != nil {
			requestSpan.RecordError(err)
			return nil, err
		}
		if !retry {
			break
		}
		if err := sleep(ctx, retryConfig.Interval); err != nil {
			requestSpan.RecordError(err)
			return nil, WrapTimeoutError(err)
		}
	}

	requestSpan.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("status", response.StatusCode),
	)
	return response, nil
}

func (client *RLHTTPClient) retryConfig() RetryConfig {
	if client.RetryConfig != nil {
		return *client.RetryConfig
	}
	return RetryConfig{
		MaxRetries: 3,
		Interval:   1 * time.Second,
	}
}

func (client *RLHTTPClient) doAttempt(ctx context.Context, request *http.Request, attempt int, retryConfig RetryConfig) (*http.Response, bool, error) {
	attemptCtx, attemptSpan := perf.StartSpan(ctx, "net.http.request.attempt",
		perf.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.String("url", request.URL.String()),
		),
	)
	defer attemptSpan.End()

	if client.Ratelimiter != nil {
		// Blocks until the limiter admits the request or the context ends.
		if err := client.Ratelimiter.Wait(attemptCtx); err != nil {
			attemptSpan.RecordError(err)
			if IsTimeoutError(err) {
				return nil, false, WrapTimeoutError(err)
			}
			return nil, false, fmt.Errorf("rate limit burst exceeded: %w", err)
		}
	}

	response, err := client.client.Do(request.WithContext(attemptCtx))
	if err != nil {
		attemptSpan.RecordError(err)
		return nil, false, WrapTimeoutError(err)
	}

	if shouldRetry(response, attempt, retryConfig) {
		attemptSpan.SetAttributes(
			attribute.Bool("success", false),
			attribute.Int("status", response.StatusCode),
		)
		if drainErr := DrainAndClose(response.Body); drainErr != nil {
			attemptSpan.SetAttributes(attribute.String("cleanup_error", drainErr.Error()))
		}
		return nil, true, nil
	}

	attemptSpan.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("status", response.StatusCode),
	)
	return response, false, nil
}

func replayable(request *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 || request.GetBody == nil {
		return request, nil
	}
	body, err := request.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to replay request body: %w", err)
	}
	clone := request.Clone(request.Context())
	clone.Body = body
	return clone, nil
}

func shouldRetry(response *http.Response, attempt int, retryConfig RetryConfig) bool {
	return response.StatusCode >= 500 && response.StatusCode < 600 && attempt < retryConfig.MaxRetries
}

func sleep(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DrainAndClose empties and closes a response body so the connection can be reused.
func DrainAndClose(body io.ReadCloser) error {
	if body == nil {
		return nil
	}

	_, readErr := io.Copy(io.Discard, body)
	closeErr := body.Close()
	return errors.Join(readErr, closeErr)
}
