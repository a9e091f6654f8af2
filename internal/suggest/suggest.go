// Package suggest fetches the tag suggestion lists offered by the author and
// game version inputs.
package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/mcarch/mcarch-editor/internal/httpclient"
	"github.com/mcarch/mcarch-editor/internal/models"
	"github.com/mcarch/mcarch-editor/internal/perf"
)

const (
	AuthorsPath  = "authors.json"
	GameVsnsPath = "gamevsns.json"
)

// Source is an archive client: a Doer that also knows where the server lives.
type Source interface {
	httpclient.Doer
	URL(path string) string
}

type Client struct {
	source Source
}

func NewClient(source Source) *Client {
	return &Client{source: source}
}

type Lists struct {
	Authors  []string
	GameVsns []string
}

func (client *Client) Authors(ctx context.Context) ([]string, error) {
	return client.fetch(ctx, AuthorsPath)
}

func (client *Client) GameVersions(ctx context.Context) ([]string, error) {
	return client.fetch(ctx, GameVsnsPath)
}

// FetchAll loads both lists concurrently. Either failure fails the whole call.
func (client *Client) FetchAll(ctx context.Context) (Lists, error) {
	var lists Lists
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		authors, err := client.Authors(groupCtx)
		lists.Authors = authors
		return err
	})
	group.Go(func() error {
		gameVsns, err := client.GameVersions(groupCtx)
		lists.GameVsns = gameVsns
		return err
	})

	if err := group.Wait(); err != nil {
		return Lists{}, err
	}
	return lists, nil
}

func (client *Client) fetch(ctx context.Context, path string) ([]string, error) {
	ctx, cancel := httpclient.WithSuggestionTimeout(ctx)
	defer cancel()

	url := client.source.URL(path)
	ctx, span := perf.StartSpan(ctx, "suggest.fetch", perf.WithAttributes(attribute.String("url", url)))
	defer span.End()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", path)
	}

	response, err := client.source.Do(request)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(httpclient.WrapTimeoutError(err), "failed to fetch %s", path)
	}
	defer func() {
		_ = httpclient.DrainAndClose(response.Body)
	}()

	if response.StatusCode != http.StatusOK {
		err := errors.Errorf("unexpected status code fetching %s: %d", path, response.StatusCode)
		span.RecordError(err)
		return nil, err
	}

	var entries []models.Suggestion
	if err := json.NewDecoder(response.Body).Decode(&entries); err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	span.SetAttributes(attribute.Int("count", len(entries)))
	return models.SuggestionNames(entries), nil
}

// Merge joins lists in order and drops repeats.
func Merge(lists ...[]string) []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, list := range lists {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Filter returns up to limit candidates containing query, prefix matches first.
// A limit of 0 or less means no limit.
func Filter(candidates []string, query string, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var prefixed, contained []string
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		switch {
		case strings.HasPrefix(lower, query):
			prefixed = append(prefixed, candidate)
		case strings.Contains(lower, query):
			contained = append(contained, candidate)
		}
	}

	out := append(prefixed, contained...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
