// Package minecraft reads Mojang's version manifest, an extra source of game
// version suggestions next to the archive's own list.
package minecraft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	pkgErrors "github.com/pkg/errors"

	"github.com/mcarch/mcarch-editor/internal/httpclient"
)

var ErrManifestNotFound = errors.New("minecraft version manifest not found")

type manifestEntry struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type versionManifest struct {
	Versions []manifestEntry `json:"versions"`
}

var versionManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

var newRequestWithContext = http.NewRequestWithContext

// The manifest is fetched at most once per process unless the cache is cleared.
var (
	manifestMu     sync.Mutex
	cachedManifest *versionManifest
)

func ClearManifestCache() {
	manifestMu.Lock()
	defer manifestMu.Unlock()
	cachedManifest = nil
}

func fetchManifest(ctx context.Context, client httpclient.Doer) (manifest *versionManifest, err error) {
	manifestMu.Lock()
	defer manifestMu.Unlock()

	if cachedManifest != nil {
		return cachedManifest, nil
	}

	request, err := newRequestWithContext(ctx, http.MethodGet, versionManifestURL, nil)
	if err != nil {
		return nil, pkgErrors.Wrap(err, "failed to build manifest request")
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, httpclient.WrapTimeoutError(err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil {
			manifest = nil
			err = errors.Join(err, closeErr)
		}
		if err == nil {
			cachedManifest = manifest
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, pkgErrors.Wrapf(ErrManifestNotFound, "unexpected status code: %d", response.StatusCode)
	}

	var decoded versionManifest
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, pkgErrors.Wrap(err, "failed to decode version manifest")
	}
	return &decoded, nil
}

// GetReleaseVersions lists release ids newest first, skipping snapshots.
func GetReleaseVersions(ctx context.Context, client httpclient.Doer) ([]string, error) {
	manifest, err := fetchManifest(ctx, client)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(manifest.Versions))
	for _, entry := range manifest.Versions {
		if entry.Type == "release" {
			versions = append(versions, entry.ID)
		}
	}
	return versions, nil
}

// UnknownVersions returns, in order and without repeats, the candidates the
// manifest does not list. Snapshots and old versions count as known.
func UnknownVersions(ctx context.Context, client httpclient.Doer, candidates []string) ([]string, error) {
	manifest, err := fetchManifest(ctx, client)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(manifest.Versions))
	for _, entry := range manifest.Versions {
		known[entry.ID] = true
	}

	unknown := []string{}
	for _, candidate := range candidates {
		if known[candidate] {
			continue
		}
		known[candidate] = true
		unknown = append(unknown, candidate)
	}
	return unknown, nil
}
