package binary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/duelsplus/launcher/internal/platform"
)

// Resolver picks the release asset to run on this host.
type Resolver struct {
	client    *http.Client
	baseURL   string
	goos      string
	userAgent string
}

// NewResolver creates a resolver for the release index under baseURL.
// goos selects the platform tag; pass runtime.GOOS outside of tests.
func NewResolver(client *http.Client, baseURL, goos string) *Resolver {
	if client == nil {
		client = newHTTPClient()
	}
	return &Resolver{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		goos:      goos,
		userAgent: DefaultUserAgent,
	}
}

// ReleasesURL returns the release index endpoint.
func (r *Resolver) ReleasesURL() string {
	return r.baseURL + "/releases"
}

// FetchReleases downloads and decodes the release index.
func (r *Resolver) FetchReleases(ctx context.Context) ([]Release, error) {
	url := r.ReleasesURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("decode release index: %w", err)}
	}

	return releases, nil
}

// Resolve fetches the index and returns the latest release together with the
// asset for this host. Nothing is cached between calls.
func (r *Resolver) Resolve(ctx context.Context) (*Release, *Asset, error) {
	releases, err := r.FetchReleases(ctx)
	if err != nil {
		return nil, nil, err
	}

	latest, err := SelectLatest(releases)
	if err != nil {
		return nil, nil, err
	}

	tag, err := platform.ReleaseTag(r.goos)
	if err != nil {
		return nil, nil, err
	}

	asset, err := SelectAsset(latest, tag)
	if err != nil {
		return nil, nil, err
	}

	return latest, asset, nil
}

// SelectLatest returns the first release flagged isLatest.
func SelectLatest(releases []Release) (*Release, error) {
	for i := range releases {
		if releases[i].IsLatest {
			return &releases[i], nil
		}
	}
	return nil, ErrNoLatestRelease
}

// SelectAsset returns the first asset of release whose name contains tag.
func SelectAsset(release *Release, tag string) (*Asset, error) {
	for i := range release.Assets {
		if strings.Contains(release.Assets[i].Name, tag) {
			return &release.Assets[i], nil
		}
	}
	return nil, &NoAssetError{Tag: tag, Version: release.Version}
}
