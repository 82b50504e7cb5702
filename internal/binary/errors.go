package binary

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers release index failures: transport errors and non-2xx
	// responses.
	ErrNetwork = errors.New("release index request failed")
	// ErrNoLatestRelease is returned when no release is flagged isLatest.
	ErrNoLatestRelease = errors.New("no latest release found")
	// ErrNoAssetForPlatform is returned when the latest release has no asset
	// for the host's tag.
	ErrNoAssetForPlatform = errors.New("no asset for platform")
	// ErrDownload is returned when the artifact endpoint rejects a request.
	ErrDownload = errors.New("artifact download failed")
	// ErrVerification is returned when a downloaded artifact fails its
	// checksum or signature check.
	ErrVerification = errors.New("artifact verification failed")
)

// NetworkError carries the URL and, for HTTP failures, the status code.
// StatusCode is zero when the request never got a response.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch releases: %d", e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch releases: %v", e.Err)
}

func (e *NetworkError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNetwork, e.Err}
	}
	return []error{ErrNetwork}
}

// NoAssetError names the tag that matched nothing.
type NoAssetError struct {
	Tag     string
	Version string
}

func (e *NoAssetError) Error() string {
	return fmt.Sprintf("no asset for platform %s in release %s", e.Tag, e.Version)
}

func (e *NoAssetError) Unwrap() error {
	return ErrNoAssetForPlatform
}

// DownloadError carries the status code returned by the artifact endpoint,
// or the transport error when the request never got a response.
type DownloadError struct {
	AssetID    string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to download artifact %s: %d", e.AssetID, e.StatusCode)
	}
	return fmt.Sprintf("failed to download artifact %s: %v", e.AssetID, e.Err)
}

// Unwrap matches ErrDownload, and also ErrNetwork and the cause for
// transport failures.
func (e *DownloadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDownload, ErrNetwork, e.Err}
	}
	return []error{ErrDownload}
}
