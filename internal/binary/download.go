package binary

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/duelsplus/launcher/internal/event"
	"github.com/duelsplus/launcher/internal/logging"
)

const (
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "duelsplus-launcher/1.0"
	// chunkSize bounds memory use per download regardless of artifact size.
	chunkSize = 32 * 1024
	// minElapsed keeps the first speed samples finite.
	minElapsed = 10 * time.Millisecond
)

// ProgressFunc is called after every chunk written to disk. It runs inside
// the read loop; slow callbacks throttle the download.
type ProgressFunc func(event.Progress)

// newHTTPClient returns the client shared by the resolver and downloader.
// There is no overall timeout because artifact bodies are large; requests are
// bounded by their context and by the header timeout.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   15 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// Downloader streams artifacts from the release API to disk.
type Downloader struct {
	client    *http.Client
	baseURL   string
	userAgent string
	goos      string
	clock     Clock
	logger    logging.Logger
}

// NewDownloader creates a downloader for artifacts under baseURL.
func NewDownloader(client *http.Client, baseURL string, logger logging.Logger) *Downloader {
	if client == nil {
		client = newHTTPClient()
	}
	return &Downloader{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		goos:      runtime.GOOS,
		clock:     RealClock{},
		logger:    logging.OrNop(logger),
	}
}

// ArtifactURL returns the download endpoint for assetID.
func (d *Downloader) ArtifactURL(assetID string) string {
	return d.baseURL + "/releases/artifact?assetId=" + url.QueryEscape(assetID)
}

// Download streams asset assetID to destPath, calling onProgress after every
// chunk, and marks the file executable on POSIX hosts. An existing file at
// destPath is replaced only once the new one is complete.
func (d *Downloader) Download(ctx context.Context, assetID, destPath string, onProgress ProgressFunc) error {
	if err := d.fetch(ctx, assetID, destPath, onProgress); err != nil {
		return err
	}

	// Best effort: launching the proxy surfaces a real permission problem.
	if d.goos != "windows" {
		if err := SetExecutable(destPath); err != nil {
			d.logger.Debug("chmod failed", "path", destPath, "error", err)
		}
	}

	return nil
}

// fetch performs a single GET and streams the body to destPath.
func (d *Downloader) fetch(ctx context.Context, assetID, destPath string, onProgress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.ArtifactURL(assetID), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return &DownloadError{AssetID: assetID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DownloadError{AssetID: assetID, StatusCode: resp.StatusCode}
	}

	// Already existing is fine; any other failure shows up on create below.
	_ = os.MkdirAll(filepath.Dir(destPath), 0755)

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	written, err := d.copyWithProgress(tmpFile, resp.Body, assetID, resp.ContentLength, onProgress)
	if err != nil {
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	d.logger.Debug("artifact downloaded", "asset_id", assetID, "path", destPath, "bytes", written)
	return nil
}

// copyWithProgress copies src to dst through one reused buffer. total is -1
// when unknown.
func (d *Downloader) copyWithProgress(dst io.Writer, src io.Reader, assetID string, total int64, onProgress ProgressFunc) (int64, error) {
	buf := make([]byte, chunkSize)
	start := d.clock.Now()
	var downloaded int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return downloaded, fmt.Errorf("write artifact: %w", err)
			}
			downloaded += int64(n)

			if onProgress != nil {
				elapsed := d.clock.Now().Sub(start)
				if elapsed < minElapsed {
					elapsed = minElapsed
				}
				onProgress(event.Progress{
					AssetID:    assetID,
					Downloaded: downloaded,
					Total:      total,
					Speed:      float64(downloaded) / elapsed.Seconds(),
				})
			}
		}

		if readErr == io.EOF {
			return downloaded, nil
		}
		if readErr != nil {
			return downloaded, fmt.Errorf("read response body: %w", readErr)
		}
	}
}

// SetExecutable sets executable permissions on a file
func SetExecutable(path string) error {
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
