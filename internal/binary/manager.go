package binary

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/duelsplus/launcher/internal/event"
	"github.com/duelsplus/launcher/internal/logging"
	"github.com/duelsplus/launcher/internal/platform"
)

// Manager ensures the latest proxy build is present in the install dir.
type Manager struct {
	installDir string
	resolver   *Resolver
	cache      *Cache
	downloader *Downloader
	verifier   *Verifier
	logger     logging.Logger
}

// Config holds configuration for the binary manager
type Config struct {
	// BaseURL is the release API root; /releases is appended.
	BaseURL string
	// InstallDir is where artifacts are cached, one file per asset name.
	InstallDir string
	// PlatformInfo selects the release tag.
	PlatformInfo *platform.Info
	// MinArtifactSize overrides DefaultMinArtifactSize when positive.
	MinArtifactSize int64
	// KeyringPath enables OpenPGP signature checks when set.
	KeyringPath string
	// HTTPClient is shared by the resolver and downloader; nil uses a default.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// NewManager creates a new binary manager
func NewManager(config Config) (*Manager, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}

	if config.InstallDir == "" {
		return nil, fmt.Errorf("InstallDir is required")
	}

	if config.PlatformInfo == nil {
		return nil, fmt.Errorf("PlatformInfo is required")
	}

	client := config.HTTPClient
	if client == nil {
		client = newHTTPClient()
	}
	logger := logging.OrNop(config.Logger)

	downloader := NewDownloader(client, config.BaseURL, logger)
	downloader.goos = config.PlatformInfo.OS

	return &Manager{
		installDir: config.InstallDir,
		resolver:   NewResolver(client, config.BaseURL, config.PlatformInfo.OS),
		cache:      NewCache(config.MinArtifactSize, logger),
		downloader: downloader,
		verifier:   NewVerifier(config.KeyringPath),
		logger:     logger,
	}, nil
}

// InstallDir returns the artifact directory.
func (m *Manager) InstallDir() string {
	return m.installDir
}

// EnsureLatest returns the local path of the latest build, downloading it
// first if the cached copy is missing or looks corrupt. It is also the
// manual "check for updates" operation.
func (m *Manager) EnsureLatest(ctx context.Context, emit event.Handler) (string, error) {
	result, err := m.Ensure(ctx, emit)
	if err != nil {
		return "", err
	}
	return result.Path, nil
}

// Ensure is EnsureLatest with a full report of what happened.
func (m *Manager) Ensure(ctx context.Context, emit event.Handler) (*Result, error) {
	start := m.downloader.clock.Now()

	// Best effort; a real problem surfaces when the download creates its file.
	if err := os.MkdirAll(m.installDir, 0755); err != nil {
		m.logger.Warn("cannot create install dir", "path", m.installDir, "error", err)
	}
	m.logger.Info("proxy directory", "path", m.installDir)

	release, asset, err := m.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve release: %w", err)
	}

	cached := m.cache.EvaluateAsset(m.installDir, asset)
	result := &Result{
		Version:   release.Version,
		AssetID:   asset.ID,
		AssetName: asset.Name,
		Path:      cached.Path,
	}

	if !cached.NeedsDownload {
		m.logger.Debug("cached artifact is current", "path", cached.Path, "version", release.Version)
		result.Duration = m.downloader.clock.Now().Sub(start)
		return result, nil
	}

	if cached.Reason == ReasonPossiblyCorrupt || cached.Reason == ReasonChecksumMismatch {
		emit.Emit(event.Log{Stream: event.Launcher, Line: "Cached download may be corrupt. Redownloading..."})
	}
	emit.Emit(event.Status{Message: "Downloading proxy", Version: release.Version})

	onProgress := func(p event.Progress) { emit.Emit(p) }
	if err := m.downloader.Download(ctx, asset.ID, cached.Path, onProgress); err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	result.Downloaded = true

	verified, err := m.verify(ctx, asset, cached.Path)
	if err != nil {
		// Leave nothing behind that a later launch could pick up.
		os.Remove(cached.Path)
		return nil, fmt.Errorf("verify %s: %w", asset.Name, err)
	}
	result.Verified = verified
	result.Duration = m.downloader.clock.Now().Sub(start)

	m.logger.Info("proxy updated", "version", release.Version, "path", cached.Path, "duration", result.Duration)
	return result, nil
}

// verify runs whichever checks the asset supports.
func (m *Manager) verify(ctx context.Context, asset *Asset, path string) ([]VerificationMethod, error) {
	var methods []VerificationMethod

	if asset.SHA256 != "" {
		if _, err := m.verifier.VerifySHA256(path, asset.SHA256); err != nil {
			return nil, err
		}
		methods = append(methods, VerificationSHA256)
	}

	if asset.SignatureID != "" && m.verifier.CanVerifySignature() {
		sigPath := path + ".sig"
		if err := m.downloader.fetch(ctx, asset.SignatureID, sigPath, nil); err != nil {
			return nil, fmt.Errorf("download signature: %w", err)
		}
		defer os.Remove(sigPath)

		if _, err := m.verifier.VerifySignature(path, sigPath); err != nil {
			return nil, err
		}
		methods = append(methods, VerificationGPG)
	}

	if len(methods) == 0 {
		methods = append(methods, VerificationNone)
	}
	return methods, nil
}
