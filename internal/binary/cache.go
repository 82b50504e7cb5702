package binary

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/duelsplus/launcher/internal/logging"
)

// DefaultMinArtifactSize is the smallest file accepted as a complete proxy
// build. Anything smaller is assumed to be a truncated download.
const DefaultMinArtifactSize int64 = 50 * 1024 * 1024

// Cache decides whether a previously downloaded artifact can be reused.
// It only reads the filesystem; stale files are left for the Downloader to
// overwrite.
type Cache struct {
	minSize int64
	logger  logging.Logger
}

// NewCache creates a cache check. A non-positive minSize selects
// DefaultMinArtifactSize.
func NewCache(minSize int64, logger logging.Logger) *Cache {
	if minSize <= 0 {
		minSize = DefaultMinArtifactSize
	}
	return &Cache{minSize: minSize, logger: logging.OrNop(logger)}
}

// MinSize returns the size threshold in bytes.
func (c *Cache) MinSize() int64 {
	return c.minSize
}

// Evaluate inspects installDir/assetName.
func (c *Cache) Evaluate(installDir, assetName string) CachedArtifact {
	path := filepath.Join(installDir, assetName)
	result := CachedArtifact{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		result.NeedsDownload = true
		if os.IsNotExist(err) {
			result.Reason = ReasonMissing
			return result
		}
		c.logger.Warn("cannot stat cached artifact", "path", path, "error", err)
		result.Reason = ReasonStatFailed
		return result
	}

	result.Exists = true
	result.Size = info.Size()

	if !info.Mode().IsRegular() || info.Size() < c.minSize {
		c.logger.Warn("cached download may be corrupt, redownloading",
			"path", path, "size", info.Size(), "min_size", c.minSize)
		result.NeedsDownload = true
		result.Reason = ReasonPossiblyCorrupt
		return result
	}

	result.Reason = ReasonValid
	return result
}

// EvaluateAsset is Evaluate plus a checksum comparison when the asset
// publishes a sha256. Hashing failures force a download.
func (c *Cache) EvaluateAsset(installDir string, asset *Asset) CachedArtifact {
	result := c.Evaluate(installDir, asset.Name)
	if result.NeedsDownload || asset.SHA256 == "" {
		return result
	}

	actual, err := calculateSHA256(result.Path)
	if err != nil || !strings.EqualFold(actual, asset.SHA256) {
		c.logger.Warn("cached artifact checksum mismatch, redownloading",
			"path", result.Path, "expected", asset.SHA256, "actual", actual)
		result.NeedsDownload = true
		result.Reason = ReasonChecksumMismatch
	}

	return result
}
