package binary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSized creates a sparse file of the given size.
func writeSized(t *testing.T, path string, size int64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		t.Fatalf("truncate %s: %v", path, err)
	}
}

func TestCacheEvaluate(t *testing.T) {
	const mb = 1024 * 1024

	tests := []struct {
		name       string
		size       int64 // -1 means no file
		wantNeeds  bool
		wantReason CacheReason
	}{
		{"missing", -1, true, ReasonMissing},
		{"empty", 0, true, ReasonPossiblyCorrupt},
		{"truncated_10mb", 10 * mb, true, ReasonPossiblyCorrupt},
		{"just_below_threshold", 50*mb - 1, true, ReasonPossiblyCorrupt},
		{"exactly_threshold", 50 * mb, false, ReasonValid},
		{"80mb", 80 * mb, false, ReasonValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.size >= 0 {
				writeSized(t, filepath.Join(dir, "proxy-linux-x64"), tt.size)
			}

			got := NewCache(0, nil).Evaluate(dir, "proxy-linux-x64")

			if got.Path != filepath.Join(dir, "proxy-linux-x64") {
				t.Errorf("Path = %s", got.Path)
			}
			if got.NeedsDownload != tt.wantNeeds {
				t.Errorf("NeedsDownload = %v, want %v", got.NeedsDownload, tt.wantNeeds)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s", got.Reason, tt.wantReason)
			}
			if tt.size >= 0 && got.Size != tt.size {
				t.Errorf("Size = %d, want %d", got.Size, tt.size)
			}
		})
	}
}

func TestCacheEvaluate_DoesNotDeleteStaleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy-linux-x64")
	writeSized(t, path, 1024)

	got := NewCache(0, nil).Evaluate(dir, "proxy-linux-x64")
	if !got.NeedsDownload {
		t.Fatal("expected download for undersized file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stale file removed: %v", err)
	}
}

func TestCacheEvaluate_DirectoryIsNotAnArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "proxy-linux-x64"), 0755); err != nil {
		t.Fatal(err)
	}

	got := NewCache(1, nil).Evaluate(dir, "proxy-linux-x64")
	if !got.NeedsDownload {
		t.Error("directory in place of the artifact should force a download")
	}
}

func TestCacheEvaluateAsset_Checksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy-linux-x64")
	if err := os.WriteFile(path, []byte("proxy build"), 0755); err != nil {
		t.Fatal(err)
	}
	sum, err := calculateSHA256(path)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewCache(1, nil)

	tests := []struct {
		name       string
		sha        string
		wantNeeds  bool
		wantReason CacheReason
	}{
		{"no_checksum_published", "", false, ReasonValid},
		{"matching_checksum", sum, false, ReasonValid},
		{"matching_uppercase", strings.ToUpper(sum), false, ReasonValid},
		{"mismatch", "deadbeef", true, ReasonChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cache.EvaluateAsset(dir, &Asset{ID: "a1", Name: "proxy-linux-x64", SHA256: tt.sha})
			if got.NeedsDownload != tt.wantNeeds || got.Reason != tt.wantReason {
				t.Errorf("got (%v, %s), want (%v, %s)", got.NeedsDownload, got.Reason, tt.wantNeeds, tt.wantReason)
			}
		})
	}
}
