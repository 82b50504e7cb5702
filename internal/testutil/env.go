// Package testutil provides utilities for testing the launcher in isolation.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// SetupTestEnv points LAUNCHER_HOME at a fresh temp directory and clears the
// other overrides, so tests never touch the user's real install, token or
// logs. It returns the app dir. Cleanup is handled by t.TempDir.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	appDir := filepath.Join(t.TempDir(), "duelsplus")
	if err := os.MkdirAll(appDir, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", appDir, err)
	}

	t.Setenv("LAUNCHER_HOME", appDir)
	t.Setenv("LAUNCHER_API_URL", "")
	t.Setenv("LAUNCHER_LOG_LEVEL", "")

	return appDir
}

// ReleaseServer is a fake release API with one latest release carrying an
// asset for every supported platform tag. All assets serve the same bytes.
type ReleaseServer struct {
	*httptest.Server
	Version  string
	Artifact []byte

	IndexHits    atomic.Int32
	ArtifactHits atomic.Int32
}

// NewReleaseServer starts a ReleaseServer; it is closed on test cleanup.
func NewReleaseServer(t *testing.T, version string, artifact []byte) *ReleaseServer {
	t.Helper()

	rs := &ReleaseServer{Version: version, Artifact: artifact}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/releases":
			rs.IndexHits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `[{"id":"r1","version":%q,"isLatest":true,"assets":[
				{"id":"a-win","name":"proxy-win-x64.exe"},
				{"id":"a-linux","name":"proxy-linux-x64"},
				{"id":"a-macos","name":"proxy-macos-x64"}
			]}]`, rs.Version)
		case "/releases/artifact":
			rs.ArtifactHits.Add(1)
			w.Header().Set("Content-Length", fmt.Sprint(len(rs.Artifact)))
			w.Write(rs.Artifact)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}
