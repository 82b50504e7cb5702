package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/duelsplus/launcher/internal/platform"
)

func linuxDetector() platform.Detector {
	return platform.StaticDetector{Info: &platform.Info{OS: "linux", Arch: "amd64", Platform: "ubuntu"}}
}

func TestParser_ParseString_Minimal(t *testing.T) {
	luaCode := `
		launcher = {
			proxy = { port = 25570 },
		}
	`

	base := Default("/home/u/.duelsplus")
	cfg, err := NewParser(nil).ParseString(context.Background(), luaCode, base)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if cfg.Proxy.Port != 25570 {
		t.Errorf("Port = %d, want 25570", cfg.Proxy.Port)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %s, want default", cfg.API.BaseURL)
	}
	if cfg.InstallDir != base.InstallDir {
		t.Errorf("InstallDir = %s, want %s", cfg.InstallDir, base.InstallDir)
	}
	if base.Proxy.Port != DefaultPort {
		t.Error("base config was modified")
	}
}

func TestParser_ParseString_Full(t *testing.T) {
	luaCode := `
		launcher = {
			api = { base_url = "https://staging.example.com/api" },
			install_dir = "/opt/duels/proxy",
			proxy = {
				port = 30000,
				ready_markers = { "READY" },
				suppress_markers = { "[internal]" },
				log_file = "/var/log/duels.log",
			},
			cache = { min_size_mb = 20 },
			verify = { keyring = "/etc/duels/keys.asc" },
			auth = { verify_url = "https://example.com/verify", token_file = "/etc/duels/token" },
			log = { level = "debug" },
		}
	`

	cfg, err := NewParser(nil).ParseString(context.Background(), luaCode, Default("/home/u/.duelsplus"))
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"base_url", cfg.API.BaseURL, "https://staging.example.com/api"},
		{"install_dir", cfg.InstallDir, "/opt/duels/proxy"},
		{"port", cfg.Proxy.Port, 30000},
		{"ready_markers", strings.Join(cfg.Proxy.ReadyMarkers, ","), "READY"},
		{"suppress_markers", strings.Join(cfg.Proxy.SuppressMarkers, ","), "[internal]"},
		{"log_file", cfg.Proxy.LogFile, "/var/log/duels.log"},
		{"min_size_mb", cfg.Cache.MinSizeMB, 20},
		{"min_artifact_size", cfg.MinArtifactSize(), int64(20 * 1024 * 1024)},
		{"keyring", cfg.Verify.Keyring, "/etc/duels/keys.asc"},
		{"verify_url", cfg.Auth.VerifyURL, "https://example.com/verify"},
		{"token_file", cfg.Auth.TokenFile, "/etc/duels/token"},
		{"level", cfg.Log.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParser_ParseString_PlatformConditionals(t *testing.T) {
	luaCode := `
		launcher = {
			install_dir = platform.is_windows and "C:/duels" or "/srv/duels",
			proxy = {
				ready_markers = {
					"Proxy running on",
					platform.is_macos and "macos-only" or nil,
					platform.is_linux and "linux-only" or nil,
				},
			},
		}
	`

	cfg, err := NewParser(linuxDetector()).ParseString(context.Background(), luaCode, Default("/home/u/.duelsplus"))
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if cfg.InstallDir != "/srv/duels" {
		t.Errorf("InstallDir = %s, want /srv/duels", cfg.InstallDir)
	}
	want := []string{"Proxy running on", "linux-only"}
	if strings.Join(cfg.Proxy.ReadyMarkers, "|") != strings.Join(want, "|") {
		t.Errorf("ReadyMarkers = %v, want %v", cfg.Proxy.ReadyMarkers, want)
	}
}

func TestParser_ParseString_HomeExpansion(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("USERPROFILE", "/home/tester")

	cfg, err := NewParser(nil).ParseString(context.Background(),
		`launcher = { install_dir = "~/proxy", verify = { keyring = "~/keys.asc" } }`,
		Default("/x"))
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if !strings.HasSuffix(cfg.InstallDir, "proxy") || strings.HasPrefix(cfg.InstallDir, "~") {
		t.Errorf("InstallDir = %s, want expanded", cfg.InstallDir)
	}
	if strings.HasPrefix(cfg.Verify.Keyring, "~") {
		t.Errorf("Keyring = %s, want expanded", cfg.Verify.Keyring)
	}
}

func TestParser_ParseString_Errors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
	}{
		{"syntax_error", `launcher = {`, "Lua syntax error"},
		{"missing_table", `x = 1`, "missing or invalid 'launcher' table"},
		{"table_is_string", `launcher = "nope"`, "missing or invalid 'launcher' table"},
		{"port_wrong_type", `launcher = { proxy = { port = "25565" } }`, "launcher.proxy.port: expected number"},
		{"port_fractional", `launcher = { proxy = { port = 1.5 } }`, "launcher.proxy.port: expected integer"},
		{"section_wrong_type", `launcher = { api = "x" }`, "launcher.api: expected table"},
		{"marker_wrong_type", `launcher = { proxy = { ready_markers = { 1 } } }`, "ready_markers[1]: expected string"},
		{"sandboxed_os", `launcher = { install_dir = os.getenv("HOME") }`, "Lua syntax error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(nil).ParseString(context.Background(), tt.code, Default("/x"))
			if err == nil {
				t.Fatal("expected error")
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParser_ParseString_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewParser(nil).ParseString(ctx, `while true do end`, Default("/x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestParser_ParseString_DetectorError(t *testing.T) {
	detector := platform.StaticDetector{Err: errors.New("no platform")}
	_, err := NewParser(detector).ParseString(context.Background(), `launcher = {}`, Default("/x"))
	if err == nil || !strings.Contains(err.Error(), "platform detection failed") {
		t.Errorf("error = %v, want platform detection failure", err)
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		verbose bool
		want    string
	}{
		{
			name: "parse error non-verbose",
			err: &ParseError{
				Message: "Lua syntax error",
				Detail:  "<string>:1: unexpected symbol near 'invalid'\nstack traceback:\n\t[G]: ?",
			},
			verbose: false,
			want:    "Lua syntax error: <string>:1: unexpected symbol near 'invalid'",
		},
		{
			name: "parse error verbose",
			err: &ParseError{
				Message: "Lua syntax error",
				Detail:  "<string>:1: unexpected symbol near 'invalid'",
			},
			verbose: true,
			want:    "Lua syntax error\n\nDetails:\n<string>:1: unexpected symbol near 'invalid'",
		},
		{
			name:    "regular error",
			err:     &ValidationError{Field: "launcher.proxy.port", Message: "invalid"},
			verbose: false,
			want:    "config validation failed for launcher.proxy.port: invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatError(tt.err, tt.verbose)
			if !strings.Contains(got, tt.want) {
				t.Errorf("FormatError() = %q, want substring %q", got, tt.want)
			}
			if !tt.verbose && strings.Contains(got, "stack traceback") {
				t.Errorf("FormatError() kept the traceback: %q", got)
			}
		})
	}
}
