package platform

import (
	"errors"
	"testing"
)

func TestReleaseTag(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		want    string
		wantErr bool
	}{
		{"windows", "windows", TagWindows, false},
		{"darwin", "darwin", TagMacOS, false},
		{"linux", "linux", TagLinux, false},
		{"freebsd", "freebsd", "", true},
		{"plan9", "plan9", "", true},
		{"empty", "", "", true},
		{"node_style_win32", "win32", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReleaseTag(tt.goos)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReleaseTag(%q) error = %v, wantErr %v", tt.goos, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReleaseTag(%q) = %q, want %q", tt.goos, got, tt.want)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedPlatform) {
				t.Errorf("error %v does not wrap ErrUnsupportedPlatform", err)
			}
		})
	}
}

func TestReleaseTag_Distinct(t *testing.T) {
	seen := map[string]string{}
	for _, goos := range []string{"windows", "darwin", "linux"} {
		tag, err := ReleaseTag(goos)
		if err != nil {
			t.Fatalf("ReleaseTag(%q) error = %v", goos, err)
		}
		if other, ok := seen[tag]; ok {
			t.Errorf("%s and %s map to the same tag %q", goos, other, tag)
		}
		seen[tag] = goos
	}
}

func TestUnsupportedPlatformError_Message(t *testing.T) {
	_, err := ReleaseTag("aix")
	var upe *UnsupportedPlatformError
	if !errors.As(err, &upe) {
		t.Fatalf("expected *UnsupportedPlatformError, got %T", err)
	}
	if upe.OS != "aix" {
		t.Errorf("OS = %q, want aix", upe.OS)
	}
	if err.Error() != "unsupported platform: aix" {
		t.Errorf("Error() = %q", err.Error())
	}
}
