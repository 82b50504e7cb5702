package platform

import (
	"errors"
	"fmt"
)

// Release tags embedded in proxy asset names.
const (
	TagWindows = "win-x64"
	TagMacOS   = "macos-x64"
	TagLinux   = "linux-x64"
)

// ErrUnsupportedPlatform is returned when no proxy build exists for the host.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// UnsupportedPlatformError names the operating system that has no release tag.
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %s", e.OS)
}

func (e *UnsupportedPlatformError) Unwrap() error {
	return ErrUnsupportedPlatform
}

// ReleaseTag maps a GOOS value to the tag used in asset names.
// There is no fallback: a host outside the three supported systems fails.
func ReleaseTag(goos string) (string, error) {
	switch goos {
	case "windows":
		return TagWindows, nil
	case "darwin":
		return TagMacOS, nil
	case "linux":
		return TagLinux, nil
	default:
		return "", &UnsupportedPlatformError{OS: goos}
	}
}
