package proxy

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is tracked.
	ErrAlreadyRunning = errors.New("proxy is already running")
	// ErrNotRunning is returned by Info when no run is tracked.
	ErrNotRunning = errors.New("proxy is not running")
	// ErrArtifactMissing is returned when the executable is not on disk.
	ErrArtifactMissing = errors.New("proxy artifact missing")
	// ErrPortInUse is returned when the requested port cannot be bound.
	ErrPortInUse = errors.New("port already in use")
)

// ArtifactMissingError names the path that was expected to exist.
type ArtifactMissingError struct {
	Path string
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("proxy not found at %s", e.Path)
}

func (e *ArtifactMissingError) Unwrap() error {
	return ErrArtifactMissing
}

// PortInUseError names the port that was taken.
type PortInUseError struct {
	Port int
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("port %d is already in use, pass a different one with --port <1-65535>", e.Port)
}

func (e *PortInUseError) Unwrap() error {
	return ErrPortInUse
}
