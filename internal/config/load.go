package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/duelsplus/launcher/internal/logging"
	"github.com/duelsplus/launcher/internal/platform"
)

// AppDir returns $LAUNCHER_HOME, or ~/.duelsplus.
func AppDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return expandHome(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}

// Load builds the effective configuration: defaults, then the Lua file at
// path (or <app dir>/launcher.lua when path is empty) if it exists, then
// environment overrides. A missing default file is not an error; a missing
// explicit path is.
func Load(ctx context.Context, path string, detector platform.Detector, logger logging.Logger) (*Config, error) {
	logger = logging.OrNop(logger)

	appDir, err := AppDir()
	if err != nil {
		return nil, err
	}
	cfg := Default(appDir)

	explicit := path != ""
	if !explicit {
		path = cfg.Path()
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if content, readErr := os.ReadFile(path); readErr == nil {
			for _, f := range DetectSensitiveData(string(content)) {
				logger.Warn("config may contain a secret", "path", path, "line", f.Line, "kind", f.PatternName)
			}
		}

		cfg, err = NewParser(detector).ParseFile(ctx, path, cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("config loaded", "path", path)
	} else if explicit || !os.IsNotExist(statErr) {
		return nil, fmt.Errorf("config file %s: %w", path, statErr)
	} else {
		logger.Debug("no config file, using defaults", "path", path)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies the environment overrides that take precedence over the
// file.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
}
