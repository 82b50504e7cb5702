package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validator "gopkg.in/go-playground/validator.v9"
)

// Config is the merged launcher configuration.
type Config struct {
	// AppDir holds the config file, token and logs. It is not read from Lua.
	AppDir string `json:"-" validate:"required"`

	API        APIConfig    `json:"api"`
	InstallDir string       `json:"install_dir" validate:"required"`
	Proxy      ProxyConfig  `json:"proxy"`
	Cache      CacheConfig  `json:"cache"`
	Verify     VerifyConfig `json:"verify"`
	Auth       AuthConfig   `json:"auth"`
	Log        LogConfig    `json:"log"`
}

// APIConfig points at the release service.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
}

// ProxyConfig controls how the proxy is launched and watched.
type ProxyConfig struct {
	Port            int      `json:"port" validate:"min=1,max=65535"`
	ReadyMarkers    []string `json:"ready_markers" validate:"required,dive,required"`
	SuppressMarkers []string `json:"suppress_markers" validate:"dive,required"`
	// LogFile receives the proxy's output; empty disables it.
	LogFile string `json:"log_file"`
}

// CacheConfig tunes the cached-artifact heuristic.
type CacheConfig struct {
	MinSizeMB int `json:"min_size_mb" validate:"min=1"`
}

// VerifyConfig enables signature checks when Keyring is set.
type VerifyConfig struct {
	Keyring string `json:"keyring"`
}

// AuthConfig locates the token and the service that checks it. An empty
// VerifyURL accepts any non-empty token.
type AuthConfig struct {
	VerifyURL string `json:"verify_url" validate:"omitempty,url"`
	TokenFile string `json:"token_file" validate:"required"`
}

// LogConfig sets the launcher's own log level.
type LogConfig struct {
	Level string `json:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file exists.
func Default(appDir string) *Config {
	return &Config{
		AppDir:     appDir,
		API:        APIConfig{BaseURL: DefaultBaseURL},
		InstallDir: filepath.Join(appDir, "proxy"),
		Proxy: ProxyConfig{
			Port:            DefaultPort,
			ReadyMarkers:    []string{"Proxy running on", "[✓]"},
			SuppressMarkers: []string{"[launcher:ign]", "[launcher:uuid]"},
			LogFile:         filepath.Join(appDir, "logs", "proxy.log"),
		},
		Cache: CacheConfig{MinSizeMB: DefaultMinSizeMB},
		Auth:  AuthConfig{TokenFile: filepath.Join(appDir, "token")},
		Log:   LogConfig{Level: DefaultLogLevel},
	}
}

// MinArtifactSize returns the cache threshold in bytes.
func (c *Config) MinArtifactSize() int64 {
	return int64(c.Cache.MinSizeMB) * 1024 * 1024
}

// Path returns the config file location.
func (c *Config) Path() string {
	return filepath.Join(c.AppDir, FileName)
}

// Validate checks the struct tags and reports the first few failures by
// their Lua field path.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Message: err.Error()}
	}

	var msgs []string
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", luaPath(fe.Namespace()), fe.Tag(), fe.Value()))
	}
	return &ValidationError{Field: luaPath(verrs[0].Namespace()), Message: strings.Join(msgs, "; ")}
}

// luaPath turns "Config.Proxy.ReadyMarkers[0]" into
// "launcher.proxy.ready_markers[0]".
func luaPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 {
		parts[0] = luaGlobalLauncher
	}
	for i := 1; i < len(parts); i++ {
		parts[i] = snake(parts[i])
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	runes := []rune(s)
	isUpper := func(r rune) bool { return r >= 'A' && r <= 'Z' }
	isLower := func(r rune) bool { return r >= 'a' && r <= 'z' }

	var b strings.Builder
	for i, r := range runes {
		if isUpper(r) {
			if i > 0 && (isLower(runes[i-1]) ||
				(isUpper(runes[i-1]) && i+1 < len(runes) && isLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
