package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalLauncher       = "launcher"
	luaFieldAPI             = "api"
	luaFieldBaseURL         = "base_url"
	luaFieldInstallDir      = "install_dir"
	luaFieldProxy           = "proxy"
	luaFieldPort            = "port"
	luaFieldReadyMarkers    = "ready_markers"
	luaFieldSuppressMarkers = "suppress_markers"
	luaFieldLogFile         = "log_file"
	luaFieldCache           = "cache"
	luaFieldMinSizeMB       = "min_size_mb"
	luaFieldVerify          = "verify"
	luaFieldKeyring         = "keyring"
	luaFieldAuth            = "auth"
	luaFieldVerifyURL       = "verify_url"
	luaFieldTokenFile       = "token_file"
	luaFieldLog             = "log"
	luaFieldLevel           = "level"
)

// Environment overrides
const (
	EnvHome     = "LAUNCHER_HOME"
	EnvAPIURL   = "LAUNCHER_API_URL"
	EnvLogLevel = "LAUNCHER_LOG_LEVEL"
)

const (
	// FileName is the config file name inside the app dir.
	FileName = "launcher.lua"
	// AppDirName is the app dir name under the user's home.
	AppDirName = ".duelsplus"

	DefaultBaseURL   = "https://duelsplus.com/api"
	DefaultPort      = 25565
	DefaultMinSizeMB = 50
	DefaultLogLevel  = "info"

	// MaxConfigSize bounds the config file read.
	MaxConfigSize = 1024 * 1024
	// DefaultParseTimeout applies when the caller's context has no deadline.
	DefaultParseTimeout = 5 * time.Second
)
