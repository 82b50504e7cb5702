// Package config loads the launcher's optional Lua configuration.
//
// The file lives at <app dir>/launcher.lua, where the app dir is
// $LAUNCHER_HOME or ~/.duelsplus. It must define a global "launcher" table;
// every field is optional and falls back to Default:
//
//	launcher = {
//	  api = { base_url = "https://duelsplus.com/api" },
//	  install_dir = "~/.duelsplus/proxy",
//	  proxy = {
//	    port = 25565,
//	    ready_markers = { "Proxy running on", "[✓]" },
//	    suppress_markers = { "[launcher:ign]", "[launcher:uuid]" },
//	    log_file = "~/.duelsplus/logs/proxy.log",
//	  },
//	  cache = { min_size_mb = 50 },
//	  verify = { keyring = platform.is_linux and "~/.duelsplus/keys.asc" or nil },
//	  auth = { verify_url = "", token_file = "~/.duelsplus/token" },
//	  log = { level = "info" },
//	}
//
// The file runs in a sandboxed gopher-lua VM: os, io, module loading, debug
// and raw table access are removed. A read-only "platform" table describing
// the host is available for conditionals.
//
// Precedence is defaults, then the file, then environment variables
// (LAUNCHER_API_URL, LAUNCHER_LOG_LEVEL). The merged result is checked with
// validator struct tags.
package config
