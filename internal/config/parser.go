package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/duelsplus/launcher/internal/platform"
)

// Parser evaluates launcher.lua with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform table out.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile reads path and overlays it on base. base is not modified.
func (p *Parser) ParseFile(ctx context.Context, path string, base *Config) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config file too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxConfigSize),
		}
	}

	return p.ParseString(ctx, string(data), base)
}

// ParseString evaluates luaCode and overlays the "launcher" table on base.
// The result is not validated; Load validates after environment overrides.
func (p *Parser) ParseString(ctx context.Context, luaCode string, base *Config) (*Config, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ParseError{Message: "config evaluation timed out", Detail: err.Error(), Err: ctxErr}
		}
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	cfg := *base
	cfg.Proxy.ReadyMarkers = append([]string(nil), base.Proxy.ReadyMarkers...)
	cfg.Proxy.SuppressMarkers = append([]string(nil), base.Proxy.SuppressMarkers...)

	if err := extractConfig(L, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// extractConfig overlays the global "launcher" table onto cfg.
func extractConfig(L *lua.LState, cfg *Config) error {
	launcherVal := L.GetGlobal(luaGlobalLauncher)
	if launcherVal.Type() != lua.LTTable {
		return &ParseError{
			Message: "missing or invalid 'launcher' table",
			Detail:  fmt.Sprintf("expected table, got %s", launcherVal.Type()),
		}
	}
	root := launcherVal.(*lua.LTable)
	t := &tableReader{path: luaGlobalLauncher, table: root, errs: new([]error)}

	t.getString(luaFieldInstallDir, &cfg.InstallDir)

	if api := t.getTable(luaFieldAPI); api != nil {
		api.getString(luaFieldBaseURL, &cfg.API.BaseURL)
	}

	if proxy := t.getTable(luaFieldProxy); proxy != nil {
		proxy.getInt(luaFieldPort, &cfg.Proxy.Port)
		proxy.getStringList(luaFieldReadyMarkers, &cfg.Proxy.ReadyMarkers)
		proxy.getStringList(luaFieldSuppressMarkers, &cfg.Proxy.SuppressMarkers)
		proxy.getString(luaFieldLogFile, &cfg.Proxy.LogFile)
	}

	if cache := t.getTable(luaFieldCache); cache != nil {
		cache.getInt(luaFieldMinSizeMB, &cfg.Cache.MinSizeMB)
	}

	if verify := t.getTable(luaFieldVerify); verify != nil {
		verify.getString(luaFieldKeyring, &cfg.Verify.Keyring)
	}

	if auth := t.getTable(luaFieldAuth); auth != nil {
		auth.getString(luaFieldVerifyURL, &cfg.Auth.VerifyURL)
		auth.getString(luaFieldTokenFile, &cfg.Auth.TokenFile)
	}

	if log := t.getTable(luaFieldLog); log != nil {
		log.getString(luaFieldLevel, &cfg.Log.Level)
	}

	if err := t.firstErr(); err != nil {
		return err
	}

	for _, p := range []*string{&cfg.InstallDir, &cfg.Proxy.LogFile, &cfg.Verify.Keyring, &cfg.Auth.TokenFile} {
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// tableReader reads typed fields from a Lua table. Absent (nil) fields leave
// the destination untouched; a field of the wrong type records an error.
// Readers for nested tables share their parent's error list.
type tableReader struct {
	path  string
	table *lua.LTable
	errs  *[]error
}

func (t *tableReader) fail(field, want string, got lua.LValue) {
	*t.errs = append(*t.errs, fmt.Errorf("%s.%s: expected %s, got %s", t.path, field, want, got.Type()))
}

func (t *tableReader) firstErr() error {
	if len(*t.errs) == 0 {
		return nil
	}
	return &ParseError{Message: "invalid config value", Detail: errors.Join(*t.errs...).Error()}
}

func (t *tableReader) getTable(field string) *tableReader {
	v := t.table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTTable:
		return &tableReader{path: t.path + "." + field, table: v.(*lua.LTable), errs: t.errs}
	}
	t.fail(field, "table", v)
	return nil
}

func (t *tableReader) getString(field string, dst *string) {
	v := t.table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
	case lua.LTString:
		*dst = v.String()
	default:
		t.fail(field, "string", v)
	}
}

func (t *tableReader) getInt(field string, dst *int) {
	v := t.table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
	case lua.LTNumber:
		n := float64(v.(lua.LNumber))
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			t.fail(field, "integer", v)
			return
		}
		*dst = int(n)
	default:
		t.fail(field, "number", v)
	}
}

// getStringList replaces dst with the table's array part. nil entries (from
// platform conditionals like `platform.is_linux and "x" or nil`) are skipped.
func (t *tableReader) getStringList(field string, dst *[]string) {
	v := t.table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return
	case lua.LTTable:
	default:
		t.fail(field, "list of strings", v)
		return
	}

	var out []string
	list := v.(*lua.LTable)
	for i := 1; i <= list.MaxN(); i++ {
		item := list.RawGetInt(i)
		switch item.Type() {
		case lua.LTNil:
		case lua.LTString:
			out = append(out, item.String())
		default:
			t.fail(fmt.Sprintf("%s[%d]", field, i), "string", item)
		}
	}
	*dst = out
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		// Extract the most relevant part of the error
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
