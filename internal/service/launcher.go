// Package service ties the updater, the supervisor and the instance lock
// into the operations the CLI exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/duelsplus/launcher/internal/binary"
	"github.com/duelsplus/launcher/internal/config"
	"github.com/duelsplus/launcher/internal/event"
	"github.com/duelsplus/launcher/internal/lock"
	"github.com/duelsplus/launcher/internal/logging"
	"github.com/duelsplus/launcher/internal/platform"
	"github.com/duelsplus/launcher/internal/proxy"
)

const (
	// LogDirPermissions sets the permission mode for the log directory.
	LogDirPermissions = 0755
	// LogFilePermissions sets the permission mode for the proxy log file.
	LogFilePermissions = 0644
	// closeTimeout bounds how long Close waits for the proxy to exit.
	closeTimeout = proxy.DefaultStopTimeout + 2*time.Second
)

// Updater makes sure the latest proxy build is on disk.
type Updater interface {
	Ensure(ctx context.Context, emit event.Handler) (*binary.Result, error)
	InstallDir() string
}

// Options configures a Launcher. Config and Platform are required.
type Options struct {
	Config   *config.Config
	Platform *platform.Info
	// HTTPClient is used for release requests; nil uses a default.
	HTTPClient *http.Client
	Logger     logging.Logger
	// Updater replaces the release-backed updater; used by tests.
	Updater Updater
}

// Launcher launches and supervises the proxy for one install directory.
type Launcher struct {
	cfg        *config.Config
	updater    Updater
	supervisor *proxy.Supervisor
	logger     logging.Logger
	logFile    *os.File

	mu   sync.Mutex
	lock *lock.Lock
}

// New wires a Launcher from configuration. It opens the proxy log file when
// one is configured.
func New(opts Options) (*Launcher, error) {
	if opts.Config == nil {
		return nil, errors.New("Config is required")
	}
	if opts.Platform == nil {
		return nil, errors.New("Platform is required")
	}
	cfg := opts.Config
	logger := logging.OrNop(opts.Logger)

	updater := opts.Updater
	if updater == nil {
		manager, err := binary.NewManager(binary.Config{
			BaseURL:         cfg.API.BaseURL,
			InstallDir:      cfg.InstallDir,
			PlatformInfo:    opts.Platform,
			MinArtifactSize: cfg.MinArtifactSize(),
			KeyringPath:     cfg.Verify.Keyring,
			HTTPClient:      opts.HTTPClient,
			Logger:          logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create updater: %w", err)
		}
		updater = manager
	}

	l := &Launcher{
		cfg:     cfg,
		updater: updater,
		logger:  logger,
	}

	supOpts := proxy.Options{
		Logger:          logger,
		SuppressMarkers: cfg.Proxy.SuppressMarkers,
	}
	if cfg.Proxy.LogFile != "" {
		f, err := openLogFile(cfg.Proxy.LogFile)
		if err != nil {
			// The proxy still runs without a log file.
			logger.Warn("proxy log file unavailable", "path", cfg.Proxy.LogFile, "error", err)
		} else {
			l.logFile = f
			supOpts.Output = f
		}
	}
	if supOpts.SuppressMarkers == nil {
		supOpts.SuppressMarkers = []string{}
	}
	l.supervisor = proxy.NewSupervisor(supOpts)

	return l, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), LogDirPermissions); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions)
}

// Config returns the configuration the launcher was built with.
func (l *Launcher) Config() *config.Config {
	return l.cfg
}

// LaunchProxy checks the port, takes the install-dir lock, brings the proxy
// up to date and starts it. Events from the download and from the running
// proxy go to emit. It returns the run id.
func (l *Launcher) LaunchProxy(ctx context.Context, port int, emit event.Handler) (string, error) {
	if err := proxy.CheckPort(port); err != nil {
		return "", err
	}

	if err := l.acquireLock(ctx); err != nil {
		return "", err
	}

	result, err := l.updater.Ensure(ctx, emit)
	if err != nil {
		return "", err
	}

	runID, err := l.supervisor.Start(result.Path, port, event.Multi(emit, l.observe))
	if err != nil {
		return "", err
	}

	l.logger.Info("proxy launched", "version", result.Version, "port", port, "run_id", runID)
	return runID, nil
}

// observe records crashes in the launcher log.
func (l *Launcher) observe(ev event.Event) {
	if c, ok := ev.(event.Crash); ok {
		l.logger.Error("proxy crashed", "run_id", c.RunID, "code", c.Code, "detail", c.Detail)
	}
}

// CheckForUpdates downloads a newer proxy build if there is one. It does not
// restart a running proxy; the new build is used on the next launch.
func (l *Launcher) CheckForUpdates(ctx context.Context, emit event.Handler) (*binary.Result, error) {
	if err := l.acquireLock(ctx); err != nil {
		return nil, err
	}
	return l.updater.Ensure(ctx, emit)
}

// KillProxy stops the proxy without waiting for it to exit.
func (l *Launcher) KillProxy() {
	l.supervisor.Stop()
}

// WaitForProxyToStop blocks until the proxy has exited or ctx is done.
func (l *Launcher) WaitForProxyToStop(ctx context.Context) error {
	return l.supervisor.AwaitStopped(ctx)
}

// ProxyStatus reports whether the proxy is running.
func (l *Launcher) ProxyStatus() bool {
	return l.supervisor.Status()
}

// ProxyState returns the supervisor's lifecycle state.
func (l *Launcher) ProxyState() proxy.State {
	return l.supervisor.State()
}

// ProxyInfo describes the running proxy.
func (l *Launcher) ProxyInfo(ctx context.Context) (*proxy.Info, error) {
	return l.supervisor.Info(ctx)
}

// Close stops the proxy, waits briefly for it to exit, then releases the
// lock and the log file.
func (l *Launcher) Close() error {
	l.supervisor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	waitErr := l.supervisor.AwaitStopped(ctx)
	if waitErr != nil {
		l.logger.Warn("proxy did not exit in time", "error", waitErr)
	}

	var errs []error
	l.mu.Lock()
	if l.lock != nil {
		if err := l.lock.Release(); err != nil {
			errs = append(errs, err)
		}
		l.lock = nil
	}
	l.mu.Unlock()

	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close proxy log: %w", err))
		}
		l.logFile = nil
	}

	return errors.Join(errs...)
}

// acquireLock takes the install-dir lock once per Launcher.
func (l *Launcher) acquireLock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lock != nil {
		return nil
	}
	lk, err := lock.Acquire(ctx, l.updater.InstallDir())
	if err != nil {
		return err
	}
	l.lock = lk
	return nil
}
