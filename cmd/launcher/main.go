package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/duelsplus/launcher/internal/config"
	"github.com/duelsplus/launcher/internal/logging"
	"github.com/duelsplus/launcher/internal/platform"
	"github.com/duelsplus/launcher/internal/service"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "launcher"
	app.Usage = "Download, launch and supervise the Duels+ proxy"
	app.Version = Version
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to launcher.lua (default: $LAUNCHER_HOME/launcher.lua)",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "print launcher diagnostics to stderr",
		},
		portFlag,
	}
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Launch the proxy and open the interactive console",
			Flags:  []cli.Flag{portFlag},
			Action: runAction,
		},
		{
			Name:   "update",
			Usage:  "Download the latest proxy build without launching it",
			Action: updateAction,
		},
		{
			Name:  "logs",
			Usage: "Print the proxy log",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "follow, f",
					Usage: "keep printing new lines as they are written",
				},
				cli.IntFlag{
					Name:  "lines, n",
					Value: defaultLogLines,
					Usage: "number of trailing lines to print",
				},
			},
			Action: logsAction,
		},
		{
			Name:  "version",
			Usage: "Print the launcher version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "Duels+ launcher %s\n", Version)
				return nil
			},
		},
	}
	// Without a subcommand the launcher runs the proxy.
	app.Action = runAction
	return app
}

var portFlag = cli.IntFlag{
	Name:  "port, p",
	Usage: "local port for the proxy, 1-65535 (default: proxy.port from config)",
}

// env is what every command needs after startup.
type env struct {
	cfg      *config.Config
	platform *platform.Info
	logger   logging.Logger
	closer   io.Closer
}

func (e *env) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// setup loads configuration and builds the launcher logger. With --verbose
// diagnostics go to stderr at debug level; otherwise they go to
// logs/launcher.log under the app directory.
func setup(ctx context.Context, c *cli.Context) (*env, error) {
	verbose := c.GlobalBool("verbose")
	detector := platform.NewDetector()

	bootLogger := logging.New(os.Stderr, "warn")
	if verbose {
		bootLogger = logging.New(os.Stderr, "debug")
	}

	cfg, err := config.Load(ctx, c.GlobalString("config"), detector, bootLogger)
	if err != nil {
		return nil, fmt.Errorf("%s", config.FormatError(err, verbose))
	}

	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	e := &env{cfg: cfg, platform: info}
	if verbose {
		e.logger = logging.New(os.Stderr, "debug")
		return e, nil
	}

	logPath := filepath.Join(cfg.AppDir, "logs", "launcher.log")
	if err := os.MkdirAll(filepath.Dir(logPath), service.LogDirPermissions); err != nil {
		e.logger = logging.Nop()
		return e, nil
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, service.LogFilePermissions)
	if err != nil {
		e.logger = logging.Nop()
		return e, nil
	}
	e.logger = logging.New(f, cfg.Log.Level)
	e.closer = f
	return e, nil
}

// newLauncher builds the service facade for e.
func newLauncher(e *env) (*service.Launcher, error) {
	return service.New(service.Options{
		Config:   e.cfg,
		Platform: e.platform,
		Logger:   e.logger,
	})
}

// portFrom reads --port from the command, then the global flag, then
// falls back to the configured port.
func portFrom(c *cli.Context, fallback int) int {
	if c.IsSet("port") {
		return c.Int("port")
	}
	if c.GlobalIsSet("port") {
		return c.GlobalInt("port")
	}
	return fallback
}
