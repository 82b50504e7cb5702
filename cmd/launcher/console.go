package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"

	"github.com/duelsplus/launcher/internal/binary"
	"github.com/duelsplus/launcher/internal/event"
	"github.com/duelsplus/launcher/internal/proxy"
)

const helpText = `
Available commands:
  help     - Show this help message
  status   - Show proxy status
  update   - Check for proxy updates
  stop     - Stop the proxy and exit
  clear    - Clear the terminal
`

// stopWait bounds how long the console waits for the proxy after stop.
const stopWait = proxy.DefaultStopTimeout + 2*time.Second

// proxyControl is the part of service.Launcher the console drives.
type proxyControl interface {
	ProxyStatus() bool
	ProxyState() proxy.State
	ProxyInfo(ctx context.Context) (*proxy.Info, error)
	CheckForUpdates(ctx context.Context, emit event.Handler) (*binary.Result, error)
	KillProxy()
	WaitForProxyToStop(ctx context.Context) error
}

// console is the interactive command loop shown once the proxy is ready.
type console struct {
	ctl  proxyControl
	out  io.Writer
	emit event.Handler
	port int
}

// lineReader returns the next command, or an error when input ends or the
// user interrupts.
type lineReader func() (string, error)

func (c *console) loop(ctx context.Context, read lineReader) error {
	fmt.Fprint(c.out, "\nType 'help' for available commands.\n\n")
	for {
		line, err := read()
		if err != nil {
			c.shutdown(ctx)
			return nil
		}
		if c.handle(ctx, line) {
			return nil
		}
	}
}

// handle runs one command and reports whether the console should exit.
func (c *console) handle(ctx context.Context, input string) bool {
	command := strings.ToLower(strings.TrimSpace(input))
	switch command {
	case "help", "?":
		fmt.Fprint(c.out, helpText)
	case "status":
		c.status(ctx)
	case "update":
		c.update(ctx)
	case "stop", "exit", "quit":
		c.shutdown(ctx)
		return true
	case "clear", "cls":
		fmt.Fprint(c.out, "\033[H\033[2J")
	case "":
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n", command)
		fmt.Fprintln(c.out, "Type help to see available commands.")
	}
	return false
}

func (c *console) status(ctx context.Context) {
	if !c.ctl.ProxyStatus() {
		if state := c.ctl.ProxyState(); state == proxy.StateCrashed {
			fmt.Fprintln(c.out, "Proxy: not running (crashed)")
			return
		}
		fmt.Fprintln(c.out, "Proxy: not running")
		return
	}

	info, err := c.ctl.ProxyInfo(ctx)
	if err != nil || info == nil {
		fmt.Fprintf(c.out, "Proxy: running on port %d\n", c.port)
		return
	}
	fmt.Fprintf(c.out, "Proxy: running on port %d (pid %d, up %s", info.Port, info.PID, info.Uptime.Truncate(time.Second))
	if info.RSS > 0 {
		fmt.Fprintf(c.out, ", %s, %.1f%% CPU", formatBytes(info.RSS), info.CPUPercent)
	}
	fmt.Fprintln(c.out, ")")
}

func (c *console) update(ctx context.Context) {
	fmt.Fprintln(c.out, "Checking for updates...")
	res, err := c.ctl.CheckForUpdates(ctx, c.emit)
	if err != nil {
		fmt.Fprintf(c.out, "Failed to check for updates: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Update check complete.")
	if res.Downloaded {
		fmt.Fprintf(c.out, "Downloaded proxy %s. Restart the launcher to use it.\n", res.Version)
	} else {
		fmt.Fprintf(c.out, "Proxy %s is up to date.\n", res.Version)
	}
}

func (c *console) shutdown(ctx context.Context) {
	fmt.Fprintln(c.out, "Shutting down proxy...")
	c.ctl.KillProxy()
	waitCtx, cancel := context.WithTimeout(ctx, stopWait)
	defer cancel()
	if err := c.ctl.WaitForProxyToStop(waitCtx); err != nil {
		fmt.Fprintf(c.out, "Proxy did not stop in time: %v\n", err)
	}
}

// promptLine reads one console command with promptui.
func promptLine() (string, error) {
	prompt := promptui.Prompt{
		Label: "duels>",
		Templates: &promptui.PromptTemplates{
			Prompt:  "{{ . | cyan }} ",
			Valid:   "{{ . | cyan }} ",
			Invalid: "{{ . | cyan }} ",
			Success: "{{ . | cyan }} ",
		},
	}
	return prompt.Run()
}
