package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli"

	"github.com/duelsplus/launcher/internal/auth"
	"github.com/duelsplus/launcher/internal/event"
	"github.com/duelsplus/launcher/internal/proxy"
)

const (
	appealURL      = "https://discord.gg/YD4JZnuGYv"
	userAgent      = "duelsplus-launcher"
	readyPollEvery = 200 * time.Millisecond
)

var (
	errBanned      = errors.New("account banned")
	errExitedEarly = errors.New("proxy exited before it was ready")
)

func runAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer e.Close()

	out := c.App.Writer
	store := auth.NewFileStore(e.cfg.Auth.TokenFile)
	verifier := auth.NewHTTPVerifier(e.cfg.Auth.VerifyURL, nil, userAgent+"/"+Version)
	if err := ensureToken(ctx, store, verifier, out, promptToken); err != nil {
		return err
	}

	l, err := newLauncher(e)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			e.logger.Warn("launcher shutdown", "error", err)
		}
	}()

	p := newPrinter(out)
	ready := proxy.NewReadySignal(e.cfg.Proxy.ReadyMarkers...)
	handler := event.Multi(p.handle, ready.Observe)

	port := portFrom(c, e.cfg.Proxy.Port)
	if _, err := l.LaunchProxy(ctx, port, handler); err != nil {
		return err
	}

	if err := waitReady(ctx, ready, p.Crashed(), l.ProxyState); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "Shutting down proxy...")
			return nil
		}
		return err
	}

	con := &console{ctl: l, out: out, emit: handler, port: port}
	done := make(chan error, 1)
	go func() { done <- con.loop(ctx, promptLine) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down proxy...")
		return nil
	}
}

// waitReady blocks until the proxy prints a ready marker. It fails when the
// proxy crashes or exits first, or when ctx ends.
func waitReady(ctx context.Context, ready *proxy.ReadySignal, crashed <-chan struct{}, state func() proxy.State) error {
	ticker := time.NewTicker(readyPollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ready.Done():
			return nil
		case <-crashed:
			return errExitedEarly
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			switch state() {
			case proxy.StateIdle, proxy.StateCrashed:
				if ready.Ready() {
					return nil
				}
				return errExitedEarly
			}
		}
	}
}

// ensureToken makes sure a verified token is stored. A stored token is tried
// first; after that the user is prompted until the service accepts one.
// Tokens typed by the user are saved once the service has recognised them,
// including banned ones.
func ensureToken(ctx context.Context, store auth.TokenStore, verifier auth.TokenVerifier, out io.Writer, prompt func() (string, error)) error {
	token, err := store.Get(ctx)
	if err != nil && !errors.Is(err, auth.ErrNoToken) {
		return err
	}

	entered := false
	for {
		if token == "" {
			token, err = prompt()
			if err != nil {
				return err
			}
			entered = true
		}

		res, err := verifier.Verify(ctx, token)
		if err != nil {
			return fmt.Errorf("verify token: %w", err)
		}

		if res.Success || res.Banned() {
			if entered {
				if err := store.Save(ctx, token); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
			}
		}
		if res.Success {
			return nil
		}
		if res.Banned() {
			fmt.Fprintln(out, "This account has been banned for breaching the Terms of Service.")
			fmt.Fprintf(out, "Appeal this decision: %s\n", appealURL)
			return errBanned
		}

		fmt.Fprintln(out, "Invalid token.")
		token = ""
	}
}

// promptToken asks for a token with masked input.
func promptToken() (string, error) {
	prompt := promptui.Prompt{
		Label: "Enter your verification token",
		Mask:  '*',
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("Token cannot be empty")
			}
			return nil
		},
	}
	token, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("token prompt: %w", err)
	}
	return strings.TrimSpace(token), nil
}
