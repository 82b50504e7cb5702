package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
)

func updateAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer e.Close()

	l, err := newLauncher(e)
	if err != nil {
		return err
	}
	defer l.Close()

	out := c.App.Writer
	fmt.Fprintln(out, "Checking for updates...")
	res, err := l.CheckForUpdates(ctx, newPrinter(out).handle)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if res.Downloaded {
		fmt.Fprintf(out, "Installed proxy %s to %s\n", res.Version, res.Path)
		for _, m := range res.Verified {
			fmt.Fprintf(out, "  verified: %s\n", m)
		}
		return nil
	}
	fmt.Fprintf(out, "Proxy %s is up to date.\n", res.Version)
	return nil
}
