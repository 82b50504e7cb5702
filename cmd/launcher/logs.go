package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hpcloud/tail"
	"github.com/urfave/cli"
)

const defaultLogLines = 50

func logsAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer e.Close()

	path := e.cfg.Proxy.LogFile
	if path == "" {
		return fmt.Errorf("no proxy log file configured")
	}

	out := c.App.Writer
	if err := printTail(out, path, c.Int("lines")); err != nil {
		return err
	}
	if !c.Bool("follow") {
		return nil
	}
	return followLog(ctx, out, path)
}

// printTail prints the last n lines of path.
func printTail(out io.Writer, path string, n int) error {
	t, err := tail.TailFile(path, tail.Config{MustExist: true, Logger: tail.DiscardingLogger})
	if err != nil {
		return fmt.Errorf("open proxy log: %w", err)
	}
	defer t.Cleanup()

	if n <= 0 {
		n = defaultLogLines
	}
	ring := make([]string, 0, n)
	for line := range t.Lines {
		if line.Err != nil {
			return line.Err
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line.Text)
	}
	for _, text := range ring {
		fmt.Fprintln(out, text)
	}
	return t.Wait()
}

// followLog prints lines appended to path until ctx ends. It survives the
// file being recreated.
func followLog(ctx context.Context, out io.Writer, path string) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("follow proxy log: %w", err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Wait()
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}
