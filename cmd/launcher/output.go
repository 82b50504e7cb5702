package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/duelsplus/launcher/internal/event"
)

// printer writes launcher events to the terminal. Progress is redrawn in
// place on one line; any other event first ends that line.
type printer struct {
	out io.Writer

	mu         sync.Mutex
	inProgress bool

	crashOnce sync.Once
	crashed   chan struct{}
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, crashed: make(chan struct{})}
}

// Crashed is closed after the first crash event.
func (p *printer) Crashed() <-chan struct{} {
	return p.crashed
}

func (p *printer) handle(ev event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := ev.(event.Progress); !ok && p.inProgress {
		fmt.Fprintln(p.out)
		p.inProgress = false
	}

	switch e := ev.(type) {
	case event.Log:
		fmt.Fprintln(p.out, e.Line)
	case event.Progress:
		fmt.Fprintf(p.out, "\r%s", formatProgress(e))
		p.inProgress = true
		if e.Total > 0 && e.Downloaded >= e.Total {
			fmt.Fprintln(p.out)
			p.inProgress = false
		}
	case event.Status:
		if e.Version != "" {
			fmt.Fprintf(p.out, "%s (%s)\n", e.Message, e.Version)
		} else {
			fmt.Fprintln(p.out, e.Message)
		}
	case event.Crash:
		fmt.Fprintf(p.out, "Proxy crashed: %s\n", e.Detail)
		p.crashOnce.Do(func() { close(p.crashed) })
	}
}

func formatProgress(p event.Progress) string {
	speed := p.Speed / 1024
	if pct, ok := p.Percent(); ok {
		return fmt.Sprintf("Downloading: %.1f%% (%.1f KB/s)", pct, speed)
	}
	return fmt.Sprintf("Downloading: %s (%.1f KB/s)", formatBytes(uint64(max(p.Downloaded, 0))), speed)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
