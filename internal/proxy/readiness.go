package proxy

import (
	"strings"
	"sync"

	"github.com/duelsplus/launcher/internal/event"
)

// DefaultReadyMarkers are the log fragments the proxy prints once it is
// accepting connections.
var DefaultReadyMarkers = []string{"Proxy running on", "[✓]"}

// ReadySignal watches log events for a readiness marker. It matches on
// content only; the supervisor knows nothing about it.
type ReadySignal struct {
	markers []string
	once    sync.Once
	done    chan struct{}

	mu   sync.Mutex
	line string
}

// NewReadySignal returns a signal for markers, or DefaultReadyMarkers when
// none are given.
func NewReadySignal(markers ...string) *ReadySignal {
	if len(markers) == 0 {
		markers = DefaultReadyMarkers
	}
	return &ReadySignal{markers: markers, done: make(chan struct{})}
}

// Observe inspects ev. It has the event.Handler signature so it can be
// combined with other handlers via event.Multi.
func (r *ReadySignal) Observe(ev event.Event) {
	log, ok := ev.(event.Log)
	if !ok || log.Stream == event.Launcher {
		return
	}
	for _, m := range r.markers {
		if strings.Contains(log.Line, m) {
			r.once.Do(func() {
				r.mu.Lock()
				r.line = log.Line
				r.mu.Unlock()
				close(r.done)
			})
			return
		}
	}
}

// Done is closed on the first matching line.
func (r *ReadySignal) Done() <-chan struct{} {
	return r.done
}

// Ready reports whether a marker has been seen.
func (r *ReadySignal) Ready() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Line returns the line that matched, or "" before readiness.
func (r *ReadySignal) Line() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.line
}
