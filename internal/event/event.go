// Package event defines the typed notifications the launcher emits while it
// updates and supervises the proxy: log lines, download progress, status
// changes and crashes.
//
// Producers call a Handler synchronously. Log events from one stream and
// progress events from one download are delivered in emission order; events
// from different streams may interleave. Handlers run on the producer's
// goroutine (the download loop or an output relay), so they must return
// quickly. Chan adapts a Handler to a channel for consumers that prefer a
// blocking receive.
package event

import "time"

// Kind discriminates the event union.
type Kind string

const (
	KindLog      Kind = "log"
	KindProgress Kind = "progress"
	KindStatus   Kind = "status"
	KindCrash    Kind = "crash"
)

// Event is implemented by Log, Progress, Status and Crash.
type Event interface {
	Kind() Kind
}

// Stream identifies which child output stream a log line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
	// Launcher marks notices produced by the launcher itself.
	Launcher Stream = "launcher"
)

// Log is one line of output.
type Log struct {
	RunID  string
	Stream Stream
	Line   string
}

// Progress reports a download in flight.
type Progress struct {
	AssetID    string
	Downloaded int64
	// Total is -1 when the server did not send a usable Content-Length.
	Total int64
	// Speed is the average rate since the download started, in bytes/second.
	Speed float64
}

// Percent returns the completed percentage, or false when Total is unknown.
func (p Progress) Percent() (float64, bool) {
	if p.Total <= 0 {
		return 0, false
	}
	return float64(p.Downloaded) / float64(p.Total) * 100, true
}

// Status is a coarse state change worth showing to the user.
type Status struct {
	Message string
	Version string
}

// Crash reports that a launched proxy exited abnormally. Code is the exit
// code, or -1 when the exit could not be observed or was caused by a signal.
type Crash struct {
	RunID  string
	Code   int
	Detail string
	At     time.Time
}

func (Log) Kind() Kind      { return KindLog }
func (Progress) Kind() Kind { return KindProgress }
func (Status) Kind() Kind   { return KindStatus }
func (Crash) Kind() Kind    { return KindCrash }

// Handler receives events.
type Handler func(Event)

// Emit calls h if it is non-nil.
func (h Handler) Emit(ev Event) {
	if h != nil {
		h(ev)
	}
}

// Chan returns a Handler that sends every event on ch. Sends block, so the
// consumer must keep draining ch for as long as producers are running.
func Chan(ch chan<- Event) Handler {
	return func(ev Event) {
		ch <- ev
	}
}

// Multi fans an event out to several handlers in order. Nil handlers are
// skipped.
func Multi(handlers ...Handler) Handler {
	return func(ev Event) {
		for _, h := range handlers {
			h.Emit(ev)
		}
	}
}
