// Package proxy starts and supervises the downloaded proxy executable.
//
// A Supervisor tracks at most one child process. Each run has three
// goroutines: a stdout relay, a stderr relay and an exit watcher. The relays
// turn output lines into event.Log values; stdout lines carrying an internal
// marker are dropped. The exit watcher is the only code path besides Stop
// that marks the supervisor idle, and it reports abnormal exits as
// event.Crash values.
//
// Readiness is not a supervisor event. Callers that need to know when the
// proxy is serving watch the log stream with a ReadySignal.
package proxy
