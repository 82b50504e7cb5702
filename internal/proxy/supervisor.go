package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duelsplus/launcher/internal/event"
	"github.com/duelsplus/launcher/internal/logging"
)

// DefaultSuppressMarkers tag stdout lines the proxy writes for the launcher
// rather than for the user.
var DefaultSuppressMarkers = []string{"[launcher:ign]", "[launcher:uuid]"}

const (
	// DefaultStopTimeout is how long Stop waits after an interrupt before
	// killing the process.
	DefaultStopTimeout = 5 * time.Second
	// pollInterval is the AwaitStopped polling period.
	pollInterval = 100 * time.Millisecond
	// relayGrace bounds how long the exit watcher waits for trailing output
	// before reporting a crash.
	relayGrace = 500 * time.Millisecond
	// maxLineSize caps one relayed line.
	maxLineSize    = 1024 * 1024
	readBufferSize = 64 * 1024
)

// State is the supervisor lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	// StateCrashed is the resting state after an abnormal exit. It behaves
	// like StateIdle for the next Start.
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Options configures a Supervisor.
type Options struct {
	Logger logging.Logger
	// SuppressMarkers replaces DefaultSuppressMarkers when non-nil.
	SuppressMarkers []string
	// Output receives every relayed line; typically the proxy log file.
	Output io.Writer
	// StopTimeout replaces DefaultStopTimeout when positive.
	StopTimeout time.Duration
}

// run is the handle for one launched process.
type run struct {
	id      string
	path    string
	port    int
	cmd     *exec.Cmd
	started time.Time
	relays  sync.WaitGroup
	done    chan struct{}

	// stopped is set by Stop; guarded by Supervisor.mu.
	stopped bool
}

// Supervisor launches the proxy and tracks it until it exits.
type Supervisor struct {
	logger      logging.Logger
	suppress    []string
	stopTimeout time.Duration

	outMu  sync.Mutex
	output io.Writer

	mu       sync.Mutex
	current  *run
	starting bool
	stopping int
	resting  State
}

// NewSupervisor creates an idle supervisor.
func NewSupervisor(opts Options) *Supervisor {
	suppress := opts.SuppressMarkers
	if suppress == nil {
		suppress = DefaultSuppressMarkers
	}
	stopTimeout := opts.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	return &Supervisor{
		logger:      logging.OrNop(opts.Logger),
		suppress:    suppress,
		stopTimeout: stopTimeout,
		output:      opts.Output,
		resting:     StateIdle,
	}
}

// Start launches "path --port <port>" in path's directory and returns the
// run id. Output and crashes are reported to emit until the process exits or
// Stop is called.
func (s *Supervisor) Start(path string, port int, emit event.Handler) (string, error) {
	s.mu.Lock()
	if s.current != nil || s.starting {
		s.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	s.starting = true
	s.mu.Unlock()

	r, err := s.spawn(path, port, emit)

	s.mu.Lock()
	s.starting = false
	if err == nil {
		s.current = r
	}
	s.mu.Unlock()

	if err != nil {
		return "", err
	}

	go s.watch(r, emit)
	return r.id, nil
}

func (s *Supervisor) spawn(path string, port int, emit event.Handler) (*run, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, &ArtifactMissingError{Path: path}
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	cmd := exec.Command(path, "--port", strconv.Itoa(port))
	cmd.Dir = filepath.Dir(path)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	// The child holds its own copies of the write ends.
	stdoutW.Close()
	stderrW.Close()
	if err != nil {
		stdoutR.Close()
		stderrR.Close()
		return nil, fmt.Errorf("start proxy: %w", err)
	}

	r := &run{
		id:      uuid.NewString(),
		path:    path,
		port:    port,
		cmd:     cmd,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	s.logger.Info("proxy started", "pid", cmd.Process.Pid, "port", port, "run_id", r.id)

	r.relays.Add(2)
	go s.relay(r, stdoutR, event.Stdout, emit)
	go s.relay(r, stderrR, event.Stderr, emit)
	return r, nil
}

// relay forwards rd line by line until the child closes its end. Lines
// longer than maxLineSize are cut at that size and the rest of the line is
// dropped; relaying continues with the next line.
func (s *Supervisor) relay(r *run, rd io.ReadCloser, stream event.Stream, emit event.Handler) {
	defer r.relays.Done()
	defer rd.Close()

	br := bufio.NewReaderSize(rd, readBufferSize)
	line := make([]byte, 0, readBufferSize)
	dropped := 0
	for {
		chunk, err := br.ReadSlice('\n')
		if room := maxLineSize - len(line); len(chunk) > room {
			dropped += len(chunk) - room
			chunk = chunk[:room]
		}
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if err == nil || len(line) > 0 {
			if dropped > 0 {
				s.logger.Debug("long output line truncated", "stream", stream, "run_id", r.id, "dropped_bytes", dropped)
			}
			s.forward(r, stream, strings.TrimRight(string(line), "\r\n"), emit)
		}
		line = line[:0]
		dropped = 0

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.logger.Debug("output relay stopped", "stream", stream, "run_id", r.id, "error", err)
			}
			return
		}
	}
}

func (s *Supervisor) forward(r *run, stream event.Stream, line string, emit event.Handler) {
	if stream == event.Stdout && s.suppressed(line) {
		return
	}
	s.writeOutput(line)
	emit.Emit(event.Log{RunID: r.id, Stream: stream, Line: line})
}

func (s *Supervisor) suppressed(line string) bool {
	for _, m := range s.suppress {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func (s *Supervisor) writeOutput(line string) {
	if s.output == nil {
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := io.WriteString(s.output, line+"\n"); err != nil {
		s.logger.Debug("write proxy output", "error", err)
	}
}

// watch waits for the process to exit and updates the bookkeeping.
func (s *Supervisor) watch(r *run, emit event.Handler) {
	err := r.cmd.Wait()
	close(r.done)

	code, detail := exitStatus(err)

	s.mu.Lock()
	explicit := r.stopped
	if explicit {
		s.stopping--
	}
	if s.current == r {
		s.current = nil
		if code != 0 {
			s.resting = StateCrashed
		} else {
			s.resting = StateIdle
		}
	}
	s.mu.Unlock()

	if explicit {
		s.logger.Info("proxy stopped", "run_id", r.id, "code", code)
		return
	}
	if code == 0 {
		s.logger.Info("proxy exited", "run_id", r.id)
		return
	}

	s.logger.Warn("proxy crashed", "run_id", r.id, "code", code, "detail", detail)

	// Let the relays flush the last lines (usually the reason for the crash)
	// so they are delivered before the crash itself.
	relaysDone := make(chan struct{})
	go func() {
		r.relays.Wait()
		close(relaysDone)
	}()
	select {
	case <-relaysDone:
	case <-time.After(relayGrace):
	}

	emit.Emit(event.Crash{RunID: r.id, Code: code, Detail: detail, At: time.Now()})
}

// exitStatus maps a Wait error to an exit code. Signal exits and failures to
// observe the exit are reported as -1 with a detail string.
func exitStatus(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code == -1 {
			return -1, exitErr.String()
		}
		return code, fmt.Sprintf("proxy process exited with a non-zero exit code: %d", code)
	}
	return -1, err.Error()
}

// Stop detaches the current run and asks it to exit: an interrupt first,
// then a kill if it is still alive after the stop timeout. Bookkeeping is
// cleared immediately; signal errors are ignored since the process may
// already be gone. Stop is a no-op when nothing is running.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	r := s.current
	if r == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	r.stopped = true
	s.stopping++
	s.resting = StateIdle
	s.mu.Unlock()

	s.logger.Info("stopping proxy", "pid", r.cmd.Process.Pid, "run_id", r.id)

	if err := interrupt(r.cmd.Process); err != nil {
		_ = r.cmd.Process.Kill()
		return
	}
	go s.escalate(r)
}

// interrupt sends os.Interrupt where the platform supports it.
func interrupt(p *os.Process) error {
	if runtime.GOOS == "windows" {
		return errors.New("interrupt not supported on windows")
	}
	return p.Signal(os.Interrupt)
}

func (s *Supervisor) escalate(r *run) {
	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()

	select {
	case <-r.done:
	case <-timer.C:
		s.logger.Warn("proxy ignored interrupt, killing", "pid", r.cmd.Process.Pid, "run_id", r.id)
		_ = r.cmd.Process.Kill()
	}
}

// Status reports whether a run is tracked. It turns false when the process
// exits or Stop is called, whichever comes first.
func (s *Supervisor) Status() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// State returns the lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.current != nil:
		return StateRunning
	case s.starting:
		return StateStarting
	case s.stopping > 0:
		return StateStopping
	default:
		return s.resting
	}
}

// AwaitStopped blocks until no run is tracked and every stopped process has
// exited, or ctx is done.
func (s *Supervisor) AwaitStopped(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		switch s.State() {
		case StateIdle, StateCrashed:
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
