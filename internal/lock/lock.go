// Package lock keeps two launchers from managing the same install directory.
package lock

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const (
	// FileName is the lock file created inside the install directory.
	FileName = "launcher.lock"
	// UnreadableLockThreshold is how old a lock without a readable pid must
	// be before it is treated as abandoned.
	UnreadableLockThreshold = 10 * time.Minute
)

var ErrLockExists = errors.New("launcher lock exists: another launcher may be running")

// HeldError reports the pid recorded by the current holder.
type HeldError struct {
	Path string
	PID  int
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("another launcher (pid %d) is using %s", e.PID, filepath.Dir(e.Path))
}

func (e *HeldError) Unwrap() error {
	return ErrLockExists
}

// Lock is a held instance lock.
type Lock struct {
	path string
	file *os.File
}

// Acquire creates dir/launcher.lock with O_CREATE|O_EXCL. A lock whose
// recorded process no longer exists is removed and acquisition retried once.
func Acquire(ctx context.Context, dir string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, FileName)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		pid, stale := isStale(ctx, lockPath)
		if !stale {
			return nil, &HeldError{Path: lockPath, PID: pid}
		}

		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			return nil, ErrLockExists
		}
	}

	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, file: file}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
		l.path = ""
	}

	return nil
}

// isStale reports whether the holder recorded in lockPath is gone. A lock
// with no readable pid is stale only once it is older than
// UnreadableLockThreshold, so a holder still writing it is not evicted.
func isStale(ctx context.Context, lockPath string) (int, bool) {
	pid, err := readPID(lockPath)
	if err != nil {
		info, statErr := os.Stat(lockPath)
		if statErr != nil {
			return 0, os.IsNotExist(statErr)
		}
		return 0, time.Since(info.ModTime()) > UnreadableLockThreshold
	}

	alive, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		return pid, false
	}
	return pid, !alive
}

func readPID(lockPath string) (int, error) {
	f, err := os.Open(lockPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), "pid="); ok {
			pid, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || pid <= 0 {
				return 0, fmt.Errorf("invalid pid %q", v)
			}
			return pid, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, errors.New("no pid recorded")
}
