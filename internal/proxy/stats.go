package proxy

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Info describes the tracked run.
type Info struct {
	RunID   string
	PID     int
	Port    int
	Path    string
	Started time.Time
	Uptime  time.Duration
	// RSS and CPUPercent are zero when the OS refused to report them.
	RSS        uint64
	CPUPercent float64
}

// Info returns details about the running proxy, or ErrNotRunning.
// Resource figures are best effort.
func (s *Supervisor) Info(ctx context.Context) (*Info, error) {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return nil, ErrNotRunning
	}

	info := &Info{
		RunID:   r.id,
		PID:     r.cmd.Process.Pid,
		Port:    r.port,
		Path:    r.path,
		Started: r.started,
		Uptime:  time.Since(r.started),
	}

	p, err := process.NewProcessWithContext(ctx, int32(info.PID))
	if err != nil {
		s.logger.Debug("process stats unavailable", "pid", info.PID, "error", err)
		return info, nil
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		info.RSS = mem.RSS
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		info.CPUPercent = cpu
	}
	return info, nil
}
