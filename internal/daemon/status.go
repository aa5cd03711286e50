package daemon

import (
	"os"
	"time"

	"barcoded/internal/history"
)

// State is a position in the serve loop.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateListening
	StateReading
	StateDispatching
	StateClosing
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateReading:
		return "reading"
	case StateDispatching:
		return "dispatching"
	case StateClosing:
		return "closing"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "stopped"
	}
}

// Status is a point-in-time view of the daemon.
type Status struct {
	State         string          `json:"state"`
	PID           int             `json:"pid"`
	SocketPath    string          `json:"socket_path"`
	LockPath      string          `json:"lock_path"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	Served        int64           `json:"served"`
	Failed        int64           `json:"failed"`
	Rejected      int64           `json:"rejected"`
	LastRequestID string          `json:"last_request_id,omitempty"`
	LastOutcome   history.Outcome `json:"last_outcome,omitempty"`
	LastAt        *time.Time      `json:"last_at,omitempty"`
}

// Status returns counters and the most recent request.
func (d *Daemon) Status() Status {
	status := Status{
		State:      d.State().String(),
		PID:        os.Getpid(),
		SocketPath: d.cfg.Daemon.SocketPath,
		LockPath:   d.cfg.Daemon.LockPath,
		Served:     d.served.Load(),
		Failed:     d.failed.Load(),
		Rejected:   d.rejected.Load(),
	}
	if started := d.startedAt.Load(); started != 0 {
		t := time.Unix(0, started)
		status.StartedAt = &t
	}
	d.mu.Lock()
	last := d.last
	d.mu.Unlock()
	if last.id != "" {
		status.LastRequestID = last.id
		status.LastOutcome = last.outcome
		at := last.at
		status.LastAt = &at
	}
	return status
}
