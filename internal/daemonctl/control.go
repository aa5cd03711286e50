package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"barcoded/internal/config"
	"barcoded/internal/history"
	"barcoded/internal/preflight"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// Launch starts a detached barcoded daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// EnsureStarted launches the daemon unless one already answers on the socket.
func EnsureStarted(cfg *config.Config, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	running, err := Probe(cfg.Daemon.SocketPath)
	if err != nil {
		return StartResult{}, err
	}
	if running {
		pid, _ := ReadPID(cfg.PIDPath())
		return StartResult{State: StartStateAlreadyRunning, PID: pid}, nil
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	if err := WaitForSocket(cfg.Daemon.SocketPath, waitTimeout); err != nil {
		return StartResult{}, err
	}
	pid, _ := ReadPID(cfg.PIDPath())
	return StartResult{State: StartStateStarted, PID: pid}, nil
}

// ReadPID returns the pid recorded by a running daemon.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %q", pidPath)
	}
	return pid, nil
}

// LockHeld reports whether some process holds the daemon lock.
func LockHeld(lockPath string) (bool, error) {
	if _, err := os.Stat(lockPath); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

// Snapshot is everything `barcoded status` reports.
type Snapshot struct {
	Running        bool
	PID            int
	SocketPath     string
	LockPath       string
	LockHeld       bool
	HistoryEnabled bool
	History        *history.Summary
	HistoryError   string
	Checks         []preflight.Result
}

// BuildStatusSnapshot probes the socket, inspects the lock, summarizes the
// journal and runs preflight checks. It never fails on an unreachable daemon.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{
		SocketPath:     cfg.Daemon.SocketPath,
		LockPath:       cfg.Daemon.LockPath,
		HistoryEnabled: cfg.History.Enabled,
	}

	running, err := Probe(cfg.Daemon.SocketPath)
	if err != nil {
		return nil, err
	}
	snap.Running = running
	if running {
		if pid, err := ReadPID(cfg.PIDPath()); err == nil {
			snap.PID = pid
		}
	}
	if held, err := LockHeld(cfg.Daemon.LockPath); err == nil {
		snap.LockHeld = held
	}

	if cfg.History.Enabled {
		if _, statErr := os.Stat(cfg.History.Path); statErr == nil {
			queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			store, openErr := history.Open(cfg.History.Path)
			if openErr != nil {
				snap.HistoryError = openErr.Error()
			} else {
				summary, sumErr := store.Summary(queryCtx)
				_ = store.Close()
				if sumErr != nil {
					snap.HistoryError = sumErr.Error()
				} else {
					snap.History = &summary
				}
			}
		}
	}

	snap.Checks = preflight.RunAll(cfg, running)
	return snap, nil
}
