package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gofrs/flock"

	"barcoded/internal/logging"
)

// endpoint owns the socket file, its listener, the instance lock and the
// pid file.
type endpoint struct {
	path     string
	lockPath string
	pidPath  string
	listener net.Listener
	lock     *flock.Flock
	logger   *slog.Logger

	once     sync.Once
	closeErr error
}

func openEndpoint(path, lockPath, pidPath string, mode os.FileMode, logger *slog.Logger) (*endpoint, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure lock directory: %v", ErrBind, err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock %s: %v", ErrBind, lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w (%s)", ErrBind, ErrAlreadyRunning, lockPath)
	}

	if err := os.Remove(path); err == nil {
		logger.Info("removed stale socket", logging.String("socket", path))
	} else if !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "stale socket removal failed", "stale_socket_cleanup_failed",
			logging.String("socket", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file at the socket path by hand"),
			logging.String(logging.FieldImpact, "binding the socket will likely fail"),
		)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: listen on %s: %v", ErrBind, path, err)
	}
	if mode != 0 {
		if err := os.Chmod(path, mode); err != nil {
			_ = listener.Close()
			_ = os.Remove(path)
			_ = lock.Unlock()
			return nil, fmt.Errorf("%w: chmod %s: %v", ErrBind, path, err)
		}
	}

	if pidPath != "" {
		if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
			logging.WarnWithContext(logger, "failed to write pid file", "pid_file_failed",
				logging.String("pid_file", pidPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "barcoded status cannot report the daemon pid"),
			)
			pidPath = ""
		}
	}

	return &endpoint{
		path:     path,
		lockPath: lockPath,
		pidPath:  pidPath,
		listener: listener,
		lock:     lock,
		logger:   logger,
	}, nil
}

// Accept waits for the next client connection.
func (e *endpoint) Accept() (net.Conn, error) {
	return e.listener.Accept()
}

// Close stops listening, removes the socket and pid files, then releases
// the lock.
// Only the first call does any work.
func (e *endpoint) Close() error {
	e.once.Do(func() {
		if err := e.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			e.logger.Debug("listener close failed", logging.Error(err))
		}
		if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			teardown := &SocketTeardownError{Path: e.path, Err: err}
			logging.WarnWithContext(e.logger, "failed to remove socket", "socket_cleanup_failed",
				logging.String("socket", e.path),
				logging.Error(teardown),
				logging.String(logging.FieldErrorHint, "remove the socket file manually before restarting"),
				logging.String(logging.FieldImpact, "stale socket is replaced on next start"),
			)
			e.closeErr = teardown
		}
		if e.pidPath != "" {
			if err := os.Remove(e.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				e.logger.Debug("pid file removal failed", logging.String("pid_file", e.pidPath), logging.Error(err))
			}
		}
		if err := e.lock.Unlock(); err != nil {
			logging.WarnWithContext(e.logger, "failed to release daemon lock", "lock_release_failed",
				logging.String("lock", e.lockPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
			)
		}
	})
	return e.closeErr
}
