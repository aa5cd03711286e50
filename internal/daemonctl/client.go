package daemonctl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"barcoded/internal/protocol"
)

// ErrDaemonNotRunning indicates nothing is listening on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// DefaultTimeout bounds a single command round trip.
const DefaultTimeout = 10 * time.Second

// Send delivers one command line and waits until the daemon closes the
// connection, which it does after handling the command. The protocol has no
// reply, so success means only that the command was delivered.
func Send(socketPath, line string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		if isDaemonUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
		}
		return fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	if _, err := io.Copy(io.Discard, conn); err != nil && !errors.Is(err, syscall.ECONNRESET) {
		return fmt.Errorf("wait for daemon: %w", err)
	}
	return nil
}

// Render sends a render request.
func Render(socketPath string, req protocol.Request, timeout time.Duration) error {
	line, err := protocol.Format(req)
	if err != nil {
		return err
	}
	return Send(socketPath, line, timeout)
}

// Probe reports whether a daemon accepts connections on socketPath. A
// missing socket or refused connection is not an error.
func Probe(socketPath string) (bool, error) {
	conn, err := net.DialTimeout("unix", socketPath, time.Second)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, nil
		}
		return false, err
	}
	_ = conn.Close()
	return true, nil
}

// WaitForSocket polls until the daemon accepts connections.
func WaitForSocket(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		ok, err := Probe(socketPath)
		if ok {
			return nil
		}
		lastErr = err
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return fmt.Errorf("daemon failed to start: %w", lastErr)
}

// WaitForShutdown polls until the socket file is gone.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(socketPath); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop: socket %s still present", socketPath)
}

// Stop sends the shutdown command and waits for the socket to disappear.
func Stop(socketPath string, timeout time.Duration) error {
	running, err := Probe(socketPath)
	if err != nil {
		return err
	}
	if !running {
		return ErrDaemonNotRunning
	}
	if err := Send(socketPath, protocol.ShutdownCommand, timeout); err != nil {
		return err
	}
	return WaitForShutdown(socketPath, timeout)
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
