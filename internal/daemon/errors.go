package daemon

import (
	"errors"
	"fmt"
)

var (
	// ErrBind reports that the socket endpoint could not be created.
	ErrBind = errors.New("socket bind failed")
	// ErrAlreadyRunning reports that another daemon holds the endpoint lock.
	ErrAlreadyRunning = errors.New("another barcoded daemon holds the socket lock")
	// ErrDaemonFault reports an unexpected failure inside the serve loop.
	ErrDaemonFault = errors.New("daemon fault")
)

// SocketTeardownError describes a failure to remove the socket file during
// shutdown. It is logged, never returned from Serve.
type SocketTeardownError struct {
	Path string
	Err  error
}

func (e *SocketTeardownError) Error() string {
	return fmt.Sprintf("remove socket %s: %v", e.Path, e.Err)
}

func (e *SocketTeardownError) Unwrap() error { return e.Err }
