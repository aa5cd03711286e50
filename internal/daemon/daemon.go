package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"barcoded/internal/config"
	"barcoded/internal/history"
	"barcoded/internal/logging"
	"barcoded/internal/pipeline"
	"barcoded/internal/protocol"
)

// Dispatcher runs one render request to completion.
type Dispatcher interface {
	Run(ctx context.Context, req protocol.Request) pipeline.Result
}

// HistoryReader is the read side of the journal used by the status API.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Record, error)
	Summary(ctx context.Context) (history.Summary, error)
}

// Daemon serves render commands on a Unix socket.
type Daemon struct {
	cfg        *config.Config
	dispatcher Dispatcher
	journal    HistoryReader
	logger     *slog.Logger

	state     atomic.Int32
	startedAt atomic.Int64
	served    atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64

	mu   sync.Mutex
	last lastRequest
}

type lastRequest struct {
	id      string
	outcome history.Outcome
	at      time.Time
}

// New constructs a daemon. journal may be nil when history is disabled.
func New(cfg *config.Config, dispatcher Dispatcher, journal HistoryReader, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || dispatcher == nil {
		return nil, errors.New("daemon requires config and dispatcher")
	}
	d := &Daemon{
		cfg:        cfg,
		dispatcher: dispatcher,
		journal:    journal,
		logger:     logging.NewComponentLogger(logger, "daemon"),
	}
	d.state.Store(int32(StateStopped))
	return d, nil
}

// Serve binds the socket and runs the accept loop until a shutdown command
// arrives or ctx is cancelled, in which case it returns nil. Bind failures
// return ErrBind. A panic in the loop is recovered and returned as
// ErrDaemonFault. The socket is removed before Serve returns in every case.
func (d *Daemon) Serve(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d.setState(StateStarting)

	ep, err := openEndpoint(d.cfg.Daemon.SocketPath, d.cfg.Daemon.LockPath, d.cfg.PIDPath(), os.FileMode(d.cfg.Daemon.SocketMode), d.logger)
	if err != nil {
		d.setState(StateStopped)
		logging.ErrorWithContext(d.logger, "socket bind failed", "socket_bind_failed",
			logging.String("socket", d.cfg.Daemon.SocketPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the socket directory permissions or stop the other daemon"),
		)
		return err
	}
	d.startedAt.Store(time.Now().UnixNano())

	api, apiErr := newAPIServer(d.cfg, d, d.logger)
	if apiErr == nil {
		apiErr = api.start()
	}
	if apiErr != nil {
		logging.WarnWithContext(d.logger, "status api unavailable", "api_start_failed",
			logging.String("bind", d.cfg.API.Bind),
			logging.Error(apiErr),
			logging.String(logging.FieldErrorHint, "fix api.bind or free the port"),
			logging.String(logging.FieldImpact, "socket commands still served; HTTP status disabled"),
		)
		api = nil
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			logging.ErrorWithContext(d.logger, "daemon loop panicked", "daemon_fault",
				logging.Any("panic", recovered),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report the last command sent to the socket"),
			)
			err = fmt.Errorf("%w: %v", ErrDaemonFault, recovered)
		}
		d.setState(StateShuttingDown)
		api.stop()
		_ = ep.Close()
		d.setState(StateStopped)
		d.logger.Info("barcode daemon stopped", logging.String("socket", ep.path))
	}()

	stopWatch := context.AfterFunc(ctx, func() { _ = ep.Close() })
	defer stopWatch()

	d.logger.Info("barcode daemon listening",
		logging.String("socket", ep.path),
		logging.String("lock", ep.lockPath),
		logging.Int("read_buffer", d.cfg.Daemon.ReadBuffer),
	)

	for {
		d.setState(StateListening)
		conn, acceptErr := ep.Accept()
		if acceptErr != nil {
			if ctx.Err() != nil {
				d.logger.Info("shutdown signal received", logging.String("reason", context.Cause(ctx).Error()))
				return nil
			}
			if errors.Is(acceptErr, net.ErrClosed) {
				return fmt.Errorf("%w: listener closed unexpectedly", ErrDaemonFault)
			}
			logging.WarnWithContext(d.logger, "accept failed", "accept_failed",
				logging.Error(acceptErr),
				logging.String(logging.FieldErrorHint, "check socket permissions"),
				logging.String(logging.FieldImpact, "one client connection dropped"),
			)
			d.throttle(ctx)
			continue
		}

		if shutdown := d.handle(ctx, conn); shutdown {
			d.logger.Info("shutdown command received")
			return nil
		}
		d.setState(StateClosing)
		d.throttle(ctx)
	}
}

// handle reads one command from conn and dispatches it. It reports whether
// the command asked the daemon to stop. conn is always closed.
func (d *Daemon) handle(ctx context.Context, conn net.Conn) bool {
	defer conn.Close()

	d.setState(StateReading)
	if timeout := d.cfg.ReadTimeout(); timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
	}

	// Cancellation unblocks a read from a client that never writes.
	stopRead := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	buf := make([]byte, d.cfg.Daemon.ReadBuffer)
	n, err := conn.Read(buf)
	stopRead()
	if err != nil && ctx.Err() != nil {
		d.logger.Info("pending read abandoned for shutdown")
		return false
	}
	if err != nil && !errors.Is(err, io.EOF) {
		d.rejected.Add(1)
		logging.WarnWithContext(d.logger, "command read failed", "read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "client must send one line before closing"),
			logging.String(logging.FieldImpact, "connection dropped without processing"),
		)
		return false
	}
	if n == len(buf) {
		logging.WarnWithContext(d.logger, "command filled the read buffer and may be truncated", "command_truncated",
			logging.Int("read_buffer", len(buf)),
			logging.String(logging.FieldErrorHint, "keep commands shorter than the read buffer"),
			logging.String(logging.FieldImpact, "data or name may be cut off"),
		)
	}

	line := protocol.Decode(buf[:n])
	cmd, err := protocol.Parse(line)
	if err != nil {
		d.rejected.Add(1)
		logging.WarnWithContext(d.logger, "malformed command ignored", "malformed_command",
			logging.String("line", line),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "send dir,data[,name] or \""+protocol.ShutdownCommand+"\""),
			logging.String(logging.FieldImpact, "no artifact written"),
		)
		return false
	}

	switch cmd.Kind {
	case protocol.KindNone:
		d.logger.Debug("empty command ignored")
		return false
	case protocol.KindShutdown:
		return true
	}

	d.setState(StateDispatching)
	result := d.dispatcher.Run(context.WithoutCancel(ctx), cmd.Request)
	d.served.Add(1)
	if !result.OK() {
		d.failed.Add(1)
	}
	d.mu.Lock()
	d.last = lastRequest{id: result.RequestID, outcome: result.Outcome, at: time.Now()}
	d.mu.Unlock()
	return false
}

func (d *Daemon) throttle(ctx context.Context) {
	delay := d.cfg.Throttle()
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (d *Daemon) setState(s State) {
	d.state.Store(int32(s))
}

// State returns the loop's current state.
func (d *Daemon) State() State {
	return State(d.state.Load())
}
