package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"barcoded/internal/compose"
	"barcoded/internal/config"
	"barcoded/internal/daemon"
	"barcoded/internal/history"
	"barcoded/internal/logging"
	"barcoded/internal/pipeline"
	"barcoded/internal/preflight"
	"barcoded/internal/render"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the barcode daemon and blocks until it stops. It returns nil
// after a shutdown command or SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	logger, closer, err := logging.OpenFromConfig(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	logRuntimeSnapshot(logger, cfg)

	store := openHistory(signalCtx, cfg, logger)
	defer store.Close()

	renderer := render.New(render.OptionsFromConfig(cfg, logger), logger)
	compositor := compose.New(compose.OptionsFromConfig(cfg), logger)

	var (
		journal pipeline.Journal
		reader  daemon.HistoryReader
	)
	if store != nil {
		journal = store
		reader = store
	}
	p := pipeline.New(renderer, compositor, journal, logger)

	d, err := daemon.New(cfg, p, reader, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	return d.Serve(signalCtx)
}

// openHistory opens the journal and prunes expired rows. A journal that
// cannot be opened is logged and the daemon runs without one.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logging.WarnWithContext(logger, "history journal unavailable", "history_open_failed",
			logging.String("path", cfg.History.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path or delete an incompatible journal"),
			logging.String(logging.FieldImpact, "requests are served but not recorded"),
		)
		return nil
	}
	if window := cfg.RetentionWindow(); window > 0 {
		removed, err := store.Prune(ctx, window)
		if err != nil {
			logger.Warn("history prune failed", logging.Error(err))
		} else if removed > 0 {
			logger.Info("history pruned",
				logging.Int64("removed", removed),
				logging.Int("retention_days", cfg.History.RetentionDays),
			)
		}
	}
	return store
}

func logRuntimeSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	font := preflight.CheckFont(cfg.Render.FontPath)
	logger.Info("runtime snapshot",
		logging.String(logging.FieldEventType, "runtime_snapshot"),
		logging.Int("pid", os.Getpid()),
		logging.String("socket", cfg.Daemon.SocketPath),
		logging.String("lock", cfg.Daemon.LockPath),
		logging.Bool("font_found", font.Passed),
		logging.String("font", font.Detail),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.String("history_path", cfg.History.Path),
		logging.String("api_bind", cfg.API.Bind),
		logging.Duration("throttle", cfg.Throttle()),
		logging.Duration("read_timeout", cfg.ReadTimeout()),
	)
}
