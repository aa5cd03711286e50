package preflight

import (
	"barcoded/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to cfg. The API bind check is skipped
// when daemonRunning is true because the daemon owns the port.
func RunAll(cfg *config.Config, daemonRunning bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckSocketDir(cfg.Daemon.SocketPath),
		CheckFont(cfg.Render.FontPath),
	}
	if cfg.History.Enabled {
		results = append(results, CheckHistoryPath(cfg.History.Path))
	}
	if cfg.API.Bind != "" && !daemonRunning {
		results = append(results, CheckAPIBind(cfg.API.Bind))
	}
	return results
}
