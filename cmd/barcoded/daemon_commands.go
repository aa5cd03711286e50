package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"barcoded/internal/daemonctl"
	"barcoded/internal/history"
	"barcoded/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the barcoded daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(cfg, exe, daemonLaunchOptions(ctx, startLogLevel), 10*time.Second)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started"+pidSuffix(result.PID))
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running"+pidSuffix(result.PID))
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Log level for the launched daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Send the shutdown command and wait for the daemon to exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			socket, err := ctx.socketPath()
			if err != nil {
				return err
			}
			err = daemonctl.Stop(socket, 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, history and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range statusLines(snap, colorize) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func statusLines(snap *daemonctl.Snapshot, colorize bool) []string {
	var lines []string

	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if snap.Running {
		lines = append(lines, renderStatusLine("Barcoded", statusOK, "Running"+pidSuffix(snap.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Barcoded", statusError, "Not running", colorize))
	}
	lines = append(lines, renderStatusLine("Socket", statusInfo, snap.SocketPath, colorize))
	lockKind := statusInfo
	if snap.LockHeld && !snap.Running {
		// A held lock with no listener means a daemon is starting or stuck.
		lockKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Lock held", lockKind, yesNo(snap.LockHeld), colorize))
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("History", colorize)...)
	lines = append(lines, historyLines(snap, colorize)...)
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	lines = append(lines, checkLines(snap.Checks, colorize)...)
	return lines
}

func historyLines(snap *daemonctl.Snapshot, colorize bool) []string {
	switch {
	case !snap.HistoryEnabled:
		return []string{renderStatusLine("Journal", statusInfo, "Disabled", colorize)}
	case snap.HistoryError != "":
		return []string{renderStatusLine("Journal", statusWarn, snap.HistoryError, colorize)}
	case snap.History == nil:
		return []string{renderStatusLine("Journal", statusInfo, "No requests recorded", colorize)}
	}
	summary := snap.History
	lines := []string{
		renderStatusLine("Requests", statusInfo, strconv.Itoa(summary.Total), colorize),
		renderStatusLine("Succeeded", statusOK, strconv.Itoa(summary.Succeeded), colorize),
		renderStatusLine("Failed", failedKind(*summary), strconv.Itoa(summary.Failed), colorize),
	}
	if summary.LastAt != nil {
		lines = append(lines, renderStatusLine("Last request", statusInfo, summary.LastAt.Local().Format(time.DateTime), colorize))
	}
	return lines
}

func failedKind(summary history.Summary) statusKind {
	if summary.Failed > 0 {
		return statusWarn
	}
	return statusOK
}

func checkLines(checks []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(checks))
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}

func pidSuffix(pid int) string {
	if pid <= 0 {
		return ""
	}
	return fmt.Sprintf(" (pid %d)", pid)
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		SocketPath: ctx.socketOverride(),
		ConfigPath: ctx.configPath(),
		LogLevel:   logLevel,
	}
}
