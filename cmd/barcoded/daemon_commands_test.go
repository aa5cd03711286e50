package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"barcoded/internal/daemonctl"
	"barcoded/internal/history"
	"barcoded/internal/preflight"
	"barcoded/internal/protocol"
	"barcoded/internal/testsupport"
)

func TestRenderHistoryStop(t *testing.T) {
	env := setupCLITestEnv(t)
	d := env.startDaemon(t)

	out, _, err := runCLI(t, []string{"render", env.outDir, "ABC-123", "label"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, out, "Sent render request")

	artifact := filepath.Join(env.outDir, "label.jpg")
	waitFor(t, "artifact", func() bool {
		_, err := os.Stat(artifact)
		return err == nil
	})

	var listing string
	waitFor(t, "history row", func() bool {
		listing, _, err = runCLI(t, []string{"history"}, env.socketPath, env.configPath)
		return err == nil && strings.Contains(listing, "success")
	})
	requireContains(t, listing, "ABC-123")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running")
	requireContains(t, out, "== History ==")

	out, _, err = runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon stopped")

	select {
	case <-d.done:
		if d.err != nil {
			t.Fatalf("daemon returned %v", d.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not exit after stop")
	}
	if _, err := os.Stat(env.socketPath); !os.IsNotExist(err) {
		t.Fatalf("socket still present after stop: %v", err)
	}
}

func TestCommandsWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")

	_, _, err = runCLI(t, []string{"render", env.outDir, "ABC"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected render to fail without a daemon")
	}
	requireContains(t, err.Error(), "barcoded start")

	out, _, err = runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No requests recorded")
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistoryDisabled())
	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "History journal is disabled")
}

func TestRenderRejectsCommaInData(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"render", env.outDir, "A,B", "x"}, env.socketPath, env.configPath)
	if !errors.Is(err, protocol.ErrUnencodable) {
		t.Fatalf("render error = %v, want ErrUnencodable", err)
	}
}

func TestRenderRejectsWrongArgCount(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"render", env.outDir}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error for missing DATA argument")
	}
}

func TestStatusLines(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		snap daemonctl.Snapshot
		want []string
	}{
		{
			name: "stopped without history",
			snap: daemonctl.Snapshot{SocketPath: "/run/b.sock"},
			want: []string{"[ERROR] Not running", "/run/b.sock", "[INFO] Disabled", "[INFO] no"},
		},
		{
			name: "running with failures",
			snap: daemonctl.Snapshot{
				Running:        true,
				PID:            42,
				LockHeld:       true,
				HistoryEnabled: true,
				History:        &history.Summary{Total: 3, Succeeded: 2, Failed: 1, LastAt: &last},
				Checks:         []preflight.Result{{Name: "Font", Passed: false, Detail: "builtin"}},
			},
			want: []string{"[OK] Running (pid 42)", "[WARN] 1", "[ERROR] builtin", "[INFO] yes"},
		},
		{
			name: "lock held without listener",
			snap: daemonctl.Snapshot{LockHeld: true, HistoryEnabled: true, HistoryError: "database is locked"},
			want: []string{"[WARN] yes", "[WARN] database is locked"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined := strings.Join(statusLines(&tt.snap, false), "\n")
			for _, want := range tt.want {
				requireContains(t, joined, want)
			}
		})
	}
}
