package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"barcoded/internal/config"
	"barcoded/internal/daemonctl"
	"barcoded/internal/daemonrun"
	"barcoded/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	socketPath string
	configPath string
	outDir     string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		socketPath: cfg.Daemon.SocketPath,
		configPath: configPath,
		outDir:     testsupport.OutputDir(t, cfg),
	}
}

type runningDaemon struct {
	done chan struct{}
	err  error
}

// startDaemon runs the daemon in-process and stops it when the test ends.
func (env *cliTestEnv) startDaemon(t *testing.T) *runningDaemon {
	t.Helper()
	requireUnixSockets(t)

	ctx, cancel := context.WithCancel(context.Background())
	r := &runningDaemon{done: make(chan struct{})}
	go func() {
		defer close(r.done)
		r.err = daemonrun.Run(ctx, env.cfg, daemonrun.Options{LogLevel: "error"})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
		}
	})

	if err := daemonctl.WaitForSocket(env.socketPath, 5*time.Second); err != nil {
		t.Fatalf("daemon did not come up: %v", err)
	}
	return r
}

func requireUnixSockets(t *testing.T) {
	t.Helper()
	dir, err := os.MkdirTemp("", "bcd-probe-")
	if err != nil {
		t.Fatalf("mkdir probe dir: %v", err)
	}
	defer os.RemoveAll(dir)
	ln, err := net.Listen("unix", filepath.Join(dir, "probe.sock"))
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	ln.Close()
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
