package preflight

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"barcoded/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSocketDir(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "barcoded.sock")

	result := CheckSocketDir(sock)
	if !result.Passed || !strings.Contains(result.Detail, "writable") {
		t.Fatalf("fresh socket dir = %+v", result)
	}

	if err := os.WriteFile(sock, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result = CheckSocketDir(sock)
	if !result.Passed || !strings.Contains(result.Detail, "file present") {
		t.Fatalf("stale file = %+v", result)
	}

	missing := CheckSocketDir(filepath.Join(dir, "missing", "barcoded.sock"))
	if missing.Passed {
		t.Fatal("expected failure when socket directory is missing")
	}
}

func TestCheckFont(t *testing.T) {
	font := filepath.Join(t.TempDir(), "Custom.ttf")
	if err := os.WriteFile(font, []byte("ttf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckFont(font); !result.Passed || !strings.Contains(result.Detail, font) {
		t.Fatalf("existing font = %+v", result)
	}

	missing := filepath.Join(t.TempDir(), "Missing.ttf")
	result := CheckFont(missing)
	if result.Passed || !strings.Contains(result.Detail, "built-in face") {
		t.Fatalf("missing font = %+v", result)
	}
}

func TestCheckHistoryPath(t *testing.T) {
	base := t.TempDir()
	result := CheckHistoryPath(filepath.Join(base, "not", "yet", "history.db"))
	if !result.Passed {
		t.Fatalf("expected pass for creatable path, got %s", result.Detail)
	}
}

func TestCheckAPIBind(t *testing.T) {
	if result := CheckAPIBind(""); !result.Passed || result.Detail != "disabled" {
		t.Fatalf("disabled = %+v", result)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("tcp listen unavailable: %v", err)
	}
	defer ln.Close()
	if result := CheckAPIBind(ln.Addr().String()); result.Passed {
		t.Fatalf("expected busy port to fail, got %+v", result)
	}
	if result := CheckAPIBind("127.0.0.1:0"); !result.Passed {
		t.Fatalf("expected ephemeral port to pass, got %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Daemon.SocketPath = filepath.Join(dir, "barcoded.sock")
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.API.Bind = "127.0.0.1:0"

	results := RunAll(&cfg, false)
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	if len(RunAll(&cfg, true)) != 3 {
		t.Fatal("api check should be skipped while the daemon runs")
	}

	cfg.History.Enabled = false
	cfg.API.Bind = ""
	if len(RunAll(&cfg, false)) != 2 {
		t.Fatal("expected only socket and font checks")
	}
	if RunAll(nil, false) != nil {
		t.Fatal("nil config should yield no results")
	}
}
