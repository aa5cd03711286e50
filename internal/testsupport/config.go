package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"barcoded/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The socket lives in a short temp directory so its path stays under the
// sun_path limit regardless of the test name.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	sockDir, err := os.MkdirTemp("", "bcd-")
	if err != nil {
		t.Fatalf("mkdir socket dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(sockDir) })

	cfgVal := config.Default()
	cfgVal.Daemon.SocketPath = filepath.Join(sockDir, "barcoded.sock")
	cfgVal.Daemon.LockPath = filepath.Join(sockDir, "barcoded.lock")
	cfgVal.Daemon.ThrottleMS = 0
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Logging.File = ""
	cfgVal.API.Bind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistoryDisabled turns off the request journal.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithThrottle sets the post-connection delay in milliseconds.
func WithThrottle(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.ThrottleMS = ms
	}
}

// OutputDir creates and returns a directory for render artifacts.
func OutputDir(t testing.TB, cfg *config.Config) string {
	t.Helper()
	dir := filepath.Join(BaseDir(cfg), "out")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}
	return dir
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.History.Path))
}
