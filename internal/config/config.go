package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Daemon contains socket lifecycle and connection handling settings.
type Daemon struct {
	SocketPath string `toml:"socket_path"`
	// SocketMode is applied to the socket file after bind. Zero keeps the
	// mode produced by the process umask.
	SocketMode  int    `toml:"socket_mode"`
	LockPath    string `toml:"lock_path"`
	ReadBuffer  int    `toml:"read_buffer"`
	ReadTimeout int    `toml:"read_timeout"`
	ThrottleMS  int    `toml:"throttle_ms"`
}

// Render contains symbol drawing and canvas composition settings.
type Render struct {
	FontPath     string  `toml:"font_path"`
	FontSize     float64 `toml:"font_size"`
	ModuleWidth  int     `toml:"module_width"`
	BarHeight    int     `toml:"bar_height"`
	QuietZone    int     `toml:"quiet_zone"`
	TextGap      int     `toml:"text_gap"`
	CanvasWidth  int     `toml:"canvas_width"`
	CanvasHeight int     `toml:"canvas_height"`
	OffsetX      int     `toml:"offset_x"`
	OffsetY      int     `toml:"offset_y"`
	JPEGQuality  int     `toml:"jpeg_quality"`
}

// History contains configuration for the request journal.
type History struct {
	Enabled       bool   `toml:"enabled"`
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// API contains configuration for the optional read-only HTTP status API.
type API struct {
	Bind string `toml:"bind"`
	// Token, when set, must be presented as a bearer token.
	Token string `toml:"token"`
}

// Config encapsulates all configuration values for barcoded.
//
// Configuration sections by subsystem:
//   - Daemon: socket path, lock file, read buffer and throttle
//   - Render: font, bar geometry, canvas size, paste offset, JPEG quality
//   - History: SQLite request journal
//   - Logging: log format, level, and file
//   - API: optional HTTP status endpoint
type Config struct {
	Daemon  Daemon  `toml:"daemon"`
	Render  Render  `toml:"render"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
	API     API     `toml:"api"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(filepath.Join(xdg.ConfigHome, appName, "config.toml"))
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(appName + ".toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes into. Target
// directories of render requests are never created here; a missing target is
// a request failure.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Daemon.SocketPath), filepath.Dir(c.Daemon.LockPath)}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		dirs = append(dirs, filepath.Dir(file))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ReadTimeout returns the per-connection read deadline, zero when disabled.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Daemon.ReadTimeout) * time.Second
}

// PIDPath returns the file the running daemon writes its process id to. It
// sits next to the lock file.
func (c *Config) PIDPath() string {
	return strings.TrimSuffix(c.Daemon.LockPath, ".lock") + ".pid"
}

// RetentionWindow returns how long history rows are kept, zero for forever.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// Throttle returns the pause inserted after each connection is closed.
func (c *Config) Throttle() time.Duration {
	return time.Duration(c.Daemon.ThrottleMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
