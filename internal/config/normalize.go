package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	if err := c.normalizeRender(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if value, ok := os.LookupEnv("BARCODED_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.API.Token = value
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	return nil
}

func (c *Config) normalizeDaemon() error {
	var err error
	if value, ok := os.LookupEnv("BARCODED_SOCKET"); ok && strings.TrimSpace(value) != "" {
		c.Daemon.SocketPath = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Daemon.SocketPath) == "" {
		c.Daemon.SocketPath = defaultSocketPath
	}
	if c.Daemon.SocketPath, err = expandPath(c.Daemon.SocketPath); err != nil {
		return fmt.Errorf("daemon.socket_path: %w", err)
	}
	if strings.TrimSpace(c.Daemon.LockPath) == "" {
		c.Daemon.LockPath = c.Daemon.SocketPath + ".lock"
	}
	if c.Daemon.LockPath, err = expandPath(c.Daemon.LockPath); err != nil {
		return fmt.Errorf("daemon.lock_path: %w", err)
	}
	if c.Daemon.ReadBuffer == 0 {
		c.Daemon.ReadBuffer = defaultReadBuffer
	}
	return nil
}

func (c *Config) normalizeRender() error {
	if value, ok := os.LookupEnv("BARCODED_FONT"); ok && strings.TrimSpace(value) != "" {
		c.Render.FontPath = strings.TrimSpace(value)
	}
	c.Render.FontPath = strings.TrimSpace(c.Render.FontPath)
	if c.Render.FontPath != "" {
		var err error
		if c.Render.FontPath, err = expandPath(c.Render.FontPath); err != nil {
			return fmt.Errorf("render.font_path: %w", err)
		}
	}
	if c.Render.FontSize == 0 {
		c.Render.FontSize = defaultFontSize
	}
	if c.Render.JPEGQuality == 0 {
		c.Render.JPEGQuality = defaultJPEGQuality
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
