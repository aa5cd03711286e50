package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDaemon() error {
	socket := strings.TrimSpace(c.Daemon.SocketPath)
	if socket == "" {
		return errors.New("daemon.socket_path must be set")
	}
	if len(socket) > maxSocketPathLen {
		return fmt.Errorf("daemon.socket_path is %d bytes; unix sockets allow at most %d", len(socket), maxSocketPathLen)
	}
	if c.Daemon.SocketMode < 0 || c.Daemon.SocketMode > 0o777 {
		return fmt.Errorf("daemon.socket_mode %#o is not a valid permission mode", c.Daemon.SocketMode)
	}
	if c.Daemon.ReadBuffer <= 0 {
		return errors.New("daemon.read_buffer must be positive")
	}
	if c.Daemon.ReadTimeout < 0 {
		return errors.New("daemon.read_timeout must be >= 0")
	}
	if c.Daemon.ThrottleMS < 0 {
		return errors.New("daemon.throttle_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.module_width":  c.Render.ModuleWidth,
		"render.bar_height":    c.Render.BarHeight,
		"render.canvas_width":  c.Render.CanvasWidth,
		"render.canvas_height": c.Render.CanvasHeight,
	}); err != nil {
		return err
	}
	if c.Render.FontSize <= 0 {
		return errors.New("render.font_size must be positive")
	}
	if c.Render.QuietZone < 0 || c.Render.TextGap < 0 {
		return errors.New("render.quiet_zone and render.text_gap must be >= 0")
	}
	if c.Render.OffsetX < 0 || c.Render.OffsetY < 0 {
		return errors.New("render.offset_x and render.offset_y must be >= 0")
	}
	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return errors.New("render.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
