package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName = "barcoded"

	defaultSocketPath    = "/tmp/barcode_daemon_socket"
	defaultReadBuffer    = 1024
	defaultThrottleMS    = 100
	defaultLogFile       = "/tmp/barcode_daemon.log"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultFontName      = "DejaVuSans-Bold.ttf"
	defaultFontSize      = 18
	defaultModuleWidth   = 2
	defaultBarHeight     = 150
	defaultQuietZone     = 10
	defaultTextGap       = 6
	defaultCanvasWidth   = 474
	defaultCanvasHeight  = 260
	defaultOffsetX       = 10
	defaultOffsetY       = 10
	defaultJPEGQuality   = 90
	defaultHistoryDays   = 30
	defaultHistoryDBName = "history.db"

	// Linux sun_path is 108 bytes including the trailing NUL.
	maxSocketPathLen = 107
)

// DefaultFontName is the bundled font file looked up next to the executable
// and in the working directory.
const DefaultFontName = defaultFontName

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Daemon: Daemon{
			SocketPath: defaultSocketPath,
			ReadBuffer: defaultReadBuffer,
			ThrottleMS: defaultThrottleMS,
		},
		Render: Render{
			FontSize:     defaultFontSize,
			ModuleWidth:  defaultModuleWidth,
			BarHeight:    defaultBarHeight,
			QuietZone:    defaultQuietZone,
			TextGap:      defaultTextGap,
			CanvasWidth:  defaultCanvasWidth,
			CanvasHeight: defaultCanvasHeight,
			OffsetX:      defaultOffsetX,
			OffsetY:      defaultOffsetY,
			JPEGQuality:  defaultJPEGQuality,
		},
		History: History{
			Enabled:       true,
			Path:          defaultHistoryPath(),
			RetentionDays: defaultHistoryDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			File:   defaultLogFile,
		},
	}
}

func defaultHistoryPath() string {
	return filepath.Join(xdg.StateHome, appName, defaultHistoryDBName)
}
