package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"barcoded/internal/config"
	"barcoded/internal/fileutil"
	"barcoded/internal/logging"
)

const artifactMode os.FileMode = 0o644

// Options sets the canvas geometry and encoder quality.
type Options struct {
	Width   int
	Height  int
	OffsetX int
	OffsetY int
	Quality int
}

// OptionsFromConfig maps the render section of cfg to compositor options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return Options{
		Width:   cfg.Render.CanvasWidth,
		Height:  cfg.Render.CanvasHeight,
		OffsetX: cfg.Render.OffsetX,
		OffsetY: cfg.Render.OffsetY,
		Quality: cfg.Render.JPEGQuality,
	}
}

// Compositor writes symbols onto a canvas.
type Compositor struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Compositor. Zero-valued options fall back to the
// configuration defaults.
func New(opts Options, logger *slog.Logger) *Compositor {
	def := config.Default().Render
	if opts.Width <= 0 {
		opts.Width = def.CanvasWidth
	}
	if opts.Height <= 0 {
		opts.Height = def.CanvasHeight
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		opts.Quality = def.JPEGQuality
	}
	return &Compositor{opts: opts, logger: logging.NewComponentLogger(logger, "compose")}
}

// Canvas returns a fresh white canvas with symbol pasted at the configured
// offset.
func (c *Compositor) Canvas(symbol image.Image) *image.NRGBA {
	canvas := imaging.New(c.opts.Width, c.opts.Height, color.White)
	return imaging.Paste(canvas, symbol, image.Pt(c.opts.OffsetX, c.opts.OffsetY))
}

// Composite pastes symbol onto a new canvas and writes it to path as JPEG.
// An existing file at path is replaced.
func (c *Compositor) Composite(symbol image.Image, path string) error {
	if symbol == nil {
		return &Error{Kind: KindInvalidBitmap, Path: path, Err: errors.New("nil symbol")}
	}
	bounds := symbol.Bounds()
	if bounds.Empty() {
		return &Error{Kind: KindInvalidBitmap, Path: path, Err: fmt.Errorf("empty symbol bounds %v", bounds)}
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return classify(path, err)
	}
	if !info.IsDir() {
		return &Error{Kind: KindPathNotFound, Path: path, Err: fmt.Errorf("%s is not a directory", dir)}
	}

	if c.opts.OffsetX+bounds.Dx() > c.opts.Width || c.opts.OffsetY+bounds.Dy() > c.opts.Height {
		logging.WarnWithContext(c.logger, "symbol exceeds canvas; clipping", "symbol_clipped",
			logging.String("path", path),
			logging.Int("symbol_width", bounds.Dx()),
			logging.Int("symbol_height", bounds.Dy()),
			logging.Int("canvas_width", c.opts.Width),
			logging.Int("canvas_height", c.opts.Height),
			logging.String(logging.FieldErrorHint, "shorten the data or reduce render.module_width"),
			logging.String(logging.FieldImpact, "part of the symbol is cut off in the artifact"),
		)
	}

	canvas := c.Canvas(symbol)
	err = fileutil.WriteAtomic(path, artifactMode, func(w io.Writer) error {
		return imaging.Encode(w, canvas, imaging.JPEG, imaging.JPEGQuality(c.opts.Quality))
	})
	if err != nil {
		return classify(path, err)
	}
	c.logger.Debug("artifact written",
		logging.String("path", path),
		logging.Int("quality", c.opts.Quality),
	)
	return nil
}
