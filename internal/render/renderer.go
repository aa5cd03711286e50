package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"unicode"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"barcoded/internal/config"
	"barcoded/internal/logging"
)

// ErrRender reports that the data cannot be encoded as Code 128.
var ErrRender = errors.New("render failed")

// Options controls symbol geometry and the human-readable line.
type Options struct {
	FontPath    string
	FontSize    float64
	ModuleWidth int
	BarHeight   int
	QuietZone   int
	TextGap     int
}

// OptionsFromConfig maps the render section of cfg to renderer options. The
// font path is resolved with ResolveFont.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	choice := ResolveFont(cfg.Render.FontPath, logger)
	return Options{
		FontPath:    choice.Path,
		FontSize:    cfg.Render.FontSize,
		ModuleWidth: cfg.Render.ModuleWidth,
		BarHeight:   cfg.Render.BarHeight,
		QuietZone:   cfg.Render.QuietZone,
		TextGap:     cfg.Render.TextGap,
	}
}

// Renderer draws Code 128 symbols. It is safe for sequential use only; the
// daemon serves one request at a time.
type Renderer struct {
	opts     Options
	face     font.Face
	fontPath string
	logger   *slog.Logger
}

// New builds a renderer and loads its font. Font problems are logged and the
// built-in face is used instead.
func New(opts Options, logger *slog.Logger) *Renderer {
	logger = logging.NewComponentLogger(logger, "render")
	opts = withDefaults(opts)

	r := &Renderer{opts: opts, logger: logger}
	face, err := loadFace(opts.FontPath, opts.FontSize)
	switch {
	case opts.FontPath == "":
		r.face = basicfont.Face7x13
	case err != nil:
		logging.WarnWithContext(logger, "font unreadable; rendering without custom font", "font_unreadable",
			logging.String("font_path", opts.FontPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the file is a TrueType font"),
			logging.String(logging.FieldImpact, "text under bars uses the built-in face"),
		)
		r.face = basicfont.Face7x13
	default:
		r.face = face
		r.fontPath = opts.FontPath
	}
	logger.Debug("renderer ready",
		logging.String("font_path", r.fontPath),
		logging.Int("module_width", opts.ModuleWidth),
		logging.Int("bar_height", opts.BarHeight),
	)
	return r
}

// FontPath returns the font file in use, or "" when the built-in face is used.
func (r *Renderer) FontPath() string {
	if r == nil {
		return ""
	}
	return r.fontPath
}

// Render encodes data as Code 128 and returns the symbol: quiet zones on both
// sides, bars, and data printed beneath. Empty data and characters outside the
// Code 128 repertoire fail with ErrRender.
func (r *Renderer) Render(data string) (image.Image, error) {
	if data == "" {
		return nil, fmt.Errorf("%w: empty data", ErrRender)
	}
	for i, ch := range data {
		if ch > unicode.MaxASCII {
			return nil, fmt.Errorf("%w: unsupported character %q at offset %d", ErrRender, ch, i)
		}
	}

	code, err := code128.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrRender, err)
	}
	modules := code.Bounds().Dx()
	bars, err := barcode.Scale(code, modules*r.opts.ModuleWidth, r.opts.BarHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: scale: %v", ErrRender, err)
	}

	quiet := r.opts.QuietZone * r.opts.ModuleWidth
	gap := r.opts.TextGap
	textHeight := r.face.Metrics().Height.Ceil()
	width := bars.Bounds().Dx() + 2*quiet
	height := gap + r.opts.BarHeight + gap + textHeight + gap

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.DrawImage(bars, quiet, gap)
	dc.SetFontFace(r.face)
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(data, float64(width)/2, float64(gap+r.opts.BarHeight+gap), 0.5, 1)

	return dc.Image(), nil
}

func withDefaults(opts Options) Options {
	def := config.Default().Render
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.ModuleWidth <= 0 {
		opts.ModuleWidth = def.ModuleWidth
	}
	if opts.BarHeight <= 0 {
		opts.BarHeight = def.BarHeight
	}
	if opts.QuietZone < 0 {
		opts.QuietZone = 0
	}
	if opts.TextGap < 0 {
		opts.TextGap = 0
	}
	return opts
}

func loadFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}
