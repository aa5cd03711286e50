package compose

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func blackSymbol(w, h int) image.Image {
	return imaging.New(w, h, color.Black)
}

func luminance(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (r + g + b) / 3 >> 8
}

func TestCompositeWritesCanvas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label.jpg")
	c := New(OptionsFromConfig(nil), nil)

	if err := c.Composite(blackSymbol(100, 50), path); err != nil {
		t.Fatalf("Composite: %v", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(474, 260) {
		t.Fatalf("canvas size = %v, want 474x260", got)
	}

	tests := []struct {
		name  string
		x, y  int
		light bool
	}{
		{name: "top left margin", x: 3, y: 3, light: true},
		{name: "symbol centre", x: 60, y: 35, light: false},
		{name: "right of symbol", x: 300, y: 35, light: true},
		{name: "below symbol", x: 60, y: 200, light: true},
	}
	for _, tc := range tests {
		l := luminance(img.At(tc.x, tc.y))
		if tc.light && l < 230 {
			t.Errorf("%s: luminance %d, want near white", tc.name, l)
		}
		if !tc.light && l > 40 {
			t.Errorf("%s: luminance %d, want near black", tc.name, l)
		}
	}
}

func TestCompositeOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label.jpg")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(OptionsFromConfig(nil), nil)
	if err := c.Composite(blackSymbol(20, 20), path); err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if _, err := imaging.Open(path); err != nil {
		t.Fatalf("artifact not replaced with a JPEG: %v", err)
	}
}

func TestCompositeClipsOversizedSymbol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.jpg")
	c := New(OptionsFromConfig(nil), nil)
	if err := c.Composite(blackSymbol(900, 400), path); err != nil {
		t.Fatalf("Composite: %v", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(474, 260) {
		t.Fatalf("canvas size = %v, want 474x260", got)
	}
	if l := luminance(img.At(470, 255)); l > 40 {
		t.Fatalf("clipped corner luminance %d, want near black", l)
	}
}

func TestCompositeErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		symbol image.Image
		path   string
		kind   Kind
	}{
		{name: "missing directory", symbol: blackSymbol(10, 10), path: filepath.Join(dir, "missing", "a.jpg"), kind: KindPathNotFound},
		{name: "parent is a file", symbol: blackSymbol(10, 10), path: filepath.Join(file, "a.jpg"), kind: KindPathNotFound},
		{name: "nil symbol", symbol: nil, path: filepath.Join(dir, "a.jpg"), kind: KindInvalidBitmap},
		{name: "empty symbol", symbol: image.NewRGBA(image.Rect(0, 0, 0, 0)), path: filepath.Join(dir, "a.jpg"), kind: KindInvalidBitmap},
	}
	c := New(OptionsFromConfig(nil), nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Composite(tc.symbol, tc.path)
			var composeErr *Error
			if !errors.As(err, &composeErr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if composeErr.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", composeErr.Kind, tc.kind)
			}
			if kind, ok := KindOf(err); !ok || kind != tc.kind {
				t.Fatalf("KindOf = %v, %v", kind, ok)
			}
			if _, statErr := os.Stat(tc.path); statErr == nil {
				t.Fatal("no artifact should be written on failure")
			}
		})
	}
}

func TestCompositeReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := New(OptionsFromConfig(nil), nil).Composite(blackSymbol(10, 10), filepath.Join(dir, "a.jpg"))
	if kind, ok := KindOf(err); !ok || kind != KindIOFailure {
		t.Fatalf("err = %v, want io failure", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	c := New(Options{Quality: 500}, nil)
	if c.opts.Width != 474 || c.opts.Height != 260 || c.opts.Quality != 90 {
		t.Fatalf("unexpected defaults: %+v", c.opts)
	}
}
