package render

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flopp/go-findfont"

	"barcoded/internal/config"
	"barcoded/internal/logging"
)

// Font sources reported by ResolveFont.
const (
	FontSourceConfig     = "config"
	FontSourceExecutable = "executable_dir"
	FontSourceWorkdir    = "working_dir"
	FontSourceSystem     = "system"
	FontSourceNone       = "builtin"
)

// FontChoice is the outcome of font resolution. Path is empty when no font
// file was found and the built-in face must be used.
type FontChoice struct {
	Path   string
	Source string
}

type fontLookup struct {
	executable func() (string, error)
	workdir    func() (string, error)
	system     func(string) (string, error)
}

var defaultFontLookup = fontLookup{
	executable: os.Executable,
	workdir:    os.Getwd,
	system:     findfont.Find,
}

// ResolveFont locates the font used for the human-readable line.
//
// An explicit path wins and is never second-guessed: when it does not exist
// the renderer degrades. Otherwise the bundled font name is looked up next to
// the running executable, then in the working directory, then in the system
// font directories.
func ResolveFont(explicit string, logger *slog.Logger) FontChoice {
	return defaultFontLookup.resolve(explicit, config.DefaultFontName, logger)
}

func (l fontLookup) resolve(explicit, name string, logger *slog.Logger) FontChoice {
	if logger == nil {
		logger = logging.NewNop()
	}

	if explicit != "" {
		if fileExists(explicit) {
			return FontChoice{Path: explicit, Source: FontSourceConfig}
		}
		logging.WarnWithContext(logger, "font file not found; rendering without custom font", "font_missing",
			logging.String("font_path", explicit),
			logging.String(logging.FieldErrorHint, "fix render.font_path or BARCODED_FONT"),
			logging.String(logging.FieldImpact, "text under bars uses the built-in face"),
		)
		return FontChoice{Source: FontSourceNone}
	}

	var candidates []FontChoice
	if l.executable != nil {
		if exe, err := l.executable(); err == nil {
			candidates = append(candidates, FontChoice{Path: filepath.Join(filepath.Dir(exe), name), Source: FontSourceExecutable})
		}
	}
	if l.workdir != nil {
		if wd, err := l.workdir(); err == nil {
			candidates = append(candidates, FontChoice{Path: filepath.Join(wd, name), Source: FontSourceWorkdir})
		}
	}
	for _, candidate := range candidates {
		if fileExists(candidate.Path) {
			return candidate
		}
	}

	if l.system != nil {
		if path, err := l.system(name); err == nil && fileExists(path) {
			return FontChoice{Path: path, Source: FontSourceSystem}
		}
	}

	searched := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		searched = append(searched, candidate.Path)
	}
	logging.WarnWithContext(logger, "font file not found; rendering without custom font", "font_missing",
		logging.String("font_name", name),
		logging.Any("searched", searched),
		logging.String(logging.FieldErrorHint, "place "+name+" next to the binary or set render.font_path"),
		logging.String(logging.FieldImpact, "text under bars uses the built-in face"),
	)
	return FontChoice{Source: FontSourceNone}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
