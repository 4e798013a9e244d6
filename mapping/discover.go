package mapping

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns match mapping files below the working directory.
var DefaultPatterns = []string{
	"mappings/**/*.yaml",
	"mappings/**/*.yml",
	"mappings/**/*.json",
}

// Discover loads every mapping file matched by patterns. Relative patterns
// are resolved against root. Files are loaded in path order; a file matched
// by several patterns is loaded once.
func Discover(root string, patterns []string, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	paths, err := resolvePatterns(root, patterns)
	if err != nil {
		return nil, err
	}

	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded mapping file", "path", p, "entries", len(f.Mappings))
		files = append(files, f)
	}
	return NewSet(logger, files...), nil
}

func resolvePatterns(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}
		// Use doublestar for ** support
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		for _, m := range matches {
			if seen[m] || strings.HasPrefix(filepath.Base(m), ".") {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
