package snippets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrDenied is returned when a filename is outside the home directory or
// matches a deny pattern.
var ErrDenied = errors.New("snippets: write denied")

// FileWriter writes snippet bodies below a home directory.
type FileWriter struct {
	home string
	deny []string
}

// NewFileWriter creates a writer rooted at home. Deny patterns are doublestar
// globs matched against the slash-separated relative filename.
func NewFileWriter(home string, deny []string) (*FileWriter, error) {
	if home == "" {
		return nil, errors.New("snippets: home directory is required")
	}
	for _, p := range deny {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("snippets: invalid deny pattern %q", p)
		}
	}
	return &FileWriter{home: home, deny: deny}, nil
}

// Home returns the root directory.
func (w *FileWriter) Home() string {
	return w.home
}

// Resolve returns the absolute path for name or ErrDenied.
func (w *FileWriter) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty filename", ErrDenied)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %q escapes %s", ErrDenied, name, w.home)
	}
	rel := filepath.ToSlash(clean)
	for _, p := range w.deny {
		if ok, _ := doublestar.Match(p, rel); ok {
			return "", fmt.Errorf("%w: %q matches %q", ErrDenied, name, p)
		}
	}
	return filepath.Join(w.home, clean), nil
}

// Write stores body at home/name, overwriting any existing file, and returns
// the written path. Missing directories are created.
func (w *FileWriter) Write(name, body string) (string, error) {
	path, err := w.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("snippets: create dirs: %w", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("snippets: write %s: %w", name, err)
	}
	slog.Info("snippets: wrote file", "path", path, "bytes", len(body))
	return path, nil
}
