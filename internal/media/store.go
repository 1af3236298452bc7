package media

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Store is the media directory. Every note maps to one path per kind, so concurrent
// writers for different notes never touch the same file.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore roots a store at dir. Relative dirs are resolved against the working
// directory.
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve media dir %s: %w", dir, err)
	}
	return &Store{fs: fs, root: root}, nil
}

// Root returns the absolute media directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureDir creates the directory for kind. Safe to call repeatedly.
func (s *Store) EnsureDir(kind Kind) error {
	dir := filepath.Join(s.root, kind.Dir())
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Path returns the absolute artifact path for a note.
func (s *Store) Path(noteID int64, kind Kind) string {
	return filepath.Join(s.root, kind.Dir(), kind.Filename(noteID))
}

// Locate finds an existing file named filename in the directory for kind. When the
// exact name is missing it tries the part of the stem before the first '-', so
// "1001-3f2a.png" resolves to "1001.png".
func (s *Store) Locate(kind Kind, filename string) (string, bool) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return "", false
	}
	dir := filepath.Join(s.root, kind.Dir())
	candidates := []string{name}
	ext := filepath.Ext(name)
	if stem, _, ok := strings.Cut(strings.TrimSuffix(name, ext), "-"); ok && stem != "" {
		candidates = append(candidates, stem+ext)
	}
	for _, c := range candidates {
		path := filepath.Join(dir, c)
		if info, err := s.fs.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Write streams r into the note's artifact, replacing any previous file, and returns
// the absolute path. The data lands under a temp name first and is renamed into
// place, so a failed write never leaves a truncated artifact behind.
func (s *Store) Write(noteID int64, kind Kind, r io.Reader) (string, error) {
	path := s.Path(noteID, kind)
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = s.fs.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return path, nil
}
