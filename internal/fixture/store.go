package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultExtension is the file extension of stored fixtures.
const DefaultExtension = ".json"

// Store is a flat directory of fixture files, one per fixture name.
type Store struct {
	dir    string
	ext    string
	logger *zap.Logger
}

// NewStore returns a store rooted at dir. An empty ext means DefaultExtension.
func NewStore(dir, ext string, logger *zap.Logger) *Store {
	if ext == "" {
		ext = DefaultExtension
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, ext: ext, logger: logger}
}

// Dir returns the directory holding the fixtures.
func (s *Store) Dir() string { return s.dir }

// Ext returns the fixture file extension, including the dot.
func (s *Store) Ext() string { return s.ext }

// Path returns the file path for the fixture called name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+s.ext)
}

// Files lists fixture files sorted by file name. A missing directory is
// reported as ErrNotFound.
func (s *Store) Files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: fixture directory %s", ErrNotFound, s.dir)
		}
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != s.ext {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Read returns the raw bytes of one fixture file. Callers validate the
// document before decoding it, since decoding into fixed-width tuples
// silently pads or truncates malformed rows.
func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

// Discover maps each stored fixture name to its classified mode. Files that
// are not a JSON object are skipped with a warning, files with an empty name
// are skipped; a later file wins over an earlier one with the
// same name.
func (s *Store) Discover() (map[string]Mode, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	modes := make(map[string]Mode, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		doc := gjson.ParseBytes(data)
		if !gjson.ValidBytes(data) || !doc.IsObject() {
			s.logger.Warn("Skipping unreadable fixture", zap.String("file", path))
			continue
		}
		name := strings.TrimSpace(doc.Get("name").String())
		if name == "" {
			s.logger.Debug("Skipping fixture without name", zap.String("file", path))
			continue
		}
		modes[name] = ClassifyJSON(doc.Get("expected"))
	}
	return modes, nil
}

// Write persists f under its name. Without overwrite the file is created
// exclusively, so an existing fixture is never replaced and ErrConflict is
// returned. With overwrite the fixture is written to a temporary file and
// renamed over the target.
func (s *Store) Write(f *Fixture, overwrite bool) (string, error) {
	if err := ValidateName(f.Name); err != nil {
		return "", err
	}
	data, err := Marshal(f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create fixture directory: %w", err)
	}

	path := s.Path(f.Name)
	if overwrite {
		err = replaceFile(s.dir, path, data)
	} else {
		err = createExclusive(path, data)
	}
	if err != nil {
		return "", err
	}
	s.logger.Info("Fixture written",
		zap.String("name", f.Name),
		zap.String("path", path),
		zap.Bool("overwrite", overwrite))
	return path, nil
}

func createExclusive(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrConflict, path)
		}
		return fmt.Errorf("failed to create fixture: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	return nil
}

func replaceFile(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace fixture: %w", err)
	}
	return nil
}
