package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quantrail/tickvault/internal/model"
)

const (
	batchPrefix = "ticks_"
	batchSuffix = ".csv"
)

// Store manages the directory of intermediate batch files.
type Store struct {
	dir string
}

// New creates the store, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// WriteBatch persists a drained snapshot as one new batch file and returns
// its path. The filename embeds the creation instant so that lexicographic
// order is chronological; a random suffix disambiguates same-nanosecond
// writes.
func (s *Store) WriteBatch(ticks []model.Tick, now time.Time) (string, error) {
	if len(ticks) == 0 {
		return "", fmt.Errorf("refusing to write empty batch")
	}

	name := fmt.Sprintf("%s%s_%09d_%s%s",
		batchPrefix,
		now.Format("20060102_150405"),
		now.Nanosecond(),
		uuid.NewString()[:8],
		batchSuffix,
	)
	path := filepath.Join(s.dir, name)

	if err := writeBatchFile(path, ticks); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the paths of all batch files in chronological (filename)
// order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list store dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, batchPrefix) && strings.HasSuffix(name, batchSuffix) {
			paths = append(paths, filepath.Join(s.dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Remove deletes a consumed batch file.
func (s *Store) Remove(path string) error {
	return os.Remove(path)
}
