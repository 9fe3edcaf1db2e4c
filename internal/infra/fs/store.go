package fs

// Data directory artefacts: rendered cards and snapshot dumps
// Files are written to a temp file in the same directory and renamed into place

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gpu-snapshot/internal/infra/log"

	"go.uber.org/zap"
)

const (
	CardsDir     = "cards"
	SnapshotsDir = "snapshots"
)

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// SaveCard writes a PNG produced by encode to <root>/cards/<name>.
func (s *Store) SaveCard(name string, encode func(io.Writer) error) (string, error) {
	return s.write(filepath.Join(CardsDir, name), encode)
}

// SaveJSON writes v as indented JSON to <root>/snapshots/<name>.
func (s *Store) SaveJSON(name string, v any) (string, error) {
	return s.write(filepath.Join(SnapshotsDir, name), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func (s *Store) write(rel string, encode func(io.Writer) error) (string, error) {
	path := filepath.Join(s.root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", rel, err)
	}

	info, err := os.Stat(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%s is empty after writing", rel)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", rel, err)
	}
	log.LogDebug("Saved file", zap.String("path", path), zap.Int64("size", info.Size()))
	return path, nil
}
