package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pbaille/journal/internal/record"
)

// JSONFile stores snapshots as a single pretty-printed JSON document
type JSONFile[P any] struct {
	path string
}

// NewJSONFile returns a backend writing to path. Nothing is touched on disk
// until the first Load or Save.
func NewJSONFile[P any](path string) *JSONFile[P] {
	return &JSONFile[P]{path: path}
}

// Path returns the document location
func (f *JSONFile[P]) Path() string {
	return f.path
}

// Load reads the document. A missing file yields ErrNotFound.
func (f *JSONFile[P]) Load(ctx context.Context) (record.Snapshot[P], error) {
	var snap record.Snapshot[P]
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, fmt.Errorf("%w: %s", ErrNotFound, f.path)
	}
	if err != nil {
		return snap, fmt.Errorf("read snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot %s: %w", f.path, err)
	}
	return snap, nil
}

// Save writes the document. Missing parent directories are created and the
// previous document is replaced by renaming a temporary file over it.
func (f *JSONFile[P]) Save(ctx context.Context, snap record.Snapshot[P]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save
func (f *JSONFile[P]) Close() error {
	return nil
}
