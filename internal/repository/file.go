package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// FilePersister mirrors the snapshot to a single JSON file
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister writing to path
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Name returns the persister name for logs
func (p *FilePersister) Name() string {
	return "file"
}

// Load reads the snapshot file. A missing file is not an error.
func (p *FilePersister) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	return DecodeSnapshot(data)
}

// Save rewrites the whole file. The new content is fsynced to a temp file in the
// same directory and renamed over the old one, so readers see either version in full.
func (p *FilePersister) Save(ctx context.Context, snap *Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	if err := renameio.WriteFile(p.path, data, 0o644, renameio.WithTempDir(dir)); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	return nil
}
