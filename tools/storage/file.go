package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type FileCatalogState struct {
	FilePath string
}

func NewFileCatalogState(filePath string) *FileCatalogState {
	return &FileCatalogState{FilePath: filePath}
}

// Load reads the whole index.
func (f *FileCatalogState) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.FilePath)
}

// Save writes the index through a temporary file so readers never see a partial index.
func (f *FileCatalogState) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index: %w", err)
	}
	return os.Rename(tmp.Name(), f.FilePath)
}

func (f *FileCatalogState) String() string { return f.FilePath }
