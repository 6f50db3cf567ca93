package records

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Blob holds one serialized document. Load returns an error wrapping
// fs.ErrNotExist when nothing has been saved yet.
type Blob interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

var _ Blob = &FileBlob{}

type FileBlob struct {
	path string
}

func NewFileBlob(path string) *FileBlob {
	return &FileBlob{path: path}
}

func (f *FileBlob) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.path)
}

// Save creates the containing directory when it is missing.
func (f *FileBlob) Save(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	return os.WriteFile(f.path, data, 0o644)
}
