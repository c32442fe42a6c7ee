package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore persists attachment payloads outside the database.
type FileStore interface {
	// Save writes the payload and returns the generated stored name and path.
	Save(originalName string, r io.Reader) (storedName string, path string, err error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

type diskStore struct {
	baseDir string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(baseDir string) (FileStore, error) {
	if baseDir == "" {
		baseDir = "uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &diskStore{baseDir: baseDir}, nil
}

func (s *diskStore) Save(originalName string, r io.Reader) (string, string, error) {
	// Stored names are random so client-supplied names never touch the
	// filesystem layout.
	ext := filepath.Ext(originalName)
	storedName := uuid.NewString() + ext
	path := filepath.Join(s.baseDir, storedName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("write file: %w", err)
	}
	return storedName, path, nil
}

func (s *diskStore) Open(path string) (io.ReadCloser, error) {
	clean := filepath.Clean(path)
	if !filepath.IsLocal(clean) {
		return nil, fmt.Errorf("invalid attachment path %q", path)
	}
	return os.Open(clean)
}

func (s *diskStore) Remove(path string) error {
	clean := filepath.Clean(path)
	if !filepath.IsLocal(clean) {
		return fmt.Errorf("invalid attachment path %q", path)
	}
	err := os.Remove(clean)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
