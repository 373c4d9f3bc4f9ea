package prefs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Blob is a durable key-value store of opaque values
type Blob interface {
	// Get returns nil without error when the key is absent
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// FileBlob keeps one file per key in a directory
type FileBlob struct {
	dir string
}

// NewFileBlob creates the directory if needed
func NewFileBlob(dir string) (*FileBlob, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBlob{dir: dir}, nil
}

func (b *FileBlob) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (b *FileBlob) Set(key string, value []byte) error {
	if err := os.WriteFile(filepath.Join(b.dir, key), value, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// MemoryBlob is an in-memory Blob
type MemoryBlob map[string][]byte

func (b MemoryBlob) Get(key string) ([]byte, error) {
	return b[key], nil
}

func (b MemoryBlob) Set(key string, value []byte) error {
	b[key] = append([]byte(nil), value...)
	return nil
}
