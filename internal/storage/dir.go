package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirStorage implements FileStore on top of a local directory. It is the
// default backend for development and tests.
type DirStorage struct {
	root string
}

// NewDirStorage ensures the root directory exists and returns a store rooted there.
func NewDirStorage(root string) (*DirStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("dir storage: root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &DirStorage{root: root}, nil
}

// Save writes the content to root/name, replacing any existing file, and
// returns the path of the written file.
func (d *DirStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	path, err := d.resolve(name)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write file %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file %s: %w", name, err)
	}

	return path, nil
}

// Remove deletes root/name. A file that is already gone counts as removed.
func (d *DirStorage) Remove(_ context.Context, name string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file %s: %w", name, err)
	}
	return nil
}

// resolve rejects names that would escape the storage root.
func (d *DirStorage) resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("dir storage: empty name")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) {
		return "", fmt.Errorf("dir storage: invalid name %q", name)
	}
	return filepath.Join(d.root, cleaned), nil
}

var _ FileStore = (*DirStorage)(nil)
