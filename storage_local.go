package audiosweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalStorage implements Storage on the local filesystem.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create record directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, newError(ConfigurationError, "init storage", "", fmt.Errorf("failed to create record directory: %w", err))
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Open opens a record file for reading
func (s *LocalStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(s.Location(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	return f, nil
}

// Put writes body to a temporary file next to the destination and renames it
// into place.
func (s *LocalStorage) Put(ctx context.Context, name string, body io.Reader) error {
	destPath := s.Location(name)

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			if errRemove := os.Remove(tmpPath); errRemove != nil && !errors.Is(errRemove, fs.ErrNotExist) {
				slog.Warn("failed to remove temporary file", "path", tmpPath, "error", errRemove)
			}
		}
	}()

	// Copy with context cancellation support
	done := make(chan error, 1)
	go func() {
		_, errIoCopy := io.Copy(tmp, body)
		done <- errIoCopy
	}()

	select {
	case <-ctx.Done():
		<-done
		_ = tmp.Close()
		return ctx.Err()
	case err = <-done:
		if err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write temporary file: %w", err)
		}
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to replace record file: %w", err)
	}
	committed = true

	return nil
}

// Location returns the path of a record file
func (s *LocalStorage) Location(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.basePath, name)
}

// Dir returns the base directory
func (s *LocalStorage) Dir() string {
	return s.basePath
}

// Type returns the storage type name
func (s *LocalStorage) Type() string {
	return StorageLocal
}
