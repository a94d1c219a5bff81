package audiosweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned by Storage.Open when the named file does not exist.
var ErrNotFound = errors.New("record file not found")

// Storage holds record files. Put must replace the named file atomically:
// readers see either the previous content or the new one, never a partial
// write.
type Storage interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Put(ctx context.Context, name string, body io.Reader) error
	Location(name string) string
	Type() string
}

// New builds the storage backend selected by cfg.
func New(ctx context.Context, cfg *Config) (Storage, error) {
	switch cfg.StorageType {
	case StorageLocal, "":
		return NewLocalStorage(cfg.StorageDir)
	case StorageS3:
		return NewS3Storage(ctx, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PathStyle, cfg.S3Prefix)
	case StorageGCS:
		return NewGCSStorage(ctx, cfg.GCSBucket, cfg.GCSPrefix, cfg.GCSCredentialsFile)
	default:
		return nil, newError(ConfigurationError, "init storage", "", fmt.Errorf("unsupported storage type %q", cfg.StorageType))
	}
}

// LoadRecords reads and decodes the named record file.
func LoadRecords(ctx context.Context, s Storage, name string) (RecordSet, error) {
	rc, err := s.Open(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(ConfigurationError, "load records", "", fmt.Errorf("record file %s does not exist", s.Location(name)))
		}
		return nil, newError(ConfigurationError, "load records", "", err)
	}
	defer rc.Close()

	return ReadRecords(rc)
}

// SaveRecords encodes rs and replaces the named record file with it. The file
// is fully encoded in memory first so an encoding failure never reaches
// storage.
func SaveRecords(ctx context.Context, s Storage, name string, rs RecordSet) error {
	var buf bytes.Buffer
	if err := WriteRecords(&buf, rs); err != nil {
		return err
	}
	if err := s.Put(ctx, name, &buf); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.Location(name), err)
	}
	return nil
}
