package audiosweep

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStorage implements Storage for Google Cloud Storage
type GCSStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStorage creates a new GCS storage instance. Without a credentials
// file, application default credentials are used.
func NewGCSStorage(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSStorage, error) {
	if bucket == "" {
		return nil, newError(ConfigurationError, "init storage", "", errors.New("GCS bucket name is required"))
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, newError(ConfigurationError, "init storage", "", fmt.Errorf("failed to create GCS client: %w", err))
	}

	return &GCSStorage{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Open downloads a record file from GCS
func (s *GCSStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(joinPrefix(s.prefix, name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download from GCS: %w", err)
	}
	return r, nil
}

// Put uploads a record file to GCS. The object only becomes visible once the
// writer is closed successfully.
func (s *GCSStorage) Put(ctx context.Context, name string, body io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(joinPrefix(s.prefix, name)).NewWriter(ctx)
	w.ContentType = "text/csv"

	if _, err := io.Copy(w, body); err != nil {
		// Cancelling the context aborts the upload.
		cancel()
		_ = w.Close()
		return fmt.Errorf("failed to upload to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload to GCS: %w", err)
	}
	return nil
}

// Location returns the gs:// URL of a record file
func (s *GCSStorage) Location(name string) string {
	return "gs://" + s.bucket + "/" + joinPrefix(s.prefix, name)
}

// Type returns the storage type name
func (s *GCSStorage) Type() string {
	return StorageGCS
}

// Close releases the GCS client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
