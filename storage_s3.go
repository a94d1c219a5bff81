package audiosweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage implements Storage for S3-compatible storage
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Storage creates a new S3 storage instance
// Compatible with AWS S3, GCP Cloud Storage, MinIO, and other S3-compatible services
func NewS3Storage(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, pathStyle bool, prefix string) (*S3Storage, error) {
	if bucket == "" {
		return nil, newError(ConfigurationError, "init storage", "", errors.New("S3 bucket name is required"))
	}

	// Build config options
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(region))

	// Set credentials if provided
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, newError(ConfigurationError, "init storage", "", fmt.Errorf("failed to load AWS config: %w", err))
	}

	// Build S3 client options
	var s3Opts []func(*s3.Options)

	// Set custom endpoint for MinIO, R2, etc.
	if endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	// Set path style for MinIO and other S3-compatible services
	if pathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(cfg, s3Opts...)

	return &S3Storage{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

// Open downloads a record file from S3
func (s *S3Storage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKey(name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	return out.Body, nil
}

// Put uploads a record file to S3. A single PutObject replaces the object
// atomically.
func (s *S3Storage) Put(ctx context.Context, name string, body io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.getKey(name)),
		Body:        body,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

// Location returns the s3:// URL of a record file
func (s *S3Storage) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.getKey(name)
}

// Type returns the storage type name
func (s *S3Storage) Type() string {
	return StorageS3
}

// getKey returns the full S3 key for a record file name
func (s *S3Storage) getKey(name string) string {
	return joinPrefix(s.prefix, name)
}

func joinPrefix(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}
