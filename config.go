package audiosweep

import (
	"errors"
	"fmt"
)

// Storage types.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageGCS   = "gcs"
)

// DefaultResourceType is the media resource type audio is stored under.
const DefaultResourceType = "video"

// Config holds the settings shared by every job.
type Config struct {
	// Media service credentials.
	CloudName string
	APIKey    string
	APISecret string

	// ResourceType is the remote resource type audio files are stored as.
	ResourceType string

	// Record storage.
	StorageType        string
	StorageDir         string
	S3Endpoint         string
	S3Region           string
	S3Bucket           string
	S3Prefix           string
	S3AccessKey        string
	S3SecretKey        string
	S3PathStyle        bool
	GCSBucket          string
	GCSPrefix          string
	GCSCredentialsFile string

	// Lock takes an exclusive lock on the record directory for the run.
	// Local storage only.
	Lock bool

	// DryRun skips every remote delete and the connection check.
	DryRun bool

	// MetricsFile receives the run metrics in Prometheus text format.
	MetricsFile string

	// OtelEndpoint is the OTLP/HTTP endpoint for traces.
	OtelEndpoint string

	ErrorPolicy ErrorPolicy
}

// DefaultConfig returns a configuration using local storage in the current
// directory.
func DefaultConfig() *Config {
	return &Config{
		ResourceType: DefaultResourceType,
		StorageType:  StorageLocal,
		StorageDir:   ".",
		S3Region:     "us-east-1",
		ErrorPolicy:  DefaultErrorPolicy(),
	}
}

// Validate checks the configuration before any remote or storage access.
func (c *Config) Validate(needsCredentials bool) error {
	var errs []error

	if needsCredentials {
		if c.CloudName == "" {
			errs = append(errs, errors.New("cloud name is required"))
		}
		if c.APIKey == "" {
			errs = append(errs, errors.New("API key is required"))
		}
		if c.APISecret == "" {
			errs = append(errs, errors.New("API secret is required"))
		}
	}
	if c.ResourceType == "" {
		errs = append(errs, errors.New("resource type is required"))
	}

	switch c.StorageType {
	case StorageLocal:
		if c.StorageDir == "" {
			errs = append(errs, errors.New("storage directory is required"))
		}
	case StorageS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3 bucket name is required"))
		}
	case StorageGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS bucket name is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage type %q", c.StorageType))
	}

	if c.Lock && c.StorageType != StorageLocal {
		errs = append(errs, errors.New("locking is only supported with local storage"))
	}

	if err := errors.Join(errs...); err != nil {
		return newError(ConfigurationError, "validate config", "", err)
	}
	return nil
}

// LogInfo returns the configuration lines printed at start-up. Secrets are
// never included.
func (c *Config) LogInfo() []string {
	lines := []string{
		fmt.Sprintf("Cloud name: %s", c.CloudName),
		fmt.Sprintf("Resource type: %s", c.ResourceType),
		fmt.Sprintf("Storage type: %s", c.StorageType),
		fmt.Sprintf("Dry run: %t", c.DryRun),
	}
	switch c.StorageType {
	case StorageLocal:
		lines = append(lines, fmt.Sprintf("Storage directory: %s", c.StorageDir))
	case StorageS3:
		lines = append(lines, fmt.Sprintf("S3 bucket: %s (prefix %q)", c.S3Bucket, c.S3Prefix))
	case StorageGCS:
		lines = append(lines, fmt.Sprintf("GCS bucket: %s (prefix %q)", c.GCSBucket, c.GCSPrefix))
	}
	if c.MetricsFile != "" {
		lines = append(lines, fmt.Sprintf("Metrics file: %s", c.MetricsFile))
	}
	return lines
}
