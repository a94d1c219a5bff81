package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ermos/audiosweep"
)

// Version is set at build time.
var Version = "dev"

// Execute runs the root command and exits non-zero on fatal errors.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand of one invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "audiosweep",
		Short: "Audio retention for a Cloudinary media library",
		Long: `audiosweep lists audio files stored in Cloudinary into a CSV record,
evicts the most recently listed ones and expires old ones that are not allow-listed.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "Config file (default $HOME/.audiosweep.yaml)")
	flags.String("cloud-name", "", "Cloudinary cloud name")
	flags.String("api-key", "", "Cloudinary API key")
	flags.String("api-secret", "", "Cloudinary API secret (prefer AUDIOSWEEP_API_SECRET)")
	flags.String("resource-type", audiosweep.DefaultResourceType, "Resource type audio files are stored as")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("storage", audiosweep.StorageLocal, "Record storage (local, s3, gcs)")
	flags.String("storage-dir", ".", "Record directory for local storage")
	flags.String("s3-bucket", "", "S3 bucket holding the records")
	flags.String("s3-region", "us-east-1", "S3 region")
	flags.String("s3-endpoint", "", "Custom S3 endpoint (MinIO, R2, ...)")
	flags.String("s3-prefix", "", "Key prefix for record files")
	flags.Bool("s3-path-style", false, "Use path-style S3 addressing")
	flags.String("s3-access-key", "", "S3 access key (default credential chain when empty)")
	flags.String("s3-secret-key", "", "S3 secret key")
	flags.String("gcs-bucket", "", "GCS bucket holding the records")
	flags.String("gcs-prefix", "", "Object prefix for record files")
	flags.String("gcs-credentials-file", "", "GCS service account file (default application credentials when empty)")
	flags.Bool("lock", false, "Hold an exclusive lock on the record directory during the run")
	flags.String("metrics-file", "", "Write run metrics in Prometheus text format to this file")
	flags.String("otel-endpoint", "", "OTLP/HTTP endpoint for traces")
	flags.Uint64("transport-retries", 0, "Extra attempts for failed media service requests")
	flags.Bool("fail-on-transport-error", false, "Abort without writing records when a media service request fails")

	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newEvictCmd())
	rootCmd.AddCommand(c.newExpireCmd())

	return rootCmd
}

func (c *cli) initConfig(cmd *cobra.Command) error {
	for _, fs := range []*pflag.FlagSet{cmd.Root().PersistentFlags(), cmd.Flags()} {
		if err := c.v.BindPFlags(fs); err != nil {
			return err
		}
	}

	c.v.SetEnvPrefix("AUDIOSWEEP")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".audiosweep.yaml")
	if _, err = os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	c.v.SetConfigFile(path)
	if err = c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// buildConfig assembles the shared configuration from flags, environment and
// config file.
func (c *cli) buildConfig() *audiosweep.Config {
	cfg := audiosweep.DefaultConfig()

	cfg.CloudName = c.v.GetString("cloud-name")
	cfg.APIKey = c.v.GetString("api-key")
	cfg.APISecret = c.v.GetString("api-secret")
	cfg.ResourceType = c.v.GetString("resource-type")

	cfg.StorageType = c.v.GetString("storage")
	cfg.StorageDir = c.v.GetString("storage-dir")
	cfg.S3Bucket = c.v.GetString("s3-bucket")
	cfg.S3Region = c.v.GetString("s3-region")
	cfg.S3Endpoint = c.v.GetString("s3-endpoint")
	cfg.S3Prefix = c.v.GetString("s3-prefix")
	cfg.S3PathStyle = c.v.GetBool("s3-path-style")
	cfg.S3AccessKey = c.v.GetString("s3-access-key")
	cfg.S3SecretKey = c.v.GetString("s3-secret-key")
	cfg.GCSBucket = c.v.GetString("gcs-bucket")
	cfg.GCSPrefix = c.v.GetString("gcs-prefix")
	cfg.GCSCredentialsFile = c.v.GetString("gcs-credentials-file")

	cfg.Lock = c.v.GetBool("lock")
	cfg.MetricsFile = c.v.GetString("metrics-file")
	cfg.OtelEndpoint = c.v.GetString("otel-endpoint")

	rule := cfg.ErrorPolicy.Rule(audiosweep.RemoteTransportError)
	rule.MaxRetries = c.v.GetUint64("transport-retries")
	rule.Fatal = c.v.GetBool("fail-on-transport-error")
	cfg.ErrorPolicy[audiosweep.RemoteTransportError] = rule

	return cfg
}

// flagError reports an invalid flag value as a configuration error.
func flagError(err error) error {
	return &audiosweep.Error{Kind: audiosweep.ConfigurationError, Op: "parse flags", Err: err}
}

// session is what a subcommand needs to run a job.
type session struct {
	cfg     *audiosweep.Config
	logger  *slog.Logger
	metrics *audiosweep.Metrics
	media   audiosweep.MediaStore
	cleanup func()
}

// newSession validates cfg and builds the logger, tracing and media client.
func (c *cli) newSession(cmd *cobra.Command, cfg *audiosweep.Config) (*session, error) {
	logger, err := audiosweep.NewLogger(cmd.ErrOrStderr(), c.v.GetString("log-level"), c.v.GetString("log-format"))
	if err != nil {
		return nil, err
	}
	logger = logger.With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	needsCredentials := !cfg.DryRun
	if needsCredentials && cfg.APISecret == "" {
		secret, errPrompt := promptSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
		if errPrompt != nil {
			return nil, errPrompt
		}
		cfg.APISecret = secret
	}
	if err = cfg.Validate(needsCredentials); err != nil {
		return nil, err
	}

	shutdown, err := audiosweep.InitTracing(cmd.Context(), Version, cfg.OtelEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}

	media, err := newMediaStore(cfg)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		metrics: audiosweep.NewMetrics(),
		media:   media,
		cleanup: func() {
			if errShutdown := shutdown(context.Background()); errShutdown != nil {
				logger.Warn("failed to flush traces", "error", errShutdown)
			}
		},
	}, nil
}

// newMediaStore builds the media client. Without credentials, which only a
// dry run accepts, every remote call fails.
var newMediaStore = func(cfg *audiosweep.Config) (audiosweep.MediaStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return offlineMedia{}, nil
	}
	return audiosweep.NewCloudinaryStore(cfg.CloudName, cfg.APIKey, cfg.APISecret)
}

var errOffline = errors.New("media service credentials not configured")

type offlineMedia struct{}

func (offlineMedia) List(context.Context, audiosweep.ListRequest) (audiosweep.ListPage, error) {
	return audiosweep.ListPage{}, errOffline
}

func (offlineMedia) Delete(context.Context, string, []string) (map[string]string, error) {
	return nil, errOffline
}

func (offlineMedia) Ping(context.Context) error {
	return errOffline
}
