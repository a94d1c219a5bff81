package audiosweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created in the record directory by --lock.
const LockFileName = ".audiosweep.lock"

// Run drives one job: it logs the configuration, initializes storage, takes
// the optional lock, verifies the media service connection and runs the job.
// Metrics are written to cfg.MetricsFile even when the job fails.
func Run(ctx context.Context, cfg *Config, job Job, logger *slog.Logger, metrics *Metrics) (err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	logger = logger.With("job", job.Name())

	logger.Info(fmt.Sprintf("Starting %s job...", job.Name()))

	defer func() {
		metrics.observeRun(job.Name(), err)
		if cfg.MetricsFile != "" {
			if errMetrics := metrics.WriteToTextfile(cfg.MetricsFile); errMetrics != nil {
				logger.Warn("failed to write metrics", "error", errMetrics)
			}
		}
	}()

	logger.Info("Configuration loaded:")
	for _, v := range cfg.LogInfo() {
		logger.Info("  " + v)
	}
	for _, v := range job.ExtraConfigLogInfo() {
		logger.Info("  " + v)
	}

	// Initialize storage
	store, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer func() {
			if errClose := c.Close(); errClose != nil {
				logger.Warn("failed to close storage", "error", errClose)
			}
		}()
	}
	logger.Info("Storage initialized", "type", store.Type())

	if cfg.Lock {
		unlock, errLock := acquireLock(cfg.StorageDir)
		if errLock != nil {
			return errLock
		}
		defer func() {
			if errUnlock := unlock(); errUnlock != nil {
				logger.Warn("failed to release lock", "error", errUnlock)
			}
		}()
		logger.Debug("record lock acquired")
	}

	// Set storage
	if err = job.SetStorage(store); err != nil {
		return fmt.Errorf("failed to set storage: %w", err)
	}

	// Test media service connection
	if !cfg.DryRun {
		if err = job.TestConnection(ctx); err != nil {
			return fmt.Errorf("failed to connect to media service: %w", err)
		}
		logger.Info("Media service connection verified")
	}

	if err = job.Run(ctx); err != nil {
		logger.Error("job failed", "error", err)
		return err
	}

	logger.Info("Job complete")
	return nil
}

// acquireLock takes an exclusive, non-blocking lock in dir.
func acquireLock(dir string) (func() error, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, newError(ConfigurationError, "lock", "", fmt.Errorf("failed to lock %s: %w", lock.Path(), err))
	}
	if !locked {
		return nil, newError(ConfigurationError, "lock", "", fmt.Errorf("%s is held by another run", lock.Path()))
	}
	return lock.Unlock, nil
}
