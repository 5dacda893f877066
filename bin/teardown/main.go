package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"storefront-e2e/internal/auth"
	"storefront-e2e/internal/config"
	"storefront-e2e/internal/logging"
	"storefront-e2e/internal/report"
	"storefront-e2e/internal/storage"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type options struct {
	cleanupAuthStates  bool
	authStateDirectory string
	reportDirectory    string
	resultsFile        string
	summaryFile        string
}

func cleanupAuthStates(o options, logger *slog.Logger) error {
	if !o.cleanupAuthStates {
		return nil
	}
	removed, err := auth.Cleanup(o.authStateDirectory)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return xerrors.Errorf("failed to clean up auth states: %w", err)
	}
	for _, name := range removed {
		logger.Info("removed auth state", "file", name)
	}
	return nil
}

func aggregateResults(ctx context.Context, o options, clock func() time.Time, logger *slog.Logger) error {
	if _, err := os.Stat(o.reportDirectory); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("report directory not found, skipping aggregation", "directory", o.reportDirectory)
			return nil
		}
		return err
	}

	store, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: o.reportDirectory})
	if err != nil {
		return err
	}
	aggregator := &report.Aggregator{
		Store:  store,
		Clock:  clock,
		Logger: logger,
	}
	if _, err := aggregator.Aggregate(ctx, o.resultsFile, o.summaryFile); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Info("test results not found, skipping aggregation", "file", o.resultsFile)
			return nil
		}
		return err
	}
	return nil
}

func teardown(ctx context.Context, o options, clock func() time.Time, logger *slog.Logger) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return cleanupAuthStates(o, logger)
	})
	eg.Go(func() error {
		return aggregateResults(ctx, o, clock, logger)
	})
	return eg.Wait()
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	var o options
	var debug bool
	flag.BoolVar(&o.cleanupAuthStates, "cleanup-auth-states", config.EnvOrDefaultValue("CLEANUP_AUTH_STATES", false), "Remove auth state files")
	flag.StringVar(&o.authStateDirectory, "auth-state-directory", config.EnvOrDefaultValue("AUTH_STATE_DIRECTORY", "."), "Directory holding auth state files")
	flag.StringVar(&o.reportDirectory, "report-directory", config.EnvOrDefaultValue("REPORT_DIRECTORY", "reports"), "Directory holding test reports")
	flag.StringVar(&o.resultsFile, "results-file", "test-results.json", "Test results file inside the report directory")
	flag.StringVar(&o.summaryFile, "summary-file", "summary.json", "Summary file to write inside the report directory")
	flag.BoolVar(&debug, "debug", config.EnvOrDefaultValue("DEBUG", false), "Enable debug logging")

	flag.Parse()

	logger, err := logging.New(os.Stderr, debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("starting global teardown")
	if err := teardown(context.Background(), o, time.Now, logger); err != nil {
		log.Fatalf("Global teardown failed: %v", err)
	}
	logger.Info("global teardown completed")
}
