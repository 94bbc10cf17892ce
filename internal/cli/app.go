package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/y0ug/scanvault/internal/database"
	"github.com/y0ug/scanvault/internal/history"
	"github.com/y0ug/scanvault/internal/notifications"
	"github.com/y0ug/scanvault/internal/report"
	"github.com/y0ug/scanvault/internal/scanner"
	"github.com/y0ug/scanvault/internal/scanvault"
)

// app is the wiring shared by every command touching the history.
type app struct {
	logger  *logrus.Logger
	store   database.Store
	service *scanvault.Service
}

func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	dbConfig, err := database.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}

	cfg, err := scanvault.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load scanvault configuration: %w", err)
	}

	notificationCfg, err := notifications.LoadNotificationConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load notification configuration: %w", err)
	}

	store, err := database.Open(ctx, dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dbConfig.Type, err)
	}
	logger.WithField("type", dbConfig.Type).Debug("Database initialized successfully")

	client := scanner.NewClient(cfg.ScannerURL, cfg.ScanTimeout, logger)
	if cfg.RateLimit != nil {
		limiter := cfg.RateLimit.Limiter()
		logger.Infof("Setting rate limiter for scanning service: %v rps, burst %d", limiter.Rate, limiter.Burst)
		client.SetRateLimiter(limiter)
	}

	serviceConfig := scanvault.ServiceConfig{
		Uploader:       client,
		Exporter:       report.NewExporter(cfg.ReportLocation),
		MaxConcurrency: cfg.MaxConcurrency,
		Logger:         logger,
	}

	if notificationCfg.Enabled() {
		notifier, err := notifications.NewNotifier(notificationCfg, logger)
		if err != nil {
			store.Close(ctx)
			return nil, fmt.Errorf("failed to initialize notifier: %w", err)
		}
		serviceConfig.Notifier = notifier
		logger.Info("Notifier initialized successfully")
	}

	cache := history.NewCache(history.NewStoreRepository(store), logger)
	cache.Load(ctx)
	serviceConfig.History = cache

	return &app{
		logger:  logger,
		store:   store,
		service: scanvault.NewService(serviceConfig),
	}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.store.Close(ctx); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
}

// withApp runs fn with a freshly wired app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(cmd.Context(), a)
}
