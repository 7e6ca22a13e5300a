package app

import (
	"context"
	"fmt"
	"io"

	"castanet-watch/internal/config"
	"castanet-watch/internal/fetcher"
	"castanet-watch/internal/normalize"
	"castanet-watch/internal/notify"
	"castanet-watch/internal/observability"
	"castanet-watch/internal/storage"
	"castanet-watch/internal/storage/mssql"
	"castanet-watch/internal/storage/postgres"
	"castanet-watch/internal/storage/sqlite"
)

// OpenRepository открывает хранилище по storage.driver и создаёт таблицу при необходимости
func OpenRepository(ctx context.Context, cfg *config.Config, logger *observability.Logger) (storage.Repository, error) {
	var (
		repo storage.Repository
		err  error
	)

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		repo, err = sqlite.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	case config.DriverMSSQL:
		repo, err = mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	case config.DriverPostgres:
		repo, err = postgres.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("Storage ready", "driver", cfg.Storage.Driver)
	return repo, nil
}

// NewNotifier выбирает канал уведомлений по notify.kind
func NewNotifier(cfg *config.Config, logger *observability.Logger) (notify.Notifier, error) {
	switch cfg.Notify.Kind {
	case config.NotifyLog:
		return notify.NewLogNotifier(logger), nil
	case config.NotifyDiscord:
		return notify.NewDiscord(cfg.Notify.WebhookURL, cfg.GetNotifyTimeout()), nil
	case config.NotifyEmail:
		return notify.NewEmail(cfg.Notify.SMTP, NewNormalizer(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown notify kind %q", cfg.Notify.Kind)
	}
}

// NewPageFetcher возвращает headless браузер при rod.enabled, иначе HTTP.
// Closer не nil только для браузера.
func NewPageFetcher(cfg *config.Config, logger *observability.Logger) (PageFetcher, io.Closer, error) {
	if !cfg.Rod.Enabled {
		return fetcher.NewFetcher(cfg, logger), nil, nil
	}

	rf, err := fetcher.NewRodFetcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return rf, rf, nil
}

func NewNormalizer(cfg *config.Config) *normalize.Normalizer {
	return normalize.NewNormalizer(normalize.Options{
		TrimNBSP:        cfg.Normalize.TrimNBSP,
		CollapseSpaces:  cfg.Normalize.CollapseSpaces,
		MaxPreviewChars: cfg.Normalize.MaxPreviewChars,
	})
}
