package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"castanet-watch/internal/config"
	"castanet-watch/internal/observability"
)

var configPath *string

var rootCmd = &cobra.Command{
	Use:           "castanet-watch",
	Short:         "castanet-watch scrapes vehicle classifieds, stores new listings and notifies about cheap ones.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "configs/config.yaml", "Path to the YAML config.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup загружает конфиг и поднимает логгер. Логгер закрывает вызывающий.
func setup() (*config.Config, *observability.Logger, error) {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(observability.Options{
		LogPath:    cfg.Observability.LogPath,
		LogLevel:   cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
	})

	return cfg, logger, nil
}
