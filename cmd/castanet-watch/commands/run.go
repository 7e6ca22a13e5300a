package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"castanet-watch/internal/app"
	"castanet-watch/internal/config"
	"castanet-watch/internal/observability"
	"castanet-watch/internal/scraper"
)

var runOnce *bool

func init() {
	runOnce = runCmd.Flags().Bool("once", false, "Run a single pass even if scheduler.mode is 'interval'.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--once]",
	Short: "Scrapes the listing index, stores qualifying listings and sends notifications.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Close() }()

		ctx, cancel := app.GracefulShutdown(logger, 0)
		defer cancel()

		repo, err := app.OpenRepository(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close storage", "error", err.Error())
			}
		}()

		pageFetcher, closer, err := app.NewPageFetcher(cfg, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			defer func() { _ = closer.Close() }()
		}

		notifier, err := app.NewNotifier(cfg, logger)
		if err != nil {
			return err
		}

		selectors, err := cfg.Selectors()
		if err != nil {
			return fmt.Errorf("failed to load selectors: %w", err)
		}
		s, err := scraper.NewScraper(selectors, app.NewNormalizer(cfg))
		if err != nil {
			return err
		}

		orch := app.NewOrchestrator(cfg, logger, pageFetcher, s, repo, notifier)

		if *runOnce || cfg.Scheduler.Mode == config.ModeOneshot {
			_, err := orch.Run(ctx)
			return err
		}
		return runInterval(ctx, orch, cfg.GetSchedulerInterval(), logger)
	},
}

// runInterval повторяет прогон до сигнала. Ошибка прогона не останавливает расписание.
func runInterval(ctx context.Context, orch *app.Orchestrator, interval time.Duration, logger *observability.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Run failed", "error", err.Error())
		}

		logger.Info("Waiting for next run", "interval", interval.String())

		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}
