package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"castanet-watch/internal/app"
)

var statsList *bool

func init() {
	statsList = statsCmd.Flags().Bool("list", false, "Print every stored listing.")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats [--list]",
	Short: "Prints the number of stored listings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Close() }()

		ctx := cmd.Context()
		repo, err := app.OpenRepository(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()

		count, err := repo.CountListings(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d listings\n", cfg.Storage.Driver, count)

		if !*statsList {
			return nil
		}

		records, err := repo.ListListings(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-40s %10s %12s  %s\n",
				rec.CreatedAt.Format("2006-01-02 15:04"), rec.Model, rec.Price, rec.Mileage, rec.URL)
		}
		return nil
	},
}
