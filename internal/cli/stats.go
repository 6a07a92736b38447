package cli

import (
	"github.com/spf13/cobra"

	apperrors "pairsight/internal/errors"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Service == nil || app.Store == nil {
				return apperrors.Wrap(apperrors.ErrDatabaseError, "store unavailable")
			}

			stats, err := app.Service.Stats(cmd.Context())
			if err != nil {
				return err
			}

			lastRun, err := app.Store.GetLastRun(cmd.Context(), "update-all")
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"stats":    stats,
					"last_run": lastRun,
				})
			}

			output.Bold("Store")
			output.Printf("  Analyses:      %d\n", stats.Analyses)
			output.Printf("  Price points:  %d\n", stats.PricePoints)
			output.Printf("  News articles: %d\n", stats.NewsArticles)
			if !stats.LastUpdate.IsZero() {
				output.Printf("  Last write:    %s\n", stats.LastUpdate.Format(app.Config.UI.DateFormat+" "+app.Config.UI.TimeFormat))
			}
			if !lastRun.IsZero() {
				output.Printf("  Last bulk run: %s\n", lastRun.Format(app.Config.UI.DateFormat+" "+app.Config.UI.TimeFormat))
			}
			return nil
		},
	}
}
