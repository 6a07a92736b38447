package cli

import (
	"time"

	"github.com/spf13/cobra"

	apperrors "pairsight/internal/errors"
)

func newUpdateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Analyze the whole configured pair universe",
		Long: `Update runs the full pipeline for every configured crypto and forex
pair, refreshes news and prunes stale history. One failing pair does not
abort the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Service == nil {
				return apperrors.Wrap(apperrors.ErrDatabaseError, "store unavailable")
			}

			report, err := app.Service.UpdateAll(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Success("Updated %d pairs in %s", report.Updated, report.Duration.Round(time.Second))
			if report.NewsInserted > 0 {
				output.Info("Stored %d new articles", report.NewsInserted)
			}
			if report.Failed > 0 {
				output.Warning("Failed: %v", report.FailedSymbols)
			}
			return nil
		},
	}
}
