package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "pairsight/internal/errors"
	"pairsight/internal/schedule"
	"pairsight/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var withScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve exposes the analysis service over HTTP: /api/analyze-pair,
/api/get-analysis, /api/update-all (bearer auth), /api/fetch-news,
/api/health and Prometheus /metrics.

With --scheduler (or schedule.enabled in config) the background cron jobs
run inside the server process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Service == nil {
				return apperrors.Wrap(apperrors.ErrDatabaseError, "store unavailable")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if withScheduler || app.Config.Schedule.Enabled {
				sched := schedule.New(app.Service, app.Config.Schedule, app.Logger)
				if err := sched.Start(ctx); err != nil {
					return apperrors.Wrap(err, "starting scheduler")
				}
				defer sched.Stop()
			}

			srv := server.New(app.Service, app.Config, server.NewMetrics(), app.Logger)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().BoolVar(&withScheduler, "scheduler", false, "run the cron scheduler in-process")
	return cmd
}
