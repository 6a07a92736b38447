package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pairsight/internal/config"
	"pairsight/internal/fetch"
	"pairsight/internal/logging"
	"pairsight/internal/notify"
	"pairsight/internal/service"
	"pairsight/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   store.DataStore
	Clients *fetch.Clients
	Service *service.Service
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Database.Path).Msg("SQLite store initialized")
	}

	app.Clients = fetch.NewClients(fetch.Keys{
		AlphaVantage: cfg.Credentials.AlphaVantage.APIKey,
		Polygon:      cfg.Credentials.Polygon.APIKey,
		EODHD:        cfg.Credentials.EODHD.APIKey,
		NewsAPI:      cfg.Credentials.NewsAPI.APIKey,
	})

	var notifier service.Notifier
	if cfg.Notify.Enabled && cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(cfg.Notify.Telegram)
		if err != nil {
			logger.Warn().Err(err).Msg("Telegram notifier unavailable")
		} else {
			notifier = tg
			logger.Debug().Msg("Telegram notifier initialized")
		}
	}

	if app.Store != nil {
		app.Service = service.New(app.Store, app.Clients, app.Clients, cfg, notifier, logger)
	}

	rootCmd := &cobra.Command{
		Use:   "pairsight",
		Short: "Pairsight - technical analysis and signals for crypto and forex pairs",
		Long: `Pairsight computes technical indicators (RSI, MACD, Bollinger Bands, ATR,
support/resistance, trend, volume) over OHLCV history and fuses them into
LONG/SHORT/NEUTRAL signals with confidence and trade levels.

Run 'pairsight serve' for the HTTP API, or use the commands below directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/pairsight)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newUpdateCmd(app))
	rootCmd.AddCommand(newNewsCmd(app))
	rootCmd.AddCommand(newStatsCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Pairsight v%s\n", Version)
			}
		},
	}
}
