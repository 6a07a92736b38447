package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Pairsight Configuration

[pairs]
# Crypto pairs analyzed against CoinGecko
crypto = ["BTCUSDT", "ETHUSDT", "ETCUSDT", "SOLUSDT", "DOGEUSDT"]
# Forex pairs analyzed against Polygon/EODHD/Alpha Vantage
forex = ["EURUSD", "GBPUSD", "USDJPY", "GBPJPY", "AUDUSD", "USDCAD"]

[server]
# Listen address for the HTTP API
addr = ":8080"
# Bearer token required by POST /api/update-all (also via UPDATE_SECRET_KEY)
update_secret = ""
# Allowed CORS origin
cors_origin = "*"

[database]
# SQLite database file path
path = ""
# Days of price history to retain per symbol
history_days = 30
# Hours of news articles to retain
news_retain_hours = 48

[schedule]
# Run the background scheduler inside the server process
enabled = false
# Cron expression for the full-universe analysis run
update_cron = "*/15 * * * *"
# Cron expression for the news refresh
news_cron = "5 * * * *"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"

[notify]
# Enable notifications for high-confidence signals
enabled = false
# Minimum signal confidence that triggers a notification
confidence_threshold = 75.0

[notify.telegram]
enabled = false
bot_token = ""
chat_id = 0

[logging]
level = "info"
console = true
file = true
`

const credentialsTemplate = `# Pairsight Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[alphavantage]
api_key = ""

[polygon]
api_key = ""

[eodhd]
api_key = ""

[newsapi]
api_key = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return nil
}
