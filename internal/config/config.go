// Package config provides configuration management for the pair analysis service.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Pairs       PairsConfig    `mapstructure:"pairs"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Schedule    ScheduleConfig `mapstructure:"schedule"`
	UI          UIConfig       `mapstructure:"ui"`
	Notify      NotifyConfig   `mapstructure:"notify"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// PairsConfig holds the configured symbol universe.
type PairsConfig struct {
	Crypto []string `mapstructure:"crypto"`
	Forex  []string `mapstructure:"forex"`
}

// All returns the full configured universe, crypto first.
func (p PairsConfig) All() []string {
	out := make([]string, 0, len(p.Crypto)+len(p.Forex))
	out = append(out, p.Crypto...)
	out = append(out, p.Forex...)
	return out
}

// Contains reports whether symbol is part of the configured universe.
func (p PairsConfig) Contains(symbol string) bool {
	for _, s := range p.All() {
		if s == symbol {
			return true
		}
	}
	return false
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	UpdateSecret string `mapstructure:"update_secret"`
	CORSOrigin   string `mapstructure:"cors_origin"`
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Path            string `mapstructure:"path"`
	HistoryDays     int    `mapstructure:"history_days"`
	NewsRetainHours int    `mapstructure:"news_retain_hours"`
}

// ScheduleConfig holds cron expressions for the background jobs.
type ScheduleConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	UpdateCron string `mapstructure:"update_cron"`
	NewsCron   string `mapstructure:"news_cron"`
}

// UIConfig holds CLI output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// NotifyConfig holds notification configuration.
type NotifyConfig struct {
	Enabled             bool           `mapstructure:"enabled"`
	ConfidenceThreshold float64        `mapstructure:"confidence_threshold"`
	Telegram            TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Credentials holds external API credentials.
type Credentials struct {
	AlphaVantage APIKeyCredential `mapstructure:"alphavantage"`
	Polygon      APIKeyCredential `mapstructure:"polygon"`
	EODHD        APIKeyCredential `mapstructure:"eodhd"`
	NewsAPI      APIKeyCredential `mapstructure:"newsapi"`
}

// APIKeyCredential holds a single provider API key.
type APIKeyCredential struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/pairsight"
	}
	return filepath.Join(home, ".config", "pairsight")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// First run: write a template and continue on defaults.
			if werr := createTemplateConfig(configDir, name); werr != nil {
				return werr
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("pairs.crypto", []string{"BTCUSDT", "ETHUSDT", "ETCUSDT", "SOLUSDT", "DOGEUSDT"})
	v.SetDefault("pairs.forex", []string{"EURUSD", "GBPUSD", "USDJPY", "GBPJPY", "AUDUSD", "USDCAD"})
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("database.path", filepath.Join(configDir, "pairsight.db"))
	v.SetDefault("database.history_days", 30)
	v.SetDefault("database.news_retain_hours", 48)
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.update_cron", "*/15 * * * *")
	v.SetDefault("schedule.news_cron", "5 * * * *")
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.confidence_threshold", 75.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "pairsight.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Credentials.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Credentials.Polygon.APIKey = v
	}
	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		cfg.Credentials.EODHD.APIKey = v
	}
	if v := os.Getenv("NEWSAPI_KEY"); v != "" {
		cfg.Credentials.NewsAPI.APIKey = v
	}
	if v := os.Getenv("UPDATE_SECRET_KEY"); v != "" {
		cfg.Server.UpdateSecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.Telegram.BotToken = v
	}
	if v := os.Getenv("PAIRSIGHT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Pairs.Crypto) == 0 && len(c.Pairs.Forex) == 0 {
		return fmt.Errorf("pair universe is empty: configure at least one crypto or forex symbol")
	}

	if c.Database.HistoryDays <= 0 {
		return fmt.Errorf("database.history_days must be positive")
	}
	if c.Database.NewsRetainHours <= 0 {
		return fmt.Errorf("database.news_retain_hours must be positive")
	}

	if c.Notify.ConfidenceThreshold < 0 || c.Notify.ConfidenceThreshold > 100 {
		return fmt.Errorf("notify.confidence_threshold must be between 0 and 100")
	}

	if c.Schedule.Enabled {
		if c.Schedule.UpdateCron == "" {
			return fmt.Errorf("schedule.update_cron must be set when scheduling is enabled")
		}
	}

	return nil
}
