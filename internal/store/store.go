// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"pairsight/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Analyses
	SaveAnalysis(ctx context.Context, analysis *models.PairAnalysis) error
	GetAnalysis(ctx context.Context, symbol string) (*models.PairAnalysis, error)
	GetAllAnalyses(ctx context.Context) ([]models.PairAnalysis, error)

	// Price history
	SavePriceHistory(ctx context.Context, symbol string, points []models.PricePoint) error
	GetPriceHistory(ctx context.Context, symbol string, limit int) ([]models.PricePoint, error)
	CleanupPriceHistory(ctx context.Context, olderThan time.Time) (int64, error)

	// News
	SaveNews(ctx context.Context, articles []models.NewsArticle) (int, error)
	GetNewsForPair(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
	GetRecentNews(ctx context.Context, limit int) ([]models.NewsArticle, error)
	CleanupNews(ctx context.Context, olderThan time.Time) (int64, error)

	// Run metadata
	GetLastRun(ctx context.Context, job string) (time.Time, error)
	SetLastRun(ctx context.Context, job string, t time.Time) error

	// Diagnostics
	Stats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Close() error
}

// Stats summarizes the contents of the store.
type Stats struct {
	Analyses     int       `json:"analyses"`
	PricePoints  int       `json:"price_points"`
	NewsArticles int       `json:"news_articles"`
	LastUpdate   time.Time `json:"last_update"`
}
