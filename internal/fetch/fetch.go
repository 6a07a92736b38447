// Package fetch provides rate-limited clients for the external market data
// providers: CoinGecko for crypto, Polygon, EODHD and Alpha Vantage for
// forex, and NewsAPI for headlines.
package fetch

import (
	"context"
	"net/http"
	"time"

	"pairsight/internal/models"
)

// PriceSource supplies current quotes and OHLCV history for a symbol.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (*models.PriceQuote, error)
	GetHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)
}

// NewsSource supplies raw market headlines.
type NewsSource interface {
	GetHeadlines(ctx context.Context, query string, limit int) ([]models.NewsArticle, error)
}

// Keys holds the provider API keys.
type Keys struct {
	AlphaVantage string
	Polygon      string
	EODHD        string
	NewsAPI      string
}

// Clients bundles one client per provider family behind the source
// interfaces. Crypto symbols route to CoinGecko, everything else to the
// forex chain.
type Clients struct {
	Crypto *CoinGeckoClient
	Forex  *ForexClient
	News   *NewsClient
}

// NewClients builds the full client set sharing one HTTP client.
func NewClients(keys Keys) *Clients {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	return &Clients{
		Crypto: NewCoinGeckoClient(httpClient),
		Forex:  NewForexClient(httpClient, keys),
		News:   NewNewsClient(httpClient, keys.NewsAPI),
	}
}

// GetPrice routes to the provider matching the symbol's pair type.
func (c *Clients) GetPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	if models.PairTypeOf(symbol) == models.PairCrypto {
		return c.Crypto.GetPrice(ctx, symbol)
	}
	return c.Forex.GetPrice(ctx, symbol)
}

// GetHistory routes to the provider matching the symbol's pair type.
func (c *Clients) GetHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if models.PairTypeOf(symbol) == models.PairCrypto {
		return c.Crypto.GetHistory(ctx, symbol, days)
	}
	return c.Forex.GetHistory(ctx, symbol, days)
}

// GetHeadlines proxies to the news client.
func (c *Clients) GetHeadlines(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	return c.News.GetHeadlines(ctx, query, limit)
}
