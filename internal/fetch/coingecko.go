package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "pairsight/internal/errors"
	"pairsight/internal/models"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// coinGeckoIDs maps the configured crypto symbols to CoinGecko coin IDs.
var coinGeckoIDs = map[string]string{
	"BTCUSDT":  "bitcoin",
	"ETHUSDT":  "ethereum",
	"ETCUSDT":  "ethereum-classic",
	"SOLUSDT":  "solana",
	"DOGEUSDT": "dogecoin",
	"XRPUSDT":  "ripple",
	"ADAUSDT":  "cardano",
	"BNBUSDT":  "binancecoin",
}

// CoinGeckoClient fetches crypto quotes and history from the free
// CoinGecko API. No key required, but the free tier is tightly limited.
type CoinGeckoClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *RateLimiter
}

// NewCoinGeckoClient creates a CoinGecko client.
func NewCoinGeckoClient(httpClient *http.Client) *CoinGeckoClient {
	return &CoinGeckoClient{
		httpClient: httpClient,
		baseURL:    coinGeckoBaseURL,
		limiter: NewRateLimiter(map[string]time.Duration{
			"coingecko": 1500 * time.Millisecond,
		}),
	}
}

// GetPrice returns the current USD quote for a crypto symbol.
func (c *CoinGeckoClient) GetPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	id, ok := coinGeckoIDs[strings.ToUpper(symbol)]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrSymbolUnsupported, "no coingecko id for %s", symbol)
	}

	if err := c.limiter.Wait(ctx, "coingecko"); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_24hr_vol=true",
		c.baseURL, url.QueryEscape(id))

	var payload map[string]struct {
		USD       float64 `json:"usd"`
		USDChange float64 `json:"usd_24h_change"`
		USDVolume float64 `json:"usd_24h_vol"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	quote, ok := payload[id]
	if !ok || quote.USD == 0 {
		return nil, apperrors.NewDataError("price", symbol, "empty coingecko response", apperrors.ErrDataNotFound)
	}

	return &models.PriceQuote{
		Symbol:    strings.ToUpper(symbol),
		Type:      models.PairCrypto,
		Price:     quote.USD,
		Change24h: quote.USDChange,
		Volume:    quote.USDVolume,
		Timestamp: time.Now().UTC(),
		Source:    "coingecko",
	}, nil
}

// GetHistory returns daily price points for the last days days. CoinGecko's
// market chart only carries close prices and volumes, so open, high and low
// collapse onto the close.
func (c *CoinGeckoClient) GetHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	id, ok := coinGeckoIDs[strings.ToUpper(symbol)]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrSymbolUnsupported, "no coingecko id for %s", symbol)
	}
	if days <= 0 {
		days = 30
	}

	if err := c.limiter.Wait(ctx, "coingecko"); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		c.baseURL, url.PathEscape(id), days)

	var payload struct {
		Prices       [][2]float64 `json:"prices"`
		TotalVolumes [][2]float64 `json:"total_volumes"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Prices) == 0 {
		return nil, apperrors.NewDataError("history", symbol, "empty market chart", apperrors.ErrDataNotFound)
	}

	volumeAt := make(map[int64]float64, len(payload.TotalVolumes))
	for _, v := range payload.TotalVolumes {
		volumeAt[int64(v[0])] = v[1]
	}

	points := make([]models.PricePoint, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		ms, price := int64(p[0]), p[1]
		points = append(points, models.PricePoint{
			Timestamp: time.UnixMilli(ms).UTC(),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volumeAt[ms],
		})
	}
	return points, nil
}

func (c *CoinGeckoClient) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.Wrap(err, "building coingecko request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewFetchError("coingecko", endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.NewFetchError("coingecko", endpoint, resp.StatusCode, apperrors.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.NewFetchError("coingecko", endpoint, resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return apperrors.NewFetchError("coingecko", endpoint, resp.StatusCode, err)
	}
	return nil
}
