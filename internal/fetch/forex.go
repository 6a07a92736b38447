package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "pairsight/internal/errors"
	"pairsight/internal/models"
	"pairsight/internal/resilience"
)

const (
	polygonBaseURL      = "https://api.polygon.io"
	eodhdBaseURL        = "https://eodhd.com/api"
	alphaVantageBaseURL = "https://www.alphavantage.co"
)

// ForexClient fetches forex quotes through a provider chain: Polygon first,
// then EODHD, then Alpha Vantage. History comes from EODHD only.
type ForexClient struct {
	httpClient *http.Client
	keys       Keys
	limiter    *RateLimiter
	breakers   map[string]*resilience.CircuitBreaker

	polygonURL      string
	eodhdURL        string
	alphaVantageURL string
}

// NewForexClient creates a forex client with the provider chain.
func NewForexClient(httpClient *http.Client, keys Keys) *ForexClient {
	return &ForexClient{
		httpClient: httpClient,
		keys:       keys,
		limiter: NewRateLimiter(map[string]time.Duration{
			// Polygon and Alpha Vantage free tiers allow 5 requests/min.
			"polygon":      12 * time.Second,
			"eodhd":        1 * time.Second,
			"alphavantage": 12 * time.Second,
		}),
		breakers: map[string]*resilience.CircuitBreaker{
			"polygon":      resilience.NewCircuitBreaker("polygon", resilience.DefaultCircuitBreakerConfig()),
			"eodhd":        resilience.NewCircuitBreaker("eodhd", resilience.DefaultCircuitBreakerConfig()),
			"alphavantage": resilience.NewCircuitBreaker("alphavantage", resilience.DefaultCircuitBreakerConfig()),
		},
		polygonURL:      polygonBaseURL,
		eodhdURL:        eodhdBaseURL,
		alphaVantageURL: alphaVantageBaseURL,
	}
}

// GetPrice walks the provider chain until one returns a usable quote.
func (f *ForexClient) GetPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	symbol = strings.ToUpper(symbol)

	// A provider whose breaker is open is skipped without burning its
	// rate-limit budget.
	var lastErr error
	if f.keys.Polygon != "" {
		quote, err := f.guarded(ctx, "polygon", symbol, f.polygonPrice)
		if err == nil {
			return quote, nil
		}
		lastErr = err
	}
	if f.keys.EODHD != "" {
		quote, err := f.guarded(ctx, "eodhd", symbol, f.eodhdPrice)
		if err == nil {
			return quote, nil
		}
		lastErr = err
	}
	if f.keys.AlphaVantage != "" {
		quote, err := f.guarded(ctx, "alphavantage", symbol, f.alphaVantagePrice)
		if err == nil {
			return quote, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = apperrors.ErrConfigInvalid
	}
	return nil, apperrors.Wrapf(apperrors.ErrProviderExhausted, "forex price for %s: %v", symbol, lastErr)
}

// guarded runs one provider call through its circuit breaker.
func (f *ForexClient) guarded(ctx context.Context, provider, symbol string, fn func(context.Context, string) (*models.PriceQuote, error)) (*models.PriceQuote, error) {
	var quote *models.PriceQuote
	err := f.breakers[provider].Execute(ctx, func() error {
		var callErr error
		quote, callErr = fn(ctx, symbol)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// GetHistory returns daily candles for the last days days from EODHD.
func (f *ForexClient) GetHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	symbol = strings.ToUpper(symbol)
	if f.keys.EODHD == "" {
		return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, "eodhd api key required for forex history")
	}
	if days <= 0 {
		days = 30
	}

	if err := f.limiter.Wait(ctx, "eodhd"); err != nil {
		return nil, err
	}

	from := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	endpoint := fmt.Sprintf("%s/eod/%s.FOREX?api_token=%s&fmt=json&period=d&from=%s",
		f.eodhdURL, symbol, f.keys.EODHD, from)

	var payload []struct {
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	}
	if err := f.getJSON(ctx, "eodhd", endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, apperrors.NewDataError("history", symbol, "empty eodhd response", apperrors.ErrDataNotFound)
	}

	points := make([]models.PricePoint, 0, len(payload))
	for _, bar := range payload {
		ts, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		points = append(points, models.PricePoint{
			Timestamp: ts.UTC(),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}
	return points, nil
}

func (f *ForexClient) polygonPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	if err := f.limiter.Wait(ctx, "polygon"); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/C:%s/prev?adjusted=true&apiKey=%s",
		f.polygonURL, symbol, f.keys.Polygon)

	var payload struct {
		Results []struct {
			Open   float64 `json:"o"`
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
			TimeMs int64   `json:"t"`
		} `json:"results"`
	}
	if err := f.getJSON(ctx, "polygon", endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 || payload.Results[0].Close == 0 {
		return nil, apperrors.NewDataError("price", symbol, "empty polygon response", apperrors.ErrDataNotFound)
	}

	bar := payload.Results[0]
	change := 0.0
	if bar.Open > 0 {
		change = (bar.Close - bar.Open) / bar.Open * 100
	}

	return &models.PriceQuote{
		Symbol:    symbol,
		Type:      models.PairForex,
		Price:     bar.Close,
		Change24h: change,
		Volume:    bar.Volume,
		Timestamp: time.UnixMilli(bar.TimeMs).UTC(),
		Source:    "polygon",
	}, nil
}

func (f *ForexClient) eodhdPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	if err := f.limiter.Wait(ctx, "eodhd"); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/real-time/%s.FOREX?api_token=%s&fmt=json",
		f.eodhdURL, symbol, f.keys.EODHD)

	var payload struct {
		Close     json.Number `json:"close"`
		ChangeP   json.Number `json:"change_p"`
		Timestamp int64       `json:"timestamp"`
	}
	if err := f.getJSON(ctx, "eodhd", endpoint, &payload); err != nil {
		return nil, err
	}

	price, err := payload.Close.Float64()
	if err != nil || price == 0 {
		return nil, apperrors.NewDataError("price", symbol, "empty eodhd response", apperrors.ErrDataNotFound)
	}
	change, _ := payload.ChangeP.Float64()

	ts := time.Now().UTC()
	if payload.Timestamp > 0 {
		ts = time.Unix(payload.Timestamp, 0).UTC()
	}

	return &models.PriceQuote{
		Symbol:    symbol,
		Type:      models.PairForex,
		Price:     price,
		Change24h: change,
		Timestamp: ts,
		Source:    "eodhd",
	}, nil
}

func (f *ForexClient) alphaVantagePrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	if len(symbol) != 6 {
		return nil, apperrors.Wrapf(apperrors.ErrSymbolUnsupported, "cannot split %s into currency legs", symbol)
	}
	base, quote := symbol[:3], symbol[3:]

	if err := f.limiter.Wait(ctx, "alphavantage"); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/query?function=CURRENCY_EXCHANGE_RATE&from_currency=%s&to_currency=%s&apikey=%s",
		f.alphaVantageURL, base, quote, f.keys.AlphaVantage)

	var payload struct {
		Rate struct {
			ExchangeRate string `json:"5. Exchange Rate"`
		} `json:"Realtime Currency Exchange Rate"`
	}
	if err := f.getJSON(ctx, "alphavantage", endpoint, &payload); err != nil {
		return nil, err
	}

	price, err := strconv.ParseFloat(payload.Rate.ExchangeRate, 64)
	if err != nil || price == 0 {
		return nil, apperrors.NewDataError("price", symbol, "empty alphavantage response", apperrors.ErrDataNotFound)
	}

	// Alpha Vantage's exchange rate endpoint carries no 24h change.
	return &models.PriceQuote{
		Symbol:    symbol,
		Type:      models.PairForex,
		Price:     price,
		Timestamp: time.Now().UTC(),
		Source:    "alphavantage",
	}, nil
}

func (f *ForexClient) getJSON(ctx context.Context, provider, endpoint string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.Wrapf(err, "building %s request", provider)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return apperrors.NewFetchError(provider, endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.NewFetchError(provider, endpoint, resp.StatusCode, apperrors.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.NewFetchError(provider, endpoint, resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return apperrors.NewFetchError(provider, endpoint, resp.StatusCode, err)
	}
	return nil
}
