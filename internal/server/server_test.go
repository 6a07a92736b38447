package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pairsight/internal/config"
	"pairsight/internal/models"
	"pairsight/internal/service"
	"pairsight/internal/store"
)

// memStore is a minimal in-memory DataStore for handler tests.
type memStore struct {
	analyses map[string]*models.PairAnalysis
	history  map[string][]models.PricePoint
}

func newMemStore() *memStore {
	return &memStore{
		analyses: make(map[string]*models.PairAnalysis),
		history:  make(map[string][]models.PricePoint),
	}
}

func (m *memStore) SaveAnalysis(_ context.Context, a *models.PairAnalysis) error {
	cp := *a
	m.analyses[a.Symbol] = &cp
	return nil
}

func (m *memStore) GetAnalysis(_ context.Context, symbol string) (*models.PairAnalysis, error) {
	return m.analyses[symbol], nil
}

func (m *memStore) GetAllAnalyses(_ context.Context) ([]models.PairAnalysis, error) {
	var out []models.PairAnalysis
	for _, a := range m.analyses {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memStore) SavePriceHistory(_ context.Context, symbol string, points []models.PricePoint) error {
	m.history[symbol] = points
	return nil
}

func (m *memStore) GetPriceHistory(_ context.Context, symbol string, _ int) ([]models.PricePoint, error) {
	return m.history[symbol], nil
}

func (m *memStore) CleanupPriceHistory(context.Context, time.Time) (int64, error) { return 0, nil }

func (m *memStore) SaveNews(_ context.Context, a []models.NewsArticle) (int, error) {
	return len(a), nil
}

func (m *memStore) GetNewsForPair(context.Context, string, int) ([]models.NewsArticle, error) {
	return nil, nil
}

func (m *memStore) GetRecentNews(context.Context, int) ([]models.NewsArticle, error) {
	return nil, nil
}

func (m *memStore) CleanupNews(context.Context, time.Time) (int64, error) { return 0, nil }

func (m *memStore) GetLastRun(context.Context, string) (time.Time, error) { return time.Time{}, nil }

func (m *memStore) SetLastRun(context.Context, string, time.Time) error { return nil }

func (m *memStore) Stats(context.Context) (*store.Stats, error) {
	return &store.Stats{Analyses: len(m.analyses)}, nil
}

func (m *memStore) Close() error { return nil }

// stubPrices serves one symbol with a long rising history.
type stubPrices struct{}

func (stubPrices) GetPrice(_ context.Context, symbol string) (*models.PriceQuote, error) {
	return &models.PriceQuote{
		Symbol: symbol, Type: models.PairTypeOf(symbol),
		Price: 160, Change24h: 1.2, Timestamp: time.Now().UTC(), Source: "test",
	}, nil
}

func (stubPrices) GetHistory(_ context.Context, _ string, _ int) ([]models.PricePoint, error) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, 60)
	for i := range points {
		p := 100.0 + float64(i)
		points[i] = models.PricePoint{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      p, High: p + 0.5, Low: p - 0.5, Close: p, Volume: 1000,
		}
	}
	return points, nil
}

type stubNews struct{}

func (stubNews) GetHeadlines(context.Context, string, int) ([]models.NewsArticle, error) {
	return []models.NewsArticle{{Title: "Bitcoin rallies", PublishedAt: time.Now().UTC()}}, nil
}

func newTestServer(t *testing.T, st *memStore) *Server {
	t.Helper()
	cfg := &config.Config{
		Pairs:    config.PairsConfig{Crypto: []string{"BTCUSDT"}, Forex: []string{"EURUSD"}},
		Server:   config.ServerConfig{UpdateSecret: "s3cret", CORSOrigin: "*"},
		Database: config.DatabaseConfig{HistoryDays: 30, NewsRetainHours: 48},
	}
	svc := service.New(st, stubPrices{}, stubNews{}, cfg, nil, zerolog.Nop())
	return New(svc, cfg, NewMetrics(), zerolog.Nop())
}

func TestAnalyzePairEndpoint(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/api/analyze-pair?pair=BTCUSDT", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var analysis models.PairAnalysis
	if err := json.Unmarshal(rec.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if analysis.Symbol != "BTCUSDT" || analysis.Technical == nil {
		t.Errorf("unexpected analysis: %+v", analysis)
	}
}

func TestAnalyzePairPostBody(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-pair", strings.NewReader(`{"pair":"btcusdt"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for lowercase body symbol, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzePairRejectsUnknownSymbol(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/api/analyze-pair?pair=FAKEUSD", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown pair, got %d", rec.Code)
	}
}

func TestAnalyzePairMissingParam(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/api/analyze-pair", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing pair, got %d", rec.Code)
	}
}

func TestGetAnalysisStoredAndMissing(t *testing.T) {
	st := newMemStore()
	st.analyses["EURUSD"] = &models.PairAnalysis{Symbol: "EURUSD", Type: models.PairForex, Price: 1.08}
	srv := newTestServer(t, st)

	req := httptest.NewRequest(http.MethodGet, "/api/get-analysis?pair=EURUSD", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/get-analysis?pair=GBPUSD", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing analysis, got %d", rec.Code)
	}
}

func TestGetAnalysisAll(t *testing.T) {
	st := newMemStore()
	st.analyses["EURUSD"] = &models.PairAnalysis{Symbol: "EURUSD"}
	st.analyses["BTCUSDT"] = &models.PairAnalysis{Symbol: "BTCUSDT"}
	srv := newTestServer(t, st)

	req := httptest.NewRequest(http.MethodGet, "/api/get-analysis", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Count int                   `json:"count"`
		Pairs []models.PairAnalysis `json:"pairs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Count != 2 || len(payload.Pairs) != 2 {
		t.Errorf("expected 2 analyses, got %+v", payload)
	}
}

func TestUpdateAllAuth(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/update-all", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateAllSecretUnconfigured(t *testing.T) {
	srv := newTestServer(t, newMemStore())
	srv.cfg.Server.UpdateSecret = ""

	req := httptest.NewRequest(http.MethodPost, "/api/update-all", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when secret unset, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze-pair", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("expected Authorization allowed, got %q", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	// Drive one request through so counters exist.
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pairsight_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func TestFetchNewsMethodGuard(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/api/fetch-news", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}
}
