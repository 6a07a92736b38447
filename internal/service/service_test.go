package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pairsight/internal/config"
	apperrors "pairsight/internal/errors"
	"pairsight/internal/models"
	"pairsight/internal/store"
)

// fakeStore is an in-memory DataStore.
type fakeStore struct {
	analyses map[string]*models.PairAnalysis
	history  map[string][]models.PricePoint
	news     []models.NewsArticle
	lastRun  map[string]time.Time
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		analyses: make(map[string]*models.PairAnalysis),
		history:  make(map[string][]models.PricePoint),
		lastRun:  make(map[string]time.Time),
	}
}

func (f *fakeStore) SaveAnalysis(_ context.Context, a *models.PairAnalysis) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *a
	f.analyses[a.Symbol] = &cp
	return nil
}

func (f *fakeStore) GetAnalysis(_ context.Context, symbol string) (*models.PairAnalysis, error) {
	return f.analyses[symbol], nil
}

func (f *fakeStore) GetAllAnalyses(_ context.Context) ([]models.PairAnalysis, error) {
	var out []models.PairAnalysis
	for _, a := range f.analyses {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) SavePriceHistory(_ context.Context, symbol string, points []models.PricePoint) error {
	f.history[symbol] = append([]models.PricePoint(nil), points...)
	return nil
}

func (f *fakeStore) GetPriceHistory(_ context.Context, symbol string, _ int) ([]models.PricePoint, error) {
	return f.history[symbol], nil
}

func (f *fakeStore) CleanupPriceHistory(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeStore) SaveNews(_ context.Context, articles []models.NewsArticle) (int, error) {
	f.news = append(f.news, articles...)
	return len(articles), nil
}

func (f *fakeStore) GetNewsForPair(_ context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	var out []models.NewsArticle
	for _, a := range f.news {
		for _, p := range a.RelevantPairs {
			if p == symbol {
				out = append(out, a)
				break
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetRecentNews(context.Context, int) ([]models.NewsArticle, error) {
	return f.news, nil
}

func (f *fakeStore) CleanupNews(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeStore) GetLastRun(_ context.Context, job string) (time.Time, error) {
	return f.lastRun[job], nil
}

func (f *fakeStore) SetLastRun(_ context.Context, job string, t time.Time) error {
	f.lastRun[job] = t
	return nil
}

func (f *fakeStore) Stats(context.Context) (*store.Stats, error) {
	return &store.Stats{Analyses: len(f.analyses)}, nil
}

func (f *fakeStore) Close() error { return nil }

// fakePrices serves canned quotes and history.
type fakePrices struct {
	quotes     map[string]*models.PriceQuote
	history    map[string][]models.PricePoint
	priceErr   error
	historyErr error
}

func (f *fakePrices) GetPrice(_ context.Context, symbol string) (*models.PriceQuote, error) {
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, apperrors.ErrSymbolNotFound
	}
	return q, nil
}

func (f *fakePrices) GetHistory(_ context.Context, symbol string, _ int) ([]models.PricePoint, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[symbol], nil
}

// fakeNews serves canned headlines.
type fakeNews struct {
	articles []models.NewsArticle
	err      error
}

func (f *fakeNews) GetHeadlines(context.Context, string, int) ([]models.NewsArticle, error) {
	return f.articles, f.err
}

// recordingNotifier captures notified analyses.
type recordingNotifier struct {
	notified []string
	err      error
}

func (r *recordingNotifier) NotifySignal(_ context.Context, a *models.PairAnalysis) error {
	r.notified = append(r.notified, a.Symbol)
	return r.err
}

func testConfig() *config.Config {
	return &config.Config{
		Pairs: config.PairsConfig{
			Crypto: []string{"BTCUSDT"},
			Forex:  []string{"EURUSD"},
		},
		Database: config.DatabaseConfig{HistoryDays: 30, NewsRetainHours: 48},
		Notify:   config.NotifyConfig{Enabled: false, ConfidenceThreshold: 75},
	}
}

func risingHistory(n int) []models.PricePoint {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, n)
	for i := range points {
		p := 100.0 + float64(i)
		points[i] = models.PricePoint{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      p, High: p + 0.5, Low: p - 0.5, Close: p,
			Volume: 1000,
		}
	}
	return points
}

func btcQuote() *models.PriceQuote {
	return &models.PriceQuote{
		Symbol: "BTCUSDT", Type: models.PairCrypto,
		Price: 160.0, Change24h: 1.5, Volume: 1e9,
		Timestamp: time.Now().UTC(), Source: "coingecko",
	}
}

func TestAnalyzePairFullPipeline(t *testing.T) {
	st := newFakeStore()
	prices := &fakePrices{
		quotes:  map[string]*models.PriceQuote{"BTCUSDT": btcQuote()},
		history: map[string][]models.PricePoint{"BTCUSDT": risingHistory(60)},
	}
	svc := New(st, prices, &fakeNews{}, testConfig(), nil, zerolog.Nop())

	analysis, err := svc.AnalyzePair(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("AnalyzePair: %v", err)
	}

	if analysis.Technical == nil {
		t.Fatal("expected technical snapshot for 60-point history")
	}
	if analysis.Signal.Direction == models.DirectionInsufficientData {
		t.Errorf("unexpected fallback signal: %+v", analysis.Signal)
	}
	if analysis.Price != 160.0 || analysis.Source != "coingecko" {
		t.Errorf("quote fields not carried over: %+v", analysis)
	}

	// Persisted both the document and the fetched history.
	if st.analyses["BTCUSDT"] == nil {
		t.Error("analysis not persisted")
	}
	if len(st.history["BTCUSDT"]) != 60 {
		t.Errorf("expected 60 persisted points, got %d", len(st.history["BTCUSDT"]))
	}
}

func TestAnalyzePairReturnsResultWhenPersistFails(t *testing.T) {
	st := newFakeStore()
	st.saveErr = apperrors.ErrDatabaseError
	prices := &fakePrices{
		quotes:  map[string]*models.PriceQuote{"BTCUSDT": btcQuote()},
		history: map[string][]models.PricePoint{"BTCUSDT": risingHistory(60)},
	}
	svc := New(st, prices, &fakeNews{}, testConfig(), nil, zerolog.Nop())

	analysis, err := svc.AnalyzePair(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if analysis == nil || analysis.Technical == nil {
		t.Fatal("expected full analysis despite store failure")
	}
}

func TestAnalyzePairShortHistoryFallback(t *testing.T) {
	st := newFakeStore()
	prices := &fakePrices{
		quotes:  map[string]*models.PriceQuote{"BTCUSDT": btcQuote()},
		history: map[string][]models.PricePoint{"BTCUSDT": risingHistory(5)},
	}
	svc := New(st, prices, &fakeNews{}, testConfig(), nil, zerolog.Nop())

	analysis, err := svc.AnalyzePair(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("AnalyzePair: %v", err)
	}

	if analysis.Technical != nil {
		t.Error("expected nil technical for 5-point history")
	}
	if analysis.Signal.Direction != models.DirectionInsufficientData {
		t.Errorf("expected fallback signal, got %s", analysis.Signal.Direction)
	}
	if analysis.Signal.Confidence != 0 {
		t.Errorf("expected zero confidence, got %v", analysis.Signal.Confidence)
	}
}

func TestAnalyzePairHistoryStoreFallback(t *testing.T) {
	st := newFakeStore()
	st.history["BTCUSDT"] = risingHistory(60)
	prices := &fakePrices{
		quotes:     map[string]*models.PriceQuote{"BTCUSDT": btcQuote()},
		historyErr: errors.New("provider down"),
	}
	svc := New(st, prices, &fakeNews{}, testConfig(), nil, zerolog.Nop())

	analysis, err := svc.AnalyzePair(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("AnalyzePair: %v", err)
	}
	if analysis.Technical == nil {
		t.Error("expected analysis from stored history")
	}
}

func TestAnalyzePairPriceFailure(t *testing.T) {
	st := newFakeStore()
	prices := &fakePrices{priceErr: apperrors.ErrRateLimited}
	svc := New(st, prices, &fakeNews{}, testConfig(), nil, zerolog.Nop())

	_, err := svc.AnalyzePair(context.Background(), "BTCUSDT")
	if err == nil {
		t.Fatal("expected error when price fetch fails")
	}
	if !apperrors.Is(err, apperrors.ErrRateLimited) {
		t.Errorf("expected wrapped ErrRateLimited, got %v", err)
	}
}

func TestAnalyzePairAttachesNews(t *testing.T) {
	st := newFakeStore()
	st.news = []models.NewsArticle{
		{Title: "Bitcoin rallies", RelevantPairs: []string{"BTCUSDT"}, ImpactScore: 6},
		{Title: "Euro steady", RelevantPairs: []string{"EURUSD"}, ImpactScore: 4},
	}
	prices := &fakePrices{
		quotes:  map[string]*models.PriceQuote{"BTCUSDT": btcQuote()},
		history: map[string][]models.PricePoint{"BTCUSDT": risingHistory(60)},
	}
	svc := New(st, prices, &fakeNews{}, testConfig(), nil, zerolog.Nop())

	analysis, err := svc.AnalyzePair(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("AnalyzePair: %v", err)
	}
	if len(analysis.News) != 1 || analysis.News[0].Title != "Bitcoin rallies" {
		t.Errorf("unexpected attached news: %+v", analysis.News)
	}
}

func TestUpdateAllContinuesOnFailure(t *testing.T) {
	st := newFakeStore()
	prices := &fakePrices{
		// Only BTCUSDT resolves; EURUSD fails.
		quotes:  map[string]*models.PriceQuote{"BTCUSDT": btcQuote()},
		history: map[string][]models.PricePoint{"BTCUSDT": risingHistory(60)},
	}
	svc := New(st, prices, &fakeNews{}, testConfig(), nil, zerolog.Nop())

	report, err := svc.UpdateAll(context.Background())
	if err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}
	if report.Updated != 1 || report.Failed != 1 {
		t.Errorf("expected 1 updated / 1 failed, got %+v", report)
	}
	if len(report.FailedSymbols) != 1 || report.FailedSymbols[0] != "EURUSD" {
		t.Errorf("unexpected failed symbols: %v", report.FailedSymbols)
	}
	if st.lastRun["update-all"].IsZero() {
		t.Error("expected run time recorded")
	}
}

func TestRefreshNewsScoresAndStores(t *testing.T) {
	st := newFakeStore()
	headlines := &fakeNews{articles: []models.NewsArticle{
		{Title: "Bitcoin surges on ETF inflows", PublishedAt: time.Now().UTC()},
		{Title: "Unrelated story", PublishedAt: time.Now().UTC()},
	}}
	svc := New(st, &fakePrices{}, headlines, testConfig(), nil, zerolog.Nop())
	inserted, err := svc.RefreshNews(context.Background())
	if err != nil {
		t.Fatalf("RefreshNews: %v", err)
	}
	if inserted != 1 {
		t.Errorf("expected 1 relevant article stored, got %d", inserted)
	}
	if len(st.news) != 1 || len(st.news[0].RelevantPairs) == 0 {
		t.Errorf("stored article not scored: %+v", st.news)
	}
}

func TestNotifierCalledAboveThreshold(t *testing.T) {
	st := newFakeStore()
	prices := &fakePrices{
		quotes:  map[string]*models.PriceQuote{"BTCUSDT": btcQuote()},
		history: map[string][]models.PricePoint{"BTCUSDT": risingHistory(60)},
	}
	notifier := &recordingNotifier{}
	cfg := testConfig()
	cfg.Notify.Enabled = true
	cfg.Notify.ConfidenceThreshold = 0 // any directional signal notifies
	svc := New(st, prices, &fakeNews{}, cfg, notifier, zerolog.Nop())

	analysis, err := svc.AnalyzePair(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("AnalyzePair: %v", err)
	}

	dir := analysis.Signal.Direction
	isDirectional := dir == models.DirectionLong || dir == models.DirectionShort
	if isDirectional && len(notifier.notified) != 1 {
		t.Errorf("expected notification for directional signal, got %v", notifier.notified)
	}
	if !isDirectional && len(notifier.notified) != 0 {
		t.Errorf("unexpected notification for %s signal", dir)
	}
}

func TestNotifierSkippedBelowThreshold(t *testing.T) {
	st := newFakeStore()
	prices := &fakePrices{
		quotes:  map[string]*models.PriceQuote{"BTCUSDT": btcQuote()},
		history: map[string][]models.PricePoint{"BTCUSDT": risingHistory(60)},
	}
	notifier := &recordingNotifier{}
	cfg := testConfig()
	cfg.Notify.Enabled = true
	cfg.Notify.ConfidenceThreshold = 100
	svc := New(st, prices, &fakeNews{}, cfg, notifier, zerolog.Nop())

	if _, err := svc.AnalyzePair(context.Background(), "BTCUSDT"); err != nil {
		t.Fatalf("AnalyzePair: %v", err)
	}
	if len(notifier.notified) != 0 {
		t.Errorf("expected no notification below threshold, got %v", notifier.notified)
	}
}

func TestGetAnalysisMissing(t *testing.T) {
	svc := New(newFakeStore(), &fakePrices{}, &fakeNews{}, testConfig(), nil, zerolog.Nop())

	_, err := svc.GetAnalysis(context.Background(), "GBPUSD")
	if !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("expected ErrDataNotFound, got %v", err)
	}
}
