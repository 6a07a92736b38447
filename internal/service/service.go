// Package service orchestrates fetching, analysis, persistence and
// notification for the configured pair universe.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pairsight/internal/analysis/indicators"
	"pairsight/internal/analysis/signal"
	"pairsight/internal/config"
	apperrors "pairsight/internal/errors"
	"pairsight/internal/fetch"
	"pairsight/internal/logging"
	"pairsight/internal/models"
	"pairsight/internal/news"
	"pairsight/internal/store"
)

const (
	// newsPerPair is how many articles get attached to a served analysis.
	newsPerPair = 5
	// historyDays is how much provider history one analysis pulls.
	historyDays = 30
	// pairDelay spaces the per-symbol work during a bulk run so the
	// provider rate limits are not the only thing slowing us down.
	pairDelay = 500 * time.Millisecond
)

// Notifier delivers high-confidence signals to an external channel.
type Notifier interface {
	NotifySignal(ctx context.Context, analysis *models.PairAnalysis) error
}

// Service wires the data sources, the analysis pipeline and the store.
type Service struct {
	store     store.DataStore
	prices    fetch.PriceSource
	headlines fetch.NewsSource
	scorer    *news.Scorer
	notifier  Notifier
	cfg       *config.Config
	logger    zerolog.Logger
}

// New creates a Service. notifier may be nil when notifications are off.
func New(st store.DataStore, prices fetch.PriceSource, headlines fetch.NewsSource, cfg *config.Config, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:     st,
		prices:    prices,
		headlines: headlines,
		scorer:    news.NewScorer(cfg.Pairs.All()),
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
	}
}

// AnalyzePair runs the full pipeline for one symbol: fetch the current
// price and history, compute indicators and a signal, persist and return
// the analysis document. With fewer than the minimum history points the
// document carries a fallback signal and no technical section.
func (s *Service) AnalyzePair(ctx context.Context, symbol string) (*models.PairAnalysis, error) {
	logger := logging.WithSymbol(s.logger, symbol)

	start := time.Now()
	quote, err := s.prices.GetPrice(ctx, symbol)
	logging.LogFetch(logger, "price", symbol, time.Since(start), err)
	if err != nil {
		return nil, apperrors.NewAnalysisError(symbol, "fetch price", err)
	}

	history, err := s.loadHistory(ctx, logger, symbol)
	if err != nil {
		return nil, apperrors.NewAnalysisError(symbol, "load history", err)
	}

	analysis := &models.PairAnalysis{
		Symbol:    quote.Symbol,
		Type:      quote.Type,
		Price:     quote.Price,
		Change24h: quote.Change24h,
		Volume:    quote.Volume,
		Timestamp: time.Now().UTC(),
		Source:    quote.Source,
	}

	analyzer, err := indicators.NewAnalyzer(history)
	if err != nil {
		logger.Warn().Int("points", len(history)).Msg("Not enough history, using fallback signal")
		analysis.Signal = signal.Fallback(quote.Price)
	} else {
		tech := analyzer.Snapshot()
		analysis.Technical = tech
		analysis.Signal = signal.NewGenerator(tech, quote.Price).Generate()
	}

	if articles, err := s.store.GetNewsForPair(ctx, symbol, newsPerPair); err == nil {
		analysis.News = articles
	}

	if err := s.store.SaveAnalysis(ctx, analysis); err != nil {
		// The caller still gets the result, it just is not served from
		// the store until the next successful run.
		logger.Warn().Err(err).Msg("Persisting analysis failed")
	}

	logging.LogSignal(logger, symbol, string(analysis.Signal.Direction), analysis.Signal.Confidence, analysis.Signal.Entry)

	s.maybeNotify(ctx, logger, analysis)

	return analysis, nil
}

// loadHistory fetches provider history and persists it; when the provider
// fails, stored history keeps the analysis alive.
func (s *Service) loadHistory(ctx context.Context, logger zerolog.Logger, symbol string) ([]models.PricePoint, error) {
	start := time.Now()
	history, err := s.prices.GetHistory(ctx, symbol, historyDays)
	logging.LogFetch(logger, "history", symbol, time.Since(start), err)
	if err == nil {
		if saveErr := s.store.SavePriceHistory(ctx, symbol, history); saveErr != nil {
			logger.Warn().Err(saveErr).Msg("Failed to persist price history")
		}
		return history, nil
	}

	logger.Warn().Err(err).Msg("Provider history failed, falling back to store")
	stored, storeErr := s.store.GetPriceHistory(ctx, symbol, 0)
	if storeErr != nil {
		return nil, apperrors.Wrap(storeErr, "store fallback")
	}
	if len(stored) == 0 {
		return nil, err
	}
	return stored, nil
}

func (s *Service) maybeNotify(ctx context.Context, logger zerolog.Logger, analysis *models.PairAnalysis) {
	if s.notifier == nil || !s.cfg.Notify.Enabled {
		return
	}
	if analysis.Signal.Confidence < s.cfg.Notify.ConfidenceThreshold {
		return
	}
	dir := analysis.Signal.Direction
	if dir != models.DirectionLong && dir != models.DirectionShort {
		return
	}
	if err := s.notifier.NotifySignal(ctx, analysis); err != nil {
		logger.Warn().Err(err).Msg("Signal notification failed")
	}
}

// UpdateReport summarizes one bulk update run.
type UpdateReport struct {
	Updated       int           `json:"updated"`
	Failed        int           `json:"failed"`
	FailedSymbols []string      `json:"failed_symbols,omitempty"`
	NewsInserted  int           `json:"news_inserted"`
	Duration      time.Duration `json:"-"`
	DurationMs    int64         `json:"duration_ms"`
}

// UpdateAll analyzes the whole configured universe, refreshes news and
// prunes stale rows. One failing symbol does not abort the run.
func (s *Service) UpdateAll(ctx context.Context) (*UpdateReport, error) {
	start := time.Now()
	report := &UpdateReport{}

	if inserted, err := s.RefreshNews(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("News refresh failed during bulk update")
	} else {
		report.NewsInserted = inserted
	}

	for i, symbol := range s.cfg.Pairs.All() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(pairDelay):
			}
		}

		if _, err := s.AnalyzePair(ctx, symbol); err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("Pair update failed")
			report.Failed++
			report.FailedSymbols = append(report.FailedSymbols, symbol)
			continue
		}
		report.Updated++
	}

	s.cleanup(ctx)

	if err := s.store.SetLastRun(ctx, "update-all", time.Now().UTC()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record run time")
	}

	report.Duration = time.Since(start)
	report.DurationMs = report.Duration.Milliseconds()
	logging.LogUpdate(s.logger, report.Updated, report.Failed, report.Duration)
	return report, nil
}

// RefreshNews pulls fresh headlines, scores them against the universe and
// stores the relevant ones. Returns the number of newly stored articles.
func (s *Service) RefreshNews(ctx context.Context) (int, error) {
	articles, err := s.headlines.GetHeadlines(ctx, "", 50)
	if err != nil {
		return 0, apperrors.Wrap(err, "fetching headlines")
	}

	scored := s.scorer.ScoreAll(articles)
	inserted, err := s.store.SaveNews(ctx, scored)
	if err != nil {
		return 0, apperrors.Wrap(err, "storing news")
	}

	if err := s.store.SetLastRun(ctx, "refresh-news", time.Now().UTC()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record news run time")
	}

	s.logger.Info().Int("fetched", len(articles)).Int("relevant", len(scored)).Int("inserted", inserted).Msg("News refreshed")
	return inserted, nil
}

// GetAnalysis serves the stored document for one symbol.
func (s *Service) GetAnalysis(ctx context.Context, symbol string) (*models.PairAnalysis, error) {
	analysis, err := s.store.GetAnalysis(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, apperrors.Wrapf(apperrors.ErrDataNotFound, "no analysis for %s", symbol)
	}
	return analysis, nil
}

// GetAllAnalyses serves every stored document.
func (s *Service) GetAllAnalyses(ctx context.Context) ([]models.PairAnalysis, error) {
	return s.store.GetAllAnalyses(ctx)
}

// Stats exposes store counts for diagnostics.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) cleanup(ctx context.Context) {
	historyCutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.Database.HistoryDays)
	if n, err := s.store.CleanupPriceHistory(ctx, historyCutoff); err != nil {
		s.logger.Warn().Err(err).Msg("Price history cleanup failed")
	} else if n > 0 {
		s.logger.Debug().Int64("deleted", n).Msg("Pruned price history")
	}

	newsCutoff := time.Now().UTC().Add(-time.Duration(s.cfg.Database.NewsRetainHours) * time.Hour)
	if n, err := s.store.CleanupNews(ctx, newsCutoff); err != nil {
		s.logger.Warn().Err(err).Msg("News cleanup failed")
	} else if n > 0 {
		s.logger.Debug().Int64("deleted", n).Msg("Pruned news")
	}
}
