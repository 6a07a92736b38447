// Package server exposes the analysis service over HTTP: per-pair analysis,
// stored document reads, the authenticated bulk update trigger, news refresh
// and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pairsight/internal/config"
	apperrors "pairsight/internal/errors"
	"pairsight/internal/service"
)

// analysisTimeout bounds one pair analysis; updateTimeout bounds the whole
// universe plus news.
const (
	analysisTimeout = 2 * time.Minute
	updateTimeout   = 20 * time.Minute
)

// Server serves the HTTP API.
type Server struct {
	svc     *service.Service
	cfg     *config.Config
	metrics *Metrics
	logger  zerolog.Logger
	mux     *http.ServeMux
}

// New creates a Server with all routes registered.
func New(svc *service.Service, cfg *config.Config, metrics *Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		svc:     svc,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	s.mux.Handle("/api/analyze-pair", s.instrument("analyze-pair", http.HandlerFunc(s.handleAnalyzePair)))
	s.mux.Handle("/api/get-analysis", s.instrument("get-analysis", http.HandlerFunc(s.handleGetAnalysis)))
	s.mux.Handle("/api/update-all", s.instrument("update-all", s.requireSecret(http.HandlerFunc(s.handleUpdateAll))))
	s.mux.Handle("/api/fetch-news", s.instrument("fetch-news", http.HandlerFunc(s.handleFetchNews)))
	s.mux.Handle("/api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	return s
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.cors(s.mux)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: updateTimeout + time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Server.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// ============================================================================
// Middleware
// ============================================================================

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.cfg.Server.CORSOrigin
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveRequest(endpoint, strconv.Itoa(rec.code), time.Since(start).Seconds())
	})
}

func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := s.cfg.Server.UpdateSecret
		if secret == "" {
			s.writeError(w, http.StatusServiceUnavailable, "update secret not configured")
			return
		}

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != secret {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// Handlers
// ============================================================================

// handleAnalyzePair runs a fresh analysis for one symbol. The symbol comes
// from the ?pair= query on GET or a JSON body on POST.
func (s *Server) handleAnalyzePair(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.readSymbol(w, r)
	if !ok {
		return
	}

	if !s.cfg.Pairs.Contains(symbol) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported pair: %s", symbol))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	analysis, err := s.svc.AnalyzePair(ctx, symbol)
	s.metrics.ObserveAnalysis(symbol, err)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Analysis failed")
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.metrics.ObserveSignal(string(analysis.Signal.Direction))

	s.writeJSON(w, http.StatusOK, analysis)
}

// handleGetAnalysis serves stored documents without recomputing. Without a
// pair parameter it returns every stored analysis.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	symbol := strings.ToUpper(r.URL.Query().Get("pair"))
	if symbol == "" && r.Method == http.MethodPost {
		var body struct {
			Pair string `json:"pair"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			symbol = strings.ToUpper(body.Pair)
		}
	}

	if symbol == "" {
		analyses, err := s.svc.GetAllAnalyses(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"count": len(analyses),
			"pairs": analyses,
		})
		return
	}

	analysis, err := s.svc.GetAnalysis(r.Context(), symbol)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, analysis)
}

// handleUpdateAll triggers a full-universe refresh. Bearer auth is enforced
// by the requireSecret middleware.
func (s *Server) handleUpdateAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), updateTimeout)
	defer cancel()

	report, err := s.svc.UpdateAll(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleFetchNews refreshes the news table on demand.
func (s *Server) handleFetchNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	inserted, err := s.svc.RefreshNews(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}

// handleHealth reports liveness plus store counts.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"stats":  stats,
	})
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Server) readSymbol(w http.ResponseWriter, r *http.Request) (string, bool) {
	var symbol string
	switch r.Method {
	case http.MethodGet:
		symbol = r.URL.Query().Get("pair")
	case http.MethodPost:
		var body struct {
			Pair string `json:"pair"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return "", false
		}
		symbol = body.Pair
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return "", false
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "missing pair parameter")
		return "", false
	}
	return symbol, true
}

func statusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrDataNotFound), apperrors.Is(err, apperrors.ErrSymbolNotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrSymbolUnsupported), apperrors.Is(err, apperrors.ErrInputValidation):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case apperrors.Is(err, apperrors.ErrConfigInvalid):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}
