// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pairsight/internal/models"
)

// SQLiteStore implements DataStore using SQLite. Analyses are stored as one
// JSON document per symbol; price history and news are relational with
// uniqueness constraints doing the dedup.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One analysis document per symbol, upserted on every run
	CREATE TABLE IF NOT EXISTS pairs_analysis (
		symbol TEXT PRIMARY KEY,
		pair_type TEXT NOT NULL,
		document TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- OHLCV price history per symbol
	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timestamp)
	);

	-- News articles, deduplicated by title and source
	CREATE TABLE IF NOT EXISTS news (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		source TEXT NOT NULL,
		url TEXT,
		published_at DATETIME,
		sentiment REAL NOT NULL DEFAULT 0,
		relevant_pairs TEXT NOT NULL DEFAULT '[]',
		impact_score REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(title, source)
	);

	-- Job bookkeeping
	CREATE TABLE IF NOT EXISTS system_metadata (
		job TEXT PRIMARY KEY,
		last_run DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_history_symbol ON price_history(symbol);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON price_history(timestamp);
	CREATE INDEX IF NOT EXISTS idx_news_published ON news(published_at);
	CREATE INDEX IF NOT EXISTS idx_news_impact ON news(impact_score);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Analysis Methods
// ============================================================================

// SaveAnalysis upserts the analysis document for a symbol.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, analysis *models.PairAnalysis) error {
	doc, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pairs_analysis (symbol, pair_type, document, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(symbol) DO UPDATE SET
			pair_type = excluded.pair_type,
			document = excluded.document,
			updated_at = CURRENT_TIMESTAMP
	`, analysis.Symbol, analysis.Type, string(doc))
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves the stored analysis for a symbol, or nil if none.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, symbol string) (*models.PairAnalysis, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT document FROM pairs_analysis WHERE symbol = ?
	`, symbol).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}

	var analysis models.PairAnalysis
	if err := json.Unmarshal([]byte(doc), &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &analysis, nil
}

// GetAllAnalyses retrieves every stored analysis, most recently updated first.
func (s *SQLiteStore) GetAllAnalyses(ctx context.Context) ([]models.PairAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document FROM pairs_analysis ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []models.PairAnalysis
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		var analysis models.PairAnalysis
		if err := json.Unmarshal([]byte(doc), &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}
	return analyses, nil
}

// ============================================================================
// Price History Methods
// ============================================================================

// SavePriceHistory inserts price points, replacing duplicates per
// symbol and timestamp.
func (s *SQLiteStore) SavePriceHistory(ctx context.Context, symbol string, points []models.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO price_history (symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx, symbol, p.Timestamp.UTC(), p.Open, p.High, p.Low, p.Close, p.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert price point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceHistory returns up to limit most recent points for a symbol in
// ascending timestamp order. A limit of 0 returns the full history.
func (s *SQLiteStore) GetPriceHistory(ctx context.Context, symbol string, limit int) ([]models.PricePoint, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume FROM (
			SELECT timestamp, open, high, low, close, volume
			FROM price_history
			WHERE symbol = ?
			ORDER BY timestamp DESC
			%s
		) ORDER BY timestamp ASC
	`
	args := []interface{}{symbol}
	if limit > 0 {
		query = fmt.Sprintf(query, "LIMIT ?")
		args = append(args, limit)
	} else {
		query = fmt.Sprintf(query, "")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return points, nil
}

// CleanupPriceHistory deletes points older than the cutoff and returns the
// number removed.
func (s *SQLiteStore) CleanupPriceHistory(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM price_history WHERE timestamp < ?
	`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup price history: %w", err)
	}
	return res.RowsAffected()
}

// ============================================================================
// News Methods
// ============================================================================

// SaveNews inserts articles, skipping duplicates by title and source.
// Returns the number of newly inserted articles.
func (s *SQLiteStore) SaveNews(ctx context.Context, articles []models.NewsArticle) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO news (title, description, source, url, published_at, sentiment, relevant_pairs, impact_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range articles {
		pairs, _ := json.Marshal(a.RelevantPairs)
		res, err := stmt.ExecContext(ctx, a.Title, a.Description, a.Source, a.URL, a.PublishedAt.UTC(), a.Sentiment, string(pairs), a.ImpactScore)
		if err != nil {
			return 0, fmt.Errorf("failed to insert article: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// GetNewsForPair returns the highest-impact recent articles tagged with the
// given symbol.
func (s *SQLiteStore) GetNewsForPair(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 {
		limit = 5
	}
	// relevant_pairs is a JSON array of symbols; LIKE on the quoted symbol
	// is sufficient because symbols are uppercase alphanumerics.
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, description, source, url, published_at, sentiment, relevant_pairs, impact_score, created_at
		FROM news
		WHERE relevant_pairs LIKE ?
		ORDER BY impact_score DESC, published_at DESC
		LIMIT ?
	`, `%"`+symbol+`"%`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// GetRecentNews returns the most recently published articles.
func (s *SQLiteStore) GetRecentNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, description, source, url, published_at, sentiment, relevant_pairs, impact_score, created_at
		FROM news
		ORDER BY published_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

func scanArticles(rows *sql.Rows) ([]models.NewsArticle, error) {
	var articles []models.NewsArticle
	for rows.Next() {
		var a models.NewsArticle
		var pairsJSON string
		if err := rows.Scan(&a.Title, &a.Description, &a.Source, &a.URL, &a.PublishedAt, &a.Sentiment, &pairsJSON, &a.ImpactScore, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		if err := json.Unmarshal([]byte(pairsJSON), &a.RelevantPairs); err != nil {
			a.RelevantPairs = nil
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating news: %w", err)
	}
	return articles, nil
}

// CleanupNews deletes articles published before the cutoff.
func (s *SQLiteStore) CleanupNews(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM news WHERE published_at < ?
	`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup news: %w", err)
	}
	return res.RowsAffected()
}

// ============================================================================
// Run Metadata Methods
// ============================================================================

// GetLastRun returns the last recorded run time for a job, zero if never run.
func (s *SQLiteStore) GetLastRun(ctx context.Context, job string) (time.Time, error) {
	var t sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT last_run FROM system_metadata WHERE job = ?
	`, job).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last run: %w", err)
	}
	if !t.Valid {
		return time.Time{}, nil
	}
	return t.Time, nil
}

// SetLastRun records the run time for a job.
func (s *SQLiteStore) SetLastRun(ctx context.Context, job string, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_metadata (job, last_run, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(job) DO UPDATE SET
			last_run = excluded.last_run,
			updated_at = CURRENT_TIMESTAMP
	`, job, t.UTC())
	if err != nil {
		return fmt.Errorf("failed to set last run: %w", err)
	}
	return nil
}

// ============================================================================
// Diagnostics
// ============================================================================

// Stats returns row counts and the most recent analysis update time.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pairs_analysis`).Scan(&stats.Analyses); err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_history`).Scan(&stats.PricePoints); err != nil {
		return nil, fmt.Errorf("failed to count price points: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`).Scan(&stats.NewsArticles); err != nil {
		return nil, fmt.Errorf("failed to count news: %w", err)
	}

	// MAX() strips the DATETIME column type and the driver hands back a
	// plain string, so select the column itself.
	var last time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM pairs_analysis ORDER BY updated_at DESC LIMIT 1`).Scan(&last)
	switch err {
	case nil:
		stats.LastUpdate = last
	case sql.ErrNoRows:
		// No analyses yet, leave the zero time.
	default:
		return nil, fmt.Errorf("failed to get last update: %w", err)
	}

	return stats, nil
}
