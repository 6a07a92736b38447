// Package indicators computes technical indicators from OHLCV price history.
//
// The Analyzer is a pure function of its input series: it never mutates the
// caller's slice and holds no state between calls, so it is safe to use from
// concurrent goroutines with no locking.
package indicators

import (
	"sort"

	"pairsight/internal/models"
)

// MinPoints is the minimum number of price points required for analysis.
const MinPoints = 14

// Analyzer computes indicators over one time-ordered price series.
type Analyzer struct {
	points  []models.PricePoint
	closes  []float64
	highs   []float64
	lows    []float64
	volumes []float64
}

// NewAnalyzer creates an Analyzer from a price series. The series is copied
// and sorted ascending by timestamp; the caller's slice is left untouched.
// Returns ErrInsufficientData when fewer than MinPoints points are supplied.
func NewAnalyzer(history []models.PricePoint) (*Analyzer, error) {
	if len(history) < MinPoints {
		return nil, ErrInsufficientData
	}

	points := make([]models.PricePoint, len(history))
	copy(points, history)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	a := &Analyzer{
		points:  points,
		closes:  make([]float64, len(points)),
		highs:   make([]float64, len(points)),
		lows:    make([]float64, len(points)),
		volumes: make([]float64, len(points)),
	}
	for i, p := range points {
		a.closes[i] = p.Close
		a.highs[i] = p.High
		a.lows[i] = p.Low
		a.volumes[i] = p.Volume
	}
	return a, nil
}

// Len returns the number of points in the series.
func (a *Analyzer) Len() int {
	return len(a.points)
}

// LastClose returns the most recent close price.
func (a *Analyzer) LastClose() float64 {
	return a.closes[len(a.closes)-1]
}

// Snapshot computes the full indicator set for the series.
func (a *Analyzer) Snapshot() *models.TechnicalSnapshot {
	return &models.TechnicalSnapshot{
		RSI:               a.RSI(14),
		MACD:              a.MACD(12, 26, 9),
		Bollinger:         a.BollingerBands(20, 2),
		ATR:               a.ATR(14),
		SupportResistance: a.SupportResistance(50),
		Trend:             a.Trend(),
		Volume:            a.VolumeAnalysis(),
	}
}
