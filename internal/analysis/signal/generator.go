// Package signal fuses a technical indicator snapshot into one trading
// recommendation with direction, confidence and entry/stop/target levels.
//
// The generator is deterministic and stateless: identical inputs always
// produce the identical Signal.
package signal

import (
	"math"

	"pairsight/internal/models"
)

// Evidence weights for each vote source.
const (
	weightRSI        = 25.0
	weightRSINeutral = 10.0
	weightMACD       = 20.0
	weightBollinger  = 15.0
	weightLevels     = 20.0
	weightTrend      = 20.0

	maxConfidence     = 95.0
	neutralConfidence = 40.0

	stopATRMultiple  = 1.5
	targetSLMultiple = 2.5
)

// Generator derives one trading signal from a snapshot and a current price.
type Generator struct {
	tech  *models.TechnicalSnapshot
	price float64
}

// NewGenerator creates a signal generator for one snapshot and price.
func NewGenerator(tech *models.TechnicalSnapshot, currentPrice float64) *Generator {
	return &Generator{tech: tech, price: currentPrice}
}

// tally accumulates the votes cast by the evidence sources. The neutral
// weight is tracked separately; it belongs to neither side and never
// contributes to a directional confidence.
type tally struct {
	long    []float64
	short   []float64
	neutral float64
}

func (t *tally) voteLong(w float64)  { t.long = append(t.long, w) }
func (t *tally) voteShort(w float64) { t.short = append(t.short, w) }

// Generate evaluates five independent evidence sources, decides direction by
// raw vote count, and sizes the position from ATR. Confidence for a winning
// direction is the sum of that direction's weights, capped at 95; a tie in
// vote counts yields NEUTRAL with confidence 40.
func (g *Generator) Generate() models.Signal {
	var votes tally

	// RSI: oversold favors LONG, overbought favors SHORT. The 40-60 zone
	// carries a small weight that votes for neither side.
	rsi := g.tech.RSI
	if rsi < 30 {
		votes.voteLong(weightRSI)
	} else if rsi > 70 {
		votes.voteShort(weightRSI)
	} else if rsi > 40 && rsi < 60 {
		votes.neutral += weightRSINeutral
	}

	// MACD: trend label confirmed by the histogram sign.
	macd := g.tech.MACD
	if macd.Trend == models.MACDBullish && macd.Histogram > 0 {
		votes.voteLong(weightMACD)
	} else if macd.Trend == models.MACDBearish && macd.Histogram < 0 {
		votes.voteShort(weightMACD)
	}

	// Bollinger position.
	switch g.tech.Bollinger.Position {
	case models.BandOversold:
		votes.voteLong(weightBollinger)
	case models.BandOverbought:
		votes.voteShort(weightBollinger)
	}

	// Proximity to support/resistance: within 1% above support favors LONG,
	// within 1% below resistance favors SHORT. Support is checked first.
	sr := g.tech.SupportResistance
	if g.price <= sr.Support*1.01 {
		votes.voteLong(weightLevels)
	} else if g.price >= sr.Resistance*0.99 {
		votes.voteShort(weightLevels)
	}

	// Trend alignment.
	switch g.tech.Trend {
	case models.TrendStrongUp, models.TrendUp:
		votes.voteLong(weightTrend)
	case models.TrendStrongDown, models.TrendDown:
		votes.voteShort(weightTrend)
	}

	direction := models.DirectionNeutral
	confidence := neutralConfidence
	switch {
	case len(votes.long) > len(votes.short):
		direction = models.DirectionLong
		confidence = math.Min(sum(votes.long), maxConfidence)
	case len(votes.short) > len(votes.long):
		direction = models.DirectionShort
		confidence = math.Min(sum(votes.short), maxConfidence)
	}

	stopDistance := roundTo(g.tech.ATR*stopATRMultiple, 6)
	targetDistance := roundTo(stopDistance*targetSLMultiple, 6)

	entry := g.price
	var stop, target float64
	switch direction {
	case models.DirectionShort:
		stop = entry + stopDistance
		target = entry - targetDistance
	default:
		// LONG, and NEUTRAL which keeps the LONG orientation.
		stop = entry - stopDistance
		target = entry + targetDistance
	}

	riskReward := targetSLMultiple
	if stopDistance > 0 {
		riskReward = targetDistance / stopDistance
	}

	return models.Signal{
		Direction:  direction,
		Confidence: roundTo(confidence, 1),
		Entry:      roundTo(entry, 6),
		TakeProfit: roundTo(target, 6),
		StopLoss:   roundTo(stop, 6),
		RiskReward: roundTo(riskReward, 2),
		ATR:        g.tech.ATR,
	}
}

// Fallback builds the degenerate signal used when there is not enough
// history to compute indicators: a fixed +-2% bracket around the current
// price with zero confidence.
func Fallback(currentPrice float64) models.Signal {
	return models.Signal{
		Direction:  models.DirectionInsufficientData,
		Confidence: 0,
		Entry:      roundTo(currentPrice, 6),
		TakeProfit: roundTo(currentPrice*1.02, 6),
		StopLoss:   roundTo(currentPrice*0.98, 6),
		RiskReward: 2.0,
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
