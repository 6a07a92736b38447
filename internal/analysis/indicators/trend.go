package indicators

import "pairsight/internal/models"

// MACD computes Moving Average Convergence Divergence: the fast EMA minus
// the slow EMA, a signal EMA of that line, and their difference as the
// histogram. The trend label is bullish iff the histogram is positive.
func (a *Analyzer) MACD(fast, slow, signal int) models.MACDResult {
	fastEMA := ema(a.closes, fast)
	slowEMA := ema(a.closes, slow)

	macdLine := make([]float64, len(a.closes))
	for i := range macdLine {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := ema(macdLine, signal)

	last := len(a.closes) - 1
	macdVal := finiteOr(macdLine[last], 0)
	signalVal := finiteOr(signalLine[last], 0)
	histogram := macdVal - signalVal

	trend := models.MACDBearish
	if histogram > 0 {
		trend = models.MACDBullish
	}
	return models.MACDResult{
		MACD:      roundTo(macdVal, 6),
		Signal:    roundTo(signalVal, 6),
		Histogram: roundTo(histogram, 6),
		Trend:     trend,
	}
}

// EMA returns the exponential moving average of closes for the given span,
// rounded to 6 decimal places.
func (a *Analyzer) EMA(span int) float64 {
	values := ema(a.closes, span)
	return roundTo(finiteOr(values[len(values)-1], a.LastClose()), 6)
}

// Trend classifies the overall trend from the close against its 20- and
// 50-period EMAs. Requires at least 50 points, else insufficient_data.
//
// The precedence order below is deliberate: the uptrend and downtrend
// conditions use OR and overlap with the strong variants, and the first
// matching branch wins. Do not reorder or deduplicate the conditions.
func (a *Analyzer) Trend() models.Trend {
	if len(a.closes) < 50 {
		return models.TrendInsufficientData
	}

	ema20 := a.EMA(20)
	ema50 := a.EMA(50)
	price := a.LastClose()

	switch {
	case price > ema20 && ema20 > ema50:
		return models.TrendStrongUp
	case price > ema20 || ema20 > ema50:
		return models.TrendUp
	case price < ema20 && ema20 < ema50:
		return models.TrendStrongDown
	case price < ema20 || ema20 < ema50:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}
