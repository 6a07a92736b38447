package indicators

import "pairsight/internal/models"

// BollingerBands computes the simple moving average and sample standard
// deviation over the trailing window, with bands at +-k standard deviations.
// The position label compares the current close against the raw band levels.
//
// When the series is shorter than the window the statistic is undefined;
// a neutral fallback of close +-2% around the close is substituted.
func (a *Analyzer) BollingerBands(period int, k float64) models.BollingerResult {
	price := a.LastClose()

	var upper, middle, lower float64
	if period <= 0 || len(a.closes) < period {
		middle = price
		upper = price * 1.02
		lower = price * 0.98
	} else {
		window := a.closes[len(a.closes)-period:]
		middle = mean(window)
		sd := sampleStdDev(window)
		upper = middle + k*sd
		lower = middle - k*sd
	}

	upper = finiteOr(upper, price*1.02)
	middle = finiteOr(middle, price)
	lower = finiteOr(lower, price*0.98)

	position := models.BandNeutral
	if price >= upper {
		position = models.BandOverbought
	} else if price <= lower {
		position = models.BandOversold
	}

	return models.BollingerResult{
		Upper:    roundTo(upper, 6),
		Middle:   roundTo(middle, 6),
		Lower:    roundTo(lower, 6),
		Position: position,
	}
}

// ATR computes the Average True Range: the simple rolling mean of the true
// range over the trailing window. The first bar has no previous close, so
// its true range is high minus low.
func (a *Analyzer) ATR(period int) float64 {
	n := len(a.points)
	tr := make([]float64, n)
	tr[0] = a.highs[0] - a.lows[0]
	for i := 1; i < n; i++ {
		prevClose := a.closes[i-1]
		hl := a.highs[i] - a.lows[i]
		hc := abs(a.highs[i] - prevClose)
		lc := abs(a.lows[i] - prevClose)
		tr[i] = max3(hl, hc, lc)
	}

	window := tr
	if period > 0 && len(tr) >= period {
		window = tr[len(tr)-period:]
	}
	return roundTo(finiteOr(mean(window), 0), 6)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
