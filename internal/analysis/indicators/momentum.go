package indicators

// RSI computes the Relative Strength Index over the most recent trailing
// window of the given period: average gain over average loss, combined as
// 100 - 100/(1+rs).
//
// When the window holds no losses the ratio is undefined; the neutral
// default 50 is substituted instead of propagating a non-finite value.
// The same default applies when the series is too short to fill a window.
func (a *Analyzer) RSI(period int) float64 {
	deltas := make([]float64, 0, len(a.closes)-1)
	for i := 1; i < len(a.closes); i++ {
		deltas = append(deltas, a.closes[i]-a.closes[i-1])
	}
	if period <= 0 || len(deltas) < period {
		return neutralRSI
	}

	window := deltas[len(deltas)-period:]
	var gains, losses float64
	for _, d := range window {
		if d > 0 {
			gains += d
		} else if d < 0 {
			losses += -d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return neutralRSI
	}
	rs := avgGain / avgLoss
	return finiteOr(100-100/(1+rs), neutralRSI)
}

// PriceChange returns the percent change of the close over the trailing
// number of periods, clamped to the available history.
func (a *Analyzer) PriceChange(periods int) float64 {
	n := len(a.closes)
	if periods >= n {
		periods = n - 1
	}
	if periods <= 0 {
		return 0
	}
	current := a.closes[n-1]
	previous := a.closes[n-1-periods]
	if previous == 0 {
		return 0
	}
	return roundTo((current-previous)/previous*100, 2)
}
