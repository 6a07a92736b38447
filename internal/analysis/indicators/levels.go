package indicators

import "pairsight/internal/models"

// SupportResistance finds support and resistance from local extrema over the
// trailing lookback window (or the full series if shorter). A candidate
// support is a low strictly below both immediate neighbors; a candidate
// resistance is a high strictly above both. Support is the highest candidate
// below the current close, resistance the lowest candidate above it, with
// close*0.97 / close*1.03 fallbacks when no candidate exists.
func (a *Analyzer) SupportResistance(lookback int) models.SupportResistance {
	n := len(a.points)
	if lookback > n || lookback <= 0 {
		lookback = n
	}
	lows := a.lows[n-lookback:]
	highs := a.highs[n-lookback:]
	price := a.LastClose()

	support := price * 0.97
	foundSupport := false
	for i := 1; i < len(lows)-1; i++ {
		if lows[i] < lows[i-1] && lows[i] < lows[i+1] && lows[i] < price {
			if !foundSupport || lows[i] > support {
				support = lows[i]
				foundSupport = true
			}
		}
	}

	resistance := price * 1.03
	foundResistance := false
	for i := 1; i < len(highs)-1; i++ {
		if highs[i] > highs[i-1] && highs[i] > highs[i+1] && highs[i] > price {
			if !foundResistance || highs[i] < resistance {
				resistance = highs[i]
				foundResistance = true
			}
		}
	}

	return models.SupportResistance{
		Support:    roundTo(finiteOr(support, price*0.97), 6),
		Resistance: roundTo(finiteOr(resistance, price*1.03), 6),
	}
}
