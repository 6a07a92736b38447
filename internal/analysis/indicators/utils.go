package indicators

import (
	"errors"
	"math"
)

// ErrInsufficientData is returned when the price series is too short for analysis.
var ErrInsufficientData = errors.New("insufficient price data for analysis (need at least 14 periods)")

const neutralRSI = 50.0

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// sampleStdDev computes the sample (n-1) standard deviation.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

// ema computes the exponential moving average over the whole series using
// the no-bias-adjustment recurrence: ema[0] = x[0],
// ema[t] = alpha*x[t] + (1-alpha)*ema[t-1] with alpha = 2/(span+1).
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// finiteOr replaces NaN and infinite values with a fallback. Rolling-window
// statistics are undefined on short windows and divisions can hit zero; no
// non-finite value may ever reach storage or the fusion stage.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
