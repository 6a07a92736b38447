package signal

import (
	"testing"

	"pairsight/internal/models"
)

// neutralSnapshot builds a snapshot where no evidence source casts a vote.
func neutralSnapshot() *models.TechnicalSnapshot {
	return &models.TechnicalSnapshot{
		RSI: 50,
		MACD: models.MACDResult{
			MACD: 0, Signal: 0, Histogram: 0, Trend: models.MACDBullish,
		},
		Bollinger: models.BollingerResult{
			Upper: 110, Middle: 100, Lower: 90, Position: models.BandNeutral,
		},
		ATR: 2.0,
		SupportResistance: models.SupportResistance{
			Support: 90, Resistance: 110,
		},
		Trend: models.TrendSideways,
		Volume: models.VolumeAnalysis{
			Current: 1000, Average: 1000, Ratio: 1.0, Status: models.VolumeNormal,
		},
	}
}

func TestGenerateLongAllSourcesAligned(t *testing.T) {
	tech := &models.TechnicalSnapshot{
		RSI: 25,
		MACD: models.MACDResult{
			MACD: 1.0, Signal: 0.5, Histogram: 0.5, Trend: models.MACDBullish,
		},
		Bollinger: models.BollingerResult{
			Upper: 110, Middle: 105, Lower: 101, Position: models.BandOversold,
		},
		ATR: 2.0,
		SupportResistance: models.SupportResistance{
			Support: 100, Resistance: 120,
		},
		Trend: models.TrendStrongUp,
	}

	sig := NewGenerator(tech, 100).Generate()

	if sig.Direction != models.DirectionLong {
		t.Fatalf("expected LONG, got %s", sig.Direction)
	}
	// All five sources vote LONG: 25+20+15+20+20 = 100, capped at 95.
	if sig.Confidence != 95 {
		t.Errorf("expected confidence 95, got %v", sig.Confidence)
	}
	if sig.Entry != 100 {
		t.Errorf("expected entry 100, got %v", sig.Entry)
	}
	// Stop distance = 2.0*1.5 = 3.0, target distance = 3.0*2.5 = 7.5.
	if sig.StopLoss != 97.0 {
		t.Errorf("expected stop 97.0, got %v", sig.StopLoss)
	}
	if sig.TakeProfit != 107.5 {
		t.Errorf("expected target 107.5, got %v", sig.TakeProfit)
	}
	if sig.RiskReward != 2.5 {
		t.Errorf("expected risk/reward 2.5, got %v", sig.RiskReward)
	}
	if sig.ATR != 2.0 {
		t.Errorf("expected atr 2.0 passed through, got %v", sig.ATR)
	}
}

func TestGenerateShortAllSourcesAligned(t *testing.T) {
	tech := &models.TechnicalSnapshot{
		RSI: 75,
		MACD: models.MACDResult{
			MACD: -1.0, Signal: -0.5, Histogram: -0.5, Trend: models.MACDBearish,
		},
		Bollinger: models.BollingerResult{
			Upper: 99, Middle: 95, Lower: 90, Position: models.BandOverbought,
		},
		ATR: 2.0,
		SupportResistance: models.SupportResistance{
			Support: 80, Resistance: 100,
		},
		Trend: models.TrendStrongDown,
	}

	sig := NewGenerator(tech, 100).Generate()

	if sig.Direction != models.DirectionShort {
		t.Fatalf("expected SHORT, got %s", sig.Direction)
	}
	if sig.Confidence != 95 {
		t.Errorf("expected confidence 95, got %v", sig.Confidence)
	}
	if sig.StopLoss != 103.0 {
		t.Errorf("expected stop 103.0, got %v", sig.StopLoss)
	}
	if sig.TakeProfit != 92.5 {
		t.Errorf("expected target 92.5, got %v", sig.TakeProfit)
	}
}

func TestGenerateTieIsNeutral(t *testing.T) {
	t.Run("no votes at all", func(t *testing.T) {
		sig := NewGenerator(neutralSnapshot(), 100).Generate()
		if sig.Direction != models.DirectionNeutral {
			t.Fatalf("expected NEUTRAL, got %s", sig.Direction)
		}
		if sig.Confidence != 40 {
			t.Errorf("expected confidence exactly 40, got %v", sig.Confidence)
		}
		// NEUTRAL keeps the LONG orientation for stop and target.
		if sig.StopLoss != 97.0 || sig.TakeProfit != 107.5 {
			t.Errorf("expected LONG-oriented levels, got sl=%v tp=%v", sig.StopLoss, sig.TakeProfit)
		}
	})

	t.Run("one vote each side", func(t *testing.T) {
		tech := neutralSnapshot()
		tech.RSI = 25                  // LONG vote
		tech.Trend = models.TrendDown  // SHORT vote
		sig := NewGenerator(tech, 100).Generate()
		if sig.Direction != models.DirectionNeutral {
			t.Fatalf("expected NEUTRAL on 1-1 tie, got %s", sig.Direction)
		}
		if sig.Confidence != 40 {
			t.Errorf("expected confidence 40, got %v", sig.Confidence)
		}
	})
}

func TestGenerateOnlyWinningWeightsCount(t *testing.T) {
	// Two LONG votes (RSI 25, trend up) against one SHORT (bollinger
	// overbought): confidence sums the LONG weights only, 25+20 = 45.
	tech := neutralSnapshot()
	tech.RSI = 25
	tech.Trend = models.TrendUp
	tech.Bollinger.Position = models.BandOverbought

	sig := NewGenerator(tech, 100).Generate()
	if sig.Direction != models.DirectionLong {
		t.Fatalf("expected LONG, got %s", sig.Direction)
	}
	if sig.Confidence != 45 {
		t.Errorf("expected confidence 45 (losing side discarded), got %v", sig.Confidence)
	}
}

func TestGenerateNeutralRSIZoneCastsNoVote(t *testing.T) {
	// RSI in the 40-60 zone is tracked at a small weight but votes for
	// neither side: a single trend vote still wins with its own weight.
	tech := neutralSnapshot()
	tech.RSI = 50
	tech.Trend = models.TrendUp

	sig := NewGenerator(tech, 100).Generate()
	if sig.Direction != models.DirectionLong {
		t.Fatalf("expected LONG, got %s", sig.Direction)
	}
	if sig.Confidence != 20 {
		t.Errorf("expected confidence 20, got %v", sig.Confidence)
	}
}

func TestGenerateSupportProximity(t *testing.T) {
	tech := neutralSnapshot()
	tech.SupportResistance = models.SupportResistance{Support: 99.5, Resistance: 120}

	// 100 <= 99.5*1.01 = 100.495: within 1% above support.
	sig := NewGenerator(tech, 100).Generate()
	if sig.Direction != models.DirectionLong {
		t.Fatalf("expected LONG near support, got %s", sig.Direction)
	}
	if sig.Confidence != 20 {
		t.Errorf("expected confidence 20, got %v", sig.Confidence)
	}
}

func TestGenerateZeroATRFallback(t *testing.T) {
	tech := neutralSnapshot()
	tech.ATR = 0
	tech.Trend = models.TrendUp

	sig := NewGenerator(tech, 100).Generate()
	if sig.StopLoss != 100 || sig.TakeProfit != 100 {
		t.Errorf("expected degenerate levels at entry, got sl=%v tp=%v", sig.StopLoss, sig.TakeProfit)
	}
	if sig.RiskReward != 2.5 {
		t.Errorf("expected risk/reward fallback 2.5, got %v", sig.RiskReward)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	tech := neutralSnapshot()
	tech.RSI = 25
	tech.Trend = models.TrendStrongUp

	first := NewGenerator(tech, 123.456789).Generate()
	for i := 0; i < 10; i++ {
		if got := NewGenerator(tech, 123.456789).Generate(); got != first {
			t.Fatalf("non-deterministic output: %+v != %+v", got, first)
		}
	}
}

func TestFallbackSignal(t *testing.T) {
	sig := Fallback(100)
	if sig.Direction != models.DirectionInsufficientData {
		t.Fatalf("expected INSUFFICIENT_DATA, got %s", sig.Direction)
	}
	if sig.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", sig.Confidence)
	}
	if sig.Entry != 100 || sig.TakeProfit != 102 || sig.StopLoss != 98 {
		t.Errorf("expected +-2%% bracket, got entry=%v tp=%v sl=%v", sig.Entry, sig.TakeProfit, sig.StopLoss)
	}
	if sig.RiskReward != 2.0 {
		t.Errorf("expected risk/reward 2.0, got %v", sig.RiskReward)
	}
}
