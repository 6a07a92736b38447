package models

// Direction is the recommended trade direction.
type Direction string

const (
	DirectionLong             Direction = "LONG"
	DirectionShort            Direction = "SHORT"
	DirectionNeutral          Direction = "NEUTRAL"
	DirectionInsufficientData Direction = "INSUFFICIENT_DATA"
)

// Signal is one trading recommendation derived from a TechnicalSnapshot
// and a current price. It has no persisted identity; every computation
// produces a new value.
type Signal struct {
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Entry      float64   `json:"entry"`
	TakeProfit float64   `json:"tp"`
	StopLoss   float64   `json:"sl"`
	RiskReward float64   `json:"risk_reward"`
	ATR        float64   `json:"atr"`
}
