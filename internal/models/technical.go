package models

// MACDTrend labels the MACD histogram direction.
type MACDTrend string

const (
	MACDBullish MACDTrend = "bullish"
	MACDBearish MACDTrend = "bearish"
)

// BandPosition labels the close relative to the Bollinger Bands.
type BandPosition string

const (
	BandOverbought BandPosition = "overbought"
	BandOversold   BandPosition = "oversold"
	BandNeutral    BandPosition = "neutral"
)

// Trend classifies the overall price trend from EMA alignment.
type Trend string

const (
	TrendStrongUp         Trend = "strong_uptrend"
	TrendUp               Trend = "uptrend"
	TrendStrongDown       Trend = "strong_downtrend"
	TrendDown             Trend = "downtrend"
	TrendSideways         Trend = "sideways"
	TrendInsufficientData Trend = "insufficient_data"
)

// VolumeStatus labels current volume relative to its trailing average.
type VolumeStatus string

const (
	VolumeHigh   VolumeStatus = "high"
	VolumeNormal VolumeStatus = "normal"
	VolumeLow    VolumeStatus = "low"
)

// MACDResult holds the MACD line, signal line and histogram.
type MACDResult struct {
	MACD      float64   `json:"macd"`
	Signal    float64   `json:"signal"`
	Histogram float64   `json:"histogram"`
	Trend     MACDTrend `json:"trend"`
}

// BollingerResult holds the Bollinger Band levels and the close's position.
type BollingerResult struct {
	Upper    float64      `json:"upper"`
	Middle   float64      `json:"middle"`
	Lower    float64      `json:"lower"`
	Position BandPosition `json:"position"`
}

// SupportResistance holds the nearest support and resistance levels.
type SupportResistance struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// VolumeAnalysis compares the current bar's volume to its trailing average.
type VolumeAnalysis struct {
	Current int64        `json:"current"`
	Average int64        `json:"average"`
	Ratio   float64      `json:"ratio"`
	Status  VolumeStatus `json:"status"`
}

// TechnicalSnapshot is the immutable set of indicators computed from one
// price series. Field names and nesting match the stored document shape
// consumed by downstream clients.
type TechnicalSnapshot struct {
	RSI               float64           `json:"rsi"`
	MACD              MACDResult        `json:"macd"`
	Bollinger         BollingerResult   `json:"bollinger_bands"`
	ATR               float64           `json:"atr"`
	SupportResistance SupportResistance `json:"support_resistance"`
	Trend             Trend             `json:"trend"`
	Volume            VolumeAnalysis    `json:"volume"`
}
