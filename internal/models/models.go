// Package models provides domain models for the pair analysis application.
package models

import (
	"strings"
	"time"
)

// PairType classifies a trading pair.
type PairType string

const (
	PairCrypto PairType = "crypto"
	PairForex  PairType = "forex"
)

// PairTypeOf classifies a symbol by its quote currency.
func PairTypeOf(symbol string) PairType {
	if strings.Contains(symbol, "USDT") {
		return PairCrypto
	}
	return PairForex
}

// PricePoint represents one OHLCV observation for a pair.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceQuote represents the latest price for a pair as returned by a data source.
type PriceQuote struct {
	Symbol    string    `json:"symbol"`
	Type      PairType  `json:"type"`
	Price     float64   `json:"price"`
	Change24h float64   `json:"change_24h"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// PairAnalysis is the full analysis document stored and served per pair.
// Technical is nil when there was not enough history to compute indicators.
type PairAnalysis struct {
	Symbol    string             `json:"symbol"`
	Type      PairType           `json:"type"`
	Price     float64            `json:"price"`
	Change24h float64            `json:"change_24h"`
	Volume    float64            `json:"volume"`
	Technical *TechnicalSnapshot `json:"technical"`
	Signal    Signal             `json:"signal"`
	News      []NewsArticle      `json:"news,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Source    string             `json:"source,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty"`
}
