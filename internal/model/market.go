package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the raw market data fetched for one instrument.
type PriceSeries struct {
	Symbol    string
	DailyBars []OHLCV
	PE        null.Float
	FetchedAt time.Time
}

// Closes returns the close prices of the series in chronological order.
func (p *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(p.DailyBars))
	for i, b := range p.DailyBars {
		closes[i] = b.Close
	}
	return closes
}

// Instrument is one entry of the tracked instrument list.
type Instrument struct {
	Key    string `yaml:"key" validate:"required"`
	Symbol string `yaml:"symbol" validate:"required"`
	Name   string `yaml:"name"`
	Source string `yaml:"source" validate:"omitempty,oneof=yahoo rest binance polygon mock"`
}

// Label returns the display name, falling back to the symbol.
func (i Instrument) Label() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Symbol
}
