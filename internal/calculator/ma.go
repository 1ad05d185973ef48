package calculator

import (
	"errors"
	"math"

	"github.com/guregu/null/v6"
	"github.com/markcheno/go-talib"

	"MarketPulse/internal/model"
)

// CalculateSMA computes the latest simple moving average of prices over period.
// Returns null when there are fewer than period prices.
func CalculateSMA(prices []float64, period int) (null.Float, error) {
	if period <= 0 {
		return null.Float{}, errors.New("period must be positive")
	}
	if len(prices) < period {
		return null.Float{}, nil
	}
	out := talib.Sma(prices, period)
	return finite(out[len(out)-1]), nil
}

// CalculateMA returns the period-day simple moving average of the daily closes.
func CalculateMA(dailyBars []model.OHLCV, period int) (null.Float, error) {
	return CalculateSMA(extractCloses(dailyBars), period)
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func finite(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}
