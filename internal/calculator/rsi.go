package calculator

import (
	"errors"

	"github.com/guregu/null/v6"
	"github.com/markcheno/go-talib"

	"MarketPulse/internal/model"
)

// DefaultRSIPeriod is the Wilder RSI lookback.
const DefaultRSIPeriod = 14

// CalculateRSI computes the latest Wilder-smoothed RSI of the bars' closes.
// Requires more than period bars; returns null otherwise.
func CalculateRSI(bars []model.OHLCV, period int) (null.Float, error) {
	if period < 2 {
		return null.Float{}, errors.New("period must be at least 2")
	}
	if len(bars) <= period {
		return null.Float{}, nil
	}
	out := talib.Rsi(extractCloses(bars), period)
	return finite(out[len(out)-1]), nil
}
