package calculator

import (
	"errors"
	"fmt"
	"math"

	"MarketPulse/internal/model"
)

// CalculateRange scans the lookback bars ending at index end (inclusive) and returns
// the highest high and the lowest low.
func CalculateRange(bars []model.OHLCV, end, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if lookback <= 0 {
		return 0, 0, errors.New("lookback must be positive")
	}
	if end < 0 || end >= len(bars) {
		return 0, 0, fmt.Errorf("end index %d out of range [0, %d)", end, len(bars))
	}
	start := end - lookback + 1
	if start < 0 {
		return 0, 0, fmt.Errorf("not enough bars for a %d-bar range ending at %d", lookback, end)
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i <= end; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}
