package calculator

import (
	"github.com/guregu/null/v6"

	"MarketPulse/internal/model"
)

// CalculateChangePercent returns the last bar's close-to-close change in percent.
// Null with fewer than two bars or a non-positive previous close.
func CalculateChangePercent(bars []model.OHLCV) null.Float {
	if len(bars) < 2 {
		return null.Float{}
	}
	last := bars[len(bars)-1].Close
	prev := bars[len(bars)-2].Close
	if prev <= 0 {
		return null.Float{}
	}
	return finite((last - prev) / prev * 100)
}
