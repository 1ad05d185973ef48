package collector

import (
	"context"

	"github.com/guregu/null/v6"

	"MarketPulse/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns up to days daily bars in chronological order.
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	// FetchPE returns the trailing P/E, falling back to forward P/E. Null when neither is known.
	FetchPE(ctx context.Context, symbol string) (null.Float, error)
	Name() string
}
