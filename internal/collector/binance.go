package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/guregu/null/v6"

	"MarketPulse/internal/model"
)

// binanceMaxLimit is the largest kline page the API serves.
const binanceMaxLimit = 1000

// BinanceFetcher implements Fetcher with Binance spot daily klines.
type BinanceFetcher struct {
	client *binance.Client
}

// NewBinanceFetcher creates a fetcher using the public (unauthenticated) Binance API.
func NewBinanceFetcher() *BinanceFetcher {
	return &BinanceFetcher{client: binance.NewClient("", "")}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// binanceSymbol maps "BTC-USD" style tickers to Binance pairs ("BTCUSDT").
func binanceSymbol(symbol string) string {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))
	if strings.HasSuffix(s, "USD") {
		s += "T"
	}
	return s
}

func (f *BinanceFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	limit := days
	if limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}
	klines, err := f.client.NewKlinesService().
		Symbol(binanceSymbol(symbol)).
		Interval("1d").
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}
	return convertKlines(klines)
}

// FetchPE always returns null: crypto pairs have no earnings.
func (f *BinanceFetcher) FetchPE(_ context.Context, _ string) (null.Float, error) {
	return null.Float{}, nil
}

func convertKlines(klines []*binance.Kline) ([]model.OHLCV, error) {
	bars := make([]model.OHLCV, 0, len(klines))
	for _, k := range klines {
		var (
			bar model.OHLCV
			err error
		)
		bar.Time = time.UnixMilli(k.OpenTime).UTC()
		if bar.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
			return nil, fmt.Errorf("parse open %q: %w", k.Open, err)
		}
		if bar.High, err = strconv.ParseFloat(k.High, 64); err != nil {
			return nil, fmt.Errorf("parse high %q: %w", k.High, err)
		}
		if bar.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
			return nil, fmt.Errorf("parse low %q: %w", k.Low, err)
		}
		if bar.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
			return nil, fmt.Errorf("parse close %q: %w", k.Close, err)
		}
		if bar.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
			return nil, fmt.Errorf("parse volume %q: %w", k.Volume, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
