package main

import (
	"fmt"

	"go.uber.org/zap"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
)

var sourceNames = []string{collector.SourceYahoo, "rest", "binance", "polygon", "mock"}

// buildRegistry wires every configured market data source.
// With mock set, all source names resolve to synthetic data.
func buildRegistry(cfg *config.Config, mock bool) (*collector.Registry, error) {
	registry := collector.NewRegistry()
	if mock {
		for _, name := range sourceNames {
			registry.Register(name, &collector.MockFetcher{Price: 100})
		}
		return registry, nil
	}

	registry.Register(collector.SourceYahoo, collector.NewYahooFetcher(cfg.Proxy))
	registry.Register("binance", collector.NewBinanceFetcher())
	registry.Register("mock", &collector.MockFetcher{Price: 100})
	if cfg.DataSource.BaseURL != "" {
		registry.Register("rest", collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy))
	}
	if cfg.DataSource.PolygonAPIKey != "" {
		pf, err := collector.NewPolygonFetcher(cfg.DataSource.PolygonAPIKey)
		if err != nil {
			return nil, fmt.Errorf("init polygon fetcher: %w", err)
		}
		registry.Register("polygon", pf)
	}
	return registry, nil
}

// newCollector builds a collector with the configured indicator settings.
func newCollector(cfg *config.Config, registry *collector.Registry, logger *zap.Logger) *collector.Collector {
	col := collector.NewCollector(registry, logger)
	col.HistoryDays = cfg.Indicators.HistoryDays
	col.KDJPeriod = cfg.Indicators.KDJPeriod
	col.RSIPeriod = cfg.Indicators.RSIPeriod
	col.MAPeriods = collector.MAPeriods{
		Short: cfg.Indicators.MAShort,
		Mid:   cfg.Indicators.MAMid,
		Long:  cfg.Indicators.MALong,
	}
	col.Signal.ExtremaWindow = cfg.Signals.ExtremaWindow
	col.Signal.MinDivergenceBars = cfg.Signals.MinDivergenceBars
	col.Signal.MaxExtremumAge = cfg.Signals.MaxExtremumAge
	col.Workers = cfg.Workers
	return col
}
