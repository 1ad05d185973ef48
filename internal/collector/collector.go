package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
	"MarketPulse/internal/strategy"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	PE        null.Float
	Err       error
	PEErr     error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchPE(_ context.Context, _ string) (null.Float, error) {
	if m.PEErr != nil {
		return null.Float{}, m.PEErr
	}
	return m.PE, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/6) + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Result is the outcome of one instrument's pipeline.
type Result struct {
	Instrument model.Instrument
	Snapshot   *model.Snapshot
	Err        error
	Duration   time.Duration
}

// Collector fetches market data and turns it into snapshots.
type Collector struct {
	Registry    *Registry
	Logger      *zap.Logger
	HistoryDays int
	KDJPeriod   int
	RSIPeriod   int
	MAPeriods   MAPeriods
	Signal      strategy.Options
	Workers     int
	// OnResult is called once per instrument from worker goroutines.
	OnResult func(Result)
}

// MAPeriods are the lookbacks of the three reported moving averages.
type MAPeriods struct {
	Short int
	Mid   int
	Long  int
}

// NewCollector creates a Collector with the default indicator settings.
func NewCollector(registry *Registry, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Registry:    registry,
		Logger:      logger,
		HistoryDays: 365,
		KDJPeriod:   calculator.DefaultKDJPeriod,
		RSIPeriod:   calculator.DefaultRSIPeriod,
		MAPeriods:   MAPeriods{Short: 20, Mid: 120, Long: 240},
		Signal:      strategy.DefaultOptions(),
		Workers:     4,
	}
}

// Fetch retrieves the price series and fundamental ratio of one instrument.
// A missing P/E is logged and left null; only the price series can fail.
func (c *Collector) Fetch(ctx context.Context, inst model.Instrument) (*model.PriceSeries, error) {
	fetcher, err := c.Registry.For(inst.Source)
	if err != nil {
		return nil, err
	}
	bars, err := fetcher.FetchDailyBars(ctx, inst.Symbol, c.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("%w: %s daily bars: %w", ErrDataUnavailable, fetcher.Name(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s returned no bars", ErrDataUnavailable, fetcher.Name())
	}

	series := &model.PriceSeries{
		Symbol:    inst.Symbol,
		DailyBars: bars,
		FetchedAt: time.Now(),
	}
	pe, err := fetcher.FetchPE(ctx, inst.Symbol)
	if err != nil {
		c.Logger.Debug("P/E unavailable", zap.String("symbol", inst.Symbol), zap.Error(err))
	} else {
		series.PE = pe
	}
	return series, nil
}

// Compute derives the snapshot of a fetched series.
func (c *Collector) Compute(series *model.PriceSeries) (*model.Snapshot, error) {
	bars := series.DailyBars
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty series for %s", ErrDataUnavailable, series.Symbol)
	}
	log := c.Logger.With(zap.String("symbol", series.Symbol))

	snap := &model.Snapshot{
		Close:         null.FloatFrom(bars[len(bars)-1].Close),
		ChangePercent: calculator.CalculateChangePercent(bars),
		PE:            series.PE,
	}

	if rsi, err := calculator.CalculateRSI(bars, c.RSIPeriod); err != nil {
		log.Warn("RSI calculation failed", zap.Error(err))
	} else {
		snap.RSI = rsi
	}

	for _, ma := range []struct {
		period int
		dst    *null.Float
	}{
		{c.MAPeriods.Short, &snap.MA20},
		{c.MAPeriods.Mid, &snap.MA120},
		{c.MAPeriods.Long, &snap.MA240},
	} {
		v, err := calculator.CalculateMA(bars, ma.period)
		if err != nil {
			log.Warn("MA calculation failed", zap.Int("period", ma.period), zap.Error(err))
			continue
		}
		*ma.dst = v
	}

	osc := calculator.CalculateKDJ(bars, c.KDJPeriod)
	if last := osc.Last(); last.IsSome() {
		v := last.Unwrap()
		snap.K = null.FloatFrom(v.K)
		snap.D = null.FloatFrom(v.D)
		snap.J = null.FloatFrom(v.J)
	}
	snap.SetSignals(strategy.Classify(series.Closes(), osc, c.Signal))
	return snap, nil
}

// Collect runs the full pipeline for one instrument.
func (c *Collector) Collect(ctx context.Context, inst model.Instrument) (*model.Snapshot, error) {
	series, err := c.Fetch(ctx, inst)
	if err != nil {
		return nil, err
	}
	return c.Compute(series)
}

// CollectAll runs every instrument's pipeline concurrently and assembles the board in
// the given order. A failed instrument gets an empty snapshot; the rest still run.
func (c *Collector) CollectAll(ctx context.Context, instruments []model.Instrument) (*model.Board, []Result) {
	results := make([]Result, len(instruments))

	var g errgroup.Group
	if c.Workers > 0 {
		g.SetLimit(c.Workers)
	}
	for i, inst := range instruments {
		g.Go(func() error {
			results[i] = c.collectOne(ctx, inst)
			return nil
		})
	}
	_ = g.Wait()

	board := model.NewBoard()
	for _, r := range results {
		board.Set(r.Instrument.Key, r.Snapshot)
	}
	return board, results
}

func (c *Collector) collectOne(ctx context.Context, inst model.Instrument) Result {
	start := time.Now()
	log := c.Logger.With(zap.String("instrument", inst.Key), zap.String("symbol", inst.Symbol))

	snap, err := c.Collect(ctx, inst)
	if err != nil {
		if !errors.Is(err, ErrDataUnavailable) {
			err = fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		}
		log.Warn("✗ fetch failed, using empty snapshot", zap.String("name", inst.Label()), zap.Error(err))
		snap = model.EmptySnapshot()
	} else {
		log.Info("✓ snapshot ready",
			zap.String("name", inst.Label()),
			zap.Strings("signals", snap.Signals().Names()),
		)
	}

	r := Result{Instrument: inst, Snapshot: snap, Err: err, Duration: time.Since(start)}
	if c.OnResult != nil {
		c.OnResult(r)
	}
	return r
}
