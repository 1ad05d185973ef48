package calculator

import (
	"math"

	"github.com/moznion/go-optional"

	"MarketPulse/internal/model"
)

// DefaultKDJPeriod is the RSV lookback of the (9, 3, 3) KDJ.
const DefaultKDJPeriod = 9

// kdjSeed is the K and D value assumed before the first defined RSV.
const kdjSeed = 50.0

// CalculateRSV returns the raw stochastic value of bar i over the n bars ending at i.
// It is None before the window fills and when the window's high equals its low.
func CalculateRSV(bars []model.OHLCV, i, n int) optional.Option[float64] {
	if n <= 0 || i < n-1 || i >= len(bars) {
		return optional.None[float64]()
	}
	high, low, err := CalculateRange(bars, i, n)
	if err != nil || high == low {
		return optional.None[float64]()
	}
	rsv := (bars[i].Close - low) / (high - low) * 100
	if math.IsNaN(rsv) || math.IsInf(rsv, 0) {
		return optional.None[float64]()
	}
	return optional.Some(rsv)
}

// CalculateRSVSeries returns the RSV at every position of bars.
func CalculateRSVSeries(bars []model.OHLCV, n int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(bars))
	for i := range bars {
		out[i] = CalculateRSV(bars, i, n)
	}
	return out
}

// kdjState carries the previous K and D through the recurrence.
type kdjState struct {
	k, d float64
}

func (s kdjState) step(rsv float64) kdjState {
	k := (2.0/3.0)*s.k + (1.0/3.0)*rsv
	d := (2.0/3.0)*s.d + (1.0/3.0)*k
	return kdjState{k: k, d: d}
}

// SmoothKDJ folds an RSV series into K, D and J.
// An undefined RSV yields None and leaves the carried K and D untouched.
func SmoothKDJ(rsv []optional.Option[float64]) model.OscillatorSeries {
	series := make(model.OscillatorSeries, len(rsv))
	state := kdjState{k: kdjSeed, d: kdjSeed}
	for i, r := range rsv {
		if r.IsNone() {
			series[i] = optional.None[model.KDJ]()
			continue
		}
		state = state.step(r.Unwrap())
		series[i] = optional.Some(model.KDJ{
			K: state.k,
			D: state.d,
			J: 3*state.k - 2*state.d,
		})
	}
	return series
}

// CalculateKDJ computes the KDJ oscillator over bars with an n-bar RSV window.
// Series shorter than n come back all None.
func CalculateKDJ(bars []model.OHLCV, n int) model.OscillatorSeries {
	return SmoothKDJ(CalculateRSVSeries(bars, n))
}
