package strategy

import (
	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
)

// Options tunes divergence detection. Start from DefaultOptions.
type Options struct {
	// ExtremaWindow is the half-window used to find price and K extrema.
	ExtremaWindow int
	// MinDivergenceBars is the shortest series on which divergence is evaluated.
	MinDivergenceBars int
	// MaxExtremumAge is how far from the series end the latest price extremum may sit.
	MaxExtremumAge int
}

// DefaultOptions returns the classifier settings used for every instrument.
func DefaultOptions() Options {
	return Options{
		ExtremaWindow:     calculator.DivergenceWindow,
		MinDivergenceBars: 20,
		MaxExtremumAge:    5,
	}
}

// Classify computes the signal vector for the latest bar.
// closes and osc must be aligned; any mismatch or an undefined KDJ on either of the
// last two bars resolves every signal to false.
func Classify(closes []float64, osc model.OscillatorSeries, opts Options) model.SignalVector {
	var v model.SignalVector

	n := len(closes)
	if n < 2 || len(osc) != n {
		return v
	}
	prevOpt, currOpt := osc[n-2], osc[n-1]
	if prevOpt.IsNone() || currOpt.IsNone() {
		return v
	}
	prev, curr := prevOpt.Unwrap(), currOpt.Unwrap()

	v.GoldenCross = goldenCross(prev, curr)
	v.DeathCross = deathCross(prev, curr)

	if n < opts.MinDivergenceBars {
		return v
	}
	kLine := osc.KLine()
	price := calculator.DetectExtrema(closes, opts.ExtremaWindow)
	momentum := calculator.DetectExtrema(kLine, opts.ExtremaWindow)

	v.TopDivergence = topDivergence(closes, kLine, price.Peaks, momentum.Peaks, opts.MaxExtremumAge)
	v.BottomDivergence = bottomDivergence(closes, kLine, price.Troughs, momentum.Troughs, opts.MaxExtremumAge)
	return v
}
