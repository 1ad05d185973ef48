package model

import (
	"math"

	"github.com/moznion/go-optional"
)

// KDJ is the stochastic oscillator value at one position.
type KDJ struct {
	K float64
	D float64
	J float64
}

// OscillatorSeries is aligned index by index with the bars it was computed from.
// Positions where the RSV is undefined hold None.
type OscillatorSeries []optional.Option[KDJ]

// At returns the value at index i, or None when i is out of range.
func (s OscillatorSeries) At(i int) optional.Option[KDJ] {
	if i < 0 || i >= len(s) {
		return optional.None[KDJ]()
	}
	return s[i]
}

// Last returns the most recent value.
func (s OscillatorSeries) Last() optional.Option[KDJ] {
	return s.At(len(s) - 1)
}

// KLine returns the K values with NaN at undefined positions.
func (s OscillatorSeries) KLine() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v.IsNone() {
			out[i] = math.NaN()
			continue
		}
		out[i] = v.Unwrap().K
	}
	return out
}

// ExtremaSet holds strictly increasing indices of local maxima and minima.
type ExtremaSet struct {
	Peaks   []int
	Troughs []int
}
