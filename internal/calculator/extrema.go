package calculator

import (
	"math"

	"MarketPulse/internal/model"
)

const (
	// DefaultExtremaWindow is the half-window for general peak/trough scans.
	DefaultExtremaWindow = 5
	// DivergenceWindow is the half-window used by divergence detection.
	DivergenceWindow = 3
)

// DetectExtrema returns the indices of local maxima and minima of series.
//
// Index i in [window, len-window) is a peak when series[i] is strictly greater than
// every defined value in [i-window, i+window], and a trough when strictly less.
// Ties disqualify, so flat stretches produce no extremum at all. NaN marks an
// undefined position: it is never an extremum itself and is ignored as a neighbour.
// A candidate needs at least one defined neighbour.
func DetectExtrema(series []float64, window int) model.ExtremaSet {
	var set model.ExtremaSet
	if window < 1 || len(series) <= 2*window {
		return set
	}
	for i := window; i < len(series)-window; i++ {
		if math.IsNaN(series[i]) {
			continue
		}
		isPeak, isTrough := true, true
		compared := 0
		for j := i - window; j <= i+window; j++ {
			if j == i || math.IsNaN(series[j]) {
				continue
			}
			compared++
			if series[i] <= series[j] {
				isPeak = false
			}
			if series[i] >= series[j] {
				isTrough = false
			}
			if !isPeak && !isTrough {
				break
			}
		}
		if compared == 0 {
			continue
		}
		if isPeak {
			set.Peaks = append(set.Peaks, i)
		}
		if isTrough {
			set.Troughs = append(set.Troughs, i)
		}
	}
	return set
}
