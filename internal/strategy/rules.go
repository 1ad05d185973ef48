package strategy

import "MarketPulse/internal/model"

// goldenCross: K and J both cross above D on the latest bar.
func goldenCross(prev, curr model.KDJ) bool {
	return prev.K <= prev.D && curr.K > curr.D &&
		prev.J <= prev.D && curr.J > curr.D
}

// deathCross: K and J both cross below D on the latest bar.
func deathCross(prev, curr model.KDJ) bool {
	return prev.K >= prev.D && curr.K < curr.D &&
		prev.J >= prev.D && curr.J < curr.D
}

// topDivergence: price makes a higher high while K makes a lower high.
func topDivergence(closes, kLine []float64, pricePeaks, kPeaks []int, maxAge int) bool {
	if len(pricePeaks) < 2 || len(kPeaks) < 2 {
		return false
	}
	last, prev := lastTwo(pricePeaks)
	kLast, kPrev := lastTwo(kPeaks)

	return len(closes)-last <= maxAge &&
		closes[last] > closes[prev] &&
		kLine[kLast] < kLine[kPrev]
}

// bottomDivergence: price makes a lower low while K makes a higher low.
func bottomDivergence(closes, kLine []float64, priceTroughs, kTroughs []int, maxAge int) bool {
	if len(priceTroughs) < 2 || len(kTroughs) < 2 {
		return false
	}
	last, prev := lastTwo(priceTroughs)
	kLast, kPrev := lastTwo(kTroughs)

	return len(closes)-last <= maxAge &&
		closes[last] < closes[prev] &&
		kLine[kLast] > kLine[kPrev]
}

func lastTwo(idx []int) (last, prev int) {
	return idx[len(idx)-1], idx[len(idx)-2]
}
