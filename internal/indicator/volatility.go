package indicator

import "math"

// Volatility calculates the rolling standard deviation of log returns
// over the trailing `period` window (the window ends just before the
// current index, so the value at i describes the period leading up to
// it).
//
// Indices below `period` carry 0.
func Volatility(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if period <= 0 {
		return out
	}
	for i := period; i < len(prices); i++ {
		window := prices[i-period : i]
		var sumSq float64
		for j := 1; j < len(window); j++ {
			if window[j-1] <= 0 || window[j] <= 0 {
				continue // log undefined, skip degenerate prices
			}
			r := math.Log(window[j] / window[j-1])
			sumSq += r * r
		}
		out[i] = math.Sqrt(sumSq / float64(period))
	}
	return out
}
