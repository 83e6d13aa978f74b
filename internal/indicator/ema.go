package indicator

// EMA calculates the Exponential Moving Average. The value at index
// period-1 is seeded with the simple mean of the first `period`
// prices; later indices follow
// ema[i] = (price[i] − ema[i-1]) × 2/(period+1) + ema[i-1].
//
// Indices before the seed carry the running mean of the prices seen so
// far, which converges into the seed without a discontinuity.
func EMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 || period <= 0 {
		return out
	}

	multiplier := 2.0 / float64(period+1)
	var sum float64
	for i, price := range prices {
		if i < period {
			sum += price
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = (price-out[i-1])*multiplier + out[i-1]
	}
	return out
}
