package indicator

// RSI calculates the Relative Strength Index using Wilder's smoothing.
// The average gain/loss is seeded with the simple mean of the first
// `period` price changes; every later step applies
// avg = (avg*(period-1) + current) / period.
//
// Indices below `period` carry the neutral value 50. When avgLoss is
// zero the RSI is 100 by convention.
func RSI(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = neutralRSI
	}
	if period <= 0 || len(prices) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

// RSILast returns the single RSI value for the most recent full window,
// or the neutral value when the series is too short.
func RSILast(prices []float64, period int) float64 {
	series := RSI(prices, period)
	if len(series) == 0 {
		return neutralRSI
	}
	return series[len(series)-1]
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
