package indicator

import "marketpulse/internal/model"

// MACDSeries calculates Moving Average Convergence Divergence:
// macd = EMA(fast) − EMA(slow), signal = EMA(macd, signalPeriod),
// histogram = macd − signal.
//
// A value is only defined once both the slow EMA and the signal EMA
// have full history, i.e. from index slow+signalPeriod−2 onward;
// earlier indices carry the neutral zero triple. Inputs shorter than
// slow+signalPeriod yield all zeros.
func MACDSeries(prices []float64, fast, slow, signalPeriod int) []model.MACDValue {
	out := make([]model.MACDValue, len(prices))
	if len(prices) < slow+signalPeriod {
		return out
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)

	// macdLine is only meaningful once the slow EMA is seeded.
	firstMACD := slow - 1
	macdLine := make([]float64, 0, len(prices)-firstMACD)
	for i := firstMACD; i < len(prices); i++ {
		macdLine = append(macdLine, fastEMA[i]-slowEMA[i])
	}

	signalLine := EMA(macdLine, signalPeriod)

	// Both lines are fully seeded from macdLine index signalPeriod-1,
	// i.e. price index slow+signalPeriod-2.
	firstFull := firstMACD + signalPeriod - 1
	for i := firstFull; i < len(prices); i++ {
		m := macdLine[i-firstMACD]
		s := signalLine[i-firstMACD]
		out[i] = model.MACDValue{
			MACD:      m,
			Signal:    s,
			Histogram: m - s,
		}
	}
	return out
}
