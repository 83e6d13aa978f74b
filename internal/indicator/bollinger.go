package indicator

import (
	"math"

	"marketpulse/internal/model"
)

// Bollinger calculates Bollinger Bands: a rolling simple mean over the
// trailing `period` window with upper/lower bands at ±k population
// standard deviations.
//
// Indices before a full window carry bands collapsed to the price at
// that index (upper == middle == lower == price), never NaN.
func Bollinger(prices []float64, period int, k float64) []model.BollingerBand {
	out := make([]model.BollingerBand, len(prices))
	for i, price := range prices {
		if period <= 0 || i < period-1 {
			out[i] = model.BollingerBand{Upper: price, Middle: price, Lower: price}
			continue
		}

		window := prices[i-period+1 : i+1]
		mean := 0.0
		for _, p := range window {
			mean += p
		}
		mean /= float64(period)

		variance := 0.0
		for _, p := range window {
			d := p - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))

		out[i] = model.BollingerBand{
			Upper:  mean + k*std,
			Middle: mean,
			Lower:  mean - k*std,
		}
	}
	return out
}
