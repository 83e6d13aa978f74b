// Package indicator provides technical indicator calculations over
// price series.
//
// All functions are pure and deterministic. Every function returns a
// slice with the same length as its input, left-padded with neutral
// defaults until a full lookback window has accumulated: RSI 50, a
// zero MACD triple, Bollinger bands collapsed to the price at that
// index, volatility 0. This keeps indicator index i aligned with
// candle index i everywhere in the pipeline — windows, broadcasts and
// snapshots never need offset bookkeeping.
package indicator

import "marketpulse/internal/model"

// Default periods, matching the exchange-dashboard conventions.
const (
	DefaultRSIPeriod        = 14
	DefaultMACDFast         = 12
	DefaultMACDSlow         = 26
	DefaultMACDSignal       = 9
	DefaultBollingerPeriod  = 20
	DefaultBollingerK       = 2.0
	DefaultVolatilityPeriod = 14
)

// neutralRSI is the padding value used before a full RSI window exists.
const neutralRSI = 50.0

// Annotate computes all indicators over the candle series and returns
// the candles paired with their index-aligned indicator sets.
//
// The whole series is processed in one pass so rolling state carries
// across page boundaries; callers must not annotate pages separately.
func Annotate(candles []model.Candle) []model.ProcessedCandle {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	rsi := RSI(closes, DefaultRSIPeriod)
	macd := MACDSeries(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	bands := Bollinger(closes, DefaultBollingerPeriod, DefaultBollingerK)
	vol := Volatility(closes, DefaultVolatilityPeriod)

	out := make([]model.ProcessedCandle, len(candles))
	for i, c := range candles {
		out[i] = model.ProcessedCandle{
			Candle: c,
			Indicators: model.IndicatorSet{
				RSI:        rsi[i],
				MACD:       macd[i],
				Bollinger:  bands[i],
				Volatility: vol[i],
			},
		}
	}
	return out
}
