package model

import (
	"encoding/json"
	"math"
)

// Candle represents one OHLCV bar for a single symbol.
// Timestamp is the bucket open time in Unix milliseconds (exchange convention).
// Immutable once produced.
type Candle struct {
	Symbol    string  `json:"symbol,omitempty"`
	Timestamp int64   `json:"timestamp"` // ms since epoch
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Validate reports whether all numeric fields are finite.
// A candle that fails validation aborts the enclosing computation
// and is never retried.
func (c *Candle) Validate() error {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrValidation
		}
	}
	return nil
}

// MACDValue is one point of the MACD indicator.
type MACDValue struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerBand is one point of the Bollinger Bands indicator.
type BollingerBand struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSet holds all indicator values aligned to one candle.
// Indices before a full lookback window carry neutral defaults
// (RSI 50, zero MACD, bands collapsed to the close) rather than
// being absent.
type IndicatorSet struct {
	RSI        float64       `json:"rsi"`
	MACD       MACDValue     `json:"macd"`
	Bollinger  BollingerBand `json:"bollinger"`
	Volatility float64       `json:"volatility"`
}

// ProcessedCandle is a candle annotated with its indicator set.
// This is the unit stored in symbol windows and broadcast to clients.
type ProcessedCandle struct {
	Candle
	Indicators IndicatorSet `json:"indicators"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (p *ProcessedCandle) JSON() []byte {
	b, _ := json.Marshal(p)
	return b
}
