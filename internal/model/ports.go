package model

import "context"

// ── External Collaborator Ports ──
// These interfaces decouple the pipeline from concrete venue clients.
// Each client package satisfies one or more of these interfaces.

// CandleSource serves historical OHLCV pages from an exchange.
type CandleSource interface {
	// GetKlines fetches up to limit candles in [startTime, endTime]
	// (Unix ms). A zero startTime or endTime means "unbounded" on
	// that side. Candles are returned in ascending time order.
	GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]Candle, error)

	// GetTradablePairs lists the exchange's tradable pairs.
	GetTradablePairs(ctx context.Context) ([]TradablePair, error)
}

// QuoteSource serves swap quotes from an AMM aggregator venue.
type QuoteSource interface {
	// GetQuote returns the output amount (in the output asset's atomic
	// units) for swapping amount atomic units of the input asset.
	GetQuote(ctx context.Context, inputMint, outputMint string, amount int64, slippageBps int) (int64, error)
}

// SpotPriceSource serves a single spot price per symbol.
type SpotPriceSource interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// Predictor consumes a fixed-size window of processed candles and
// returns a predicted value with a confidence score. The model itself
// is an external collaborator; the pipeline treats it as opaque.
type Predictor interface {
	Predict(ctx context.Context, window []ProcessedCandle) (value, confidence float64, err error)
}
