package model

import "time"

// PriceQuote maps symbol → price for one market at a point in time.
type PriceQuote map[string]float64

// TradablePair describes one listed trading pair on an exchange.
type TradablePair struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
	Status     string `json:"status"`
}

// CommonToken is a token listed on both venues, joined by symbol.
type CommonToken struct {
	Symbol   string `json:"symbol"`
	Mint     string `json:"mint"`     // on-chain mint address
	Decimals int    `json:"decimals"` // on-chain decimals
	LogoURI  string `json:"logoURI,omitempty"`
}

// FeeBreakdown itemizes the per-venue trading fees for one analysis.
type FeeBreakdown struct {
	VenueA float64 `json:"venueA"`
	VenueB float64 `json:"venueB"`
	Total  float64 `json:"total"`
}

// Opportunity is one cross-market price-arbitrage opportunity from the
// quote-pair analysis. Prices are slippage-adjusted execution prices.
// Created transiently per detection pass; never persisted.
type Opportunity struct {
	Symbol           string  `json:"symbol"`
	MarketA          string  `json:"exchangeA"`
	PriceA           float64 `json:"priceA"`
	MarketB          string  `json:"exchangeB"`
	PriceB           float64 `json:"priceB"`
	Profit           float64 `json:"profit"`
	ProfitPercentage float64 `json:"profitPercentage"`
}

// TokenOpportunity is one result of the live-quote scan for a single token.
type TokenOpportunity struct {
	Token              CommonToken  `json:"token"`
	QuotePrice         float64      `json:"quotePrice"` // mid of buy/sell legs on venue A
	SpotPrice          float64      `json:"spotPrice"`  // venue B spot
	ProfitPercentage   float64      `json:"profitPercentage"`
	Direction          string       `json:"direction"`
	EstimatedProfitUSD float64      `json:"estimatedProfitUSD"`
	Fees               FeeBreakdown `json:"fees"`
	Timestamp          time.Time    `json:"timestamp"`
}
