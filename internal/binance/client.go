// Package binance implements the spot REST and kline stream clients.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"marketpulse/internal/model"
)

// Client talks to the Binance spot REST API. It satisfies
// model.CandleSource and model.SpotPriceSource.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a REST client for the given API base URL,
// e.g. "https://api.binance.com/api/v3".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetKlines fetches up to limit candles for symbol/interval in
// [startTime, endTime] (Unix ms, zero = unbounded). Candles arrive in
// ascending time order. A malformed row fails the whole page with a
// validation error.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	if startTime > 0 {
		q.Set("startTime", strconv.FormatInt(startTime, 10))
	}
	if endTime > 0 {
		q.Set("endTime", strconv.FormatInt(endTime, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.get(ctx, "/klines", q)
	if err != nil {
		return nil, err
	}

	// Klines come back as heterogeneous arrays:
	// [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("binance: decode klines: %w", err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKlineRow(symbol, row)
		if err != nil {
			return nil, fmt.Errorf("binance: kline row %d: %w", i, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseKlineRow(symbol string, row []json.RawMessage) (model.Candle, error) {
	if len(row) < 6 {
		return model.Candle{}, fmt.Errorf("%w: %d fields", model.ErrValidation, len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return model.Candle{}, fmt.Errorf("%w: open time: %v", model.ErrValidation, err)
	}

	// OHLCV arrive as quoted decimal strings
	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return model.Candle{}, fmt.Errorf("%w: field %d: %v", model.ErrValidation, i+1, err)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Candle{}, fmt.Errorf("%w: field %d: %v", model.ErrValidation, i+1, err)
		}
		fields[i] = f
	}

	candle := model.Candle{
		Symbol:    symbol,
		Timestamp: openTime,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}
	if err := candle.Validate(); err != nil {
		return model.Candle{}, err
	}
	return candle, nil
}

// GetTradablePairs lists pairs currently in TRADING status with spot
// trading allowed.
func (c *Client) GetTradablePairs(ctx context.Context) ([]model.TradablePair, error) {
	body, err := c.get(ctx, "/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}

	var info struct {
		Symbols []struct {
			Symbol               string `json:"symbol"`
			BaseAsset            string `json:"baseAsset"`
			QuoteAsset           string `json:"quoteAsset"`
			Status               string `json:"status"`
			IsSpotTradingAllowed bool   `json:"isSpotTradingAllowed"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("binance: decode exchange info: %w", err)
	}

	pairs := make([]model.TradablePair, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || !s.IsSpotTradingAllowed {
			continue
		}
		pairs = append(pairs, model.TradablePair{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
			Status:     s.Status,
		})
	}
	return pairs, nil
}

// GetPrice returns the current spot price for one symbol.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	body, err := c.get(ctx, "/ticker/price", q)
	if err != nil {
		return 0, err
	}

	var ticker struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil {
		return 0, fmt.Errorf("binance: decode ticker: %w", err)
	}
	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: ticker price %q", model.ErrValidation, ticker.Price)
	}
	return price, nil
}

// QuotePrices returns base-asset spot prices for every TRADING pair
// with the given quote asset, keyed by base asset symbol.
func (c *Client) QuotePrices(ctx context.Context, quoteAsset string) (model.PriceQuote, error) {
	pairs, err := c.GetTradablePairs(ctx)
	if err != nil {
		return nil, err
	}

	prices := make(model.PriceQuote)
	for _, pair := range pairs {
		if pair.QuoteAsset != quoteAsset {
			continue
		}
		price, err := c.GetPrice(ctx, pair.Symbol)
		if err != nil {
			return nil, fmt.Errorf("binance: price for %s: %w", pair.Symbol, err)
		}
		prices[pair.BaseAsset] = price
	}
	return prices, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance: read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance: %s: unexpected status %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
