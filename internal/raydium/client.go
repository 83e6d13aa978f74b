// Package raydium implements the Solana AMM price-map client used by
// the quote-pair arbitrage analysis.
package raydium

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marketpulse/internal/model"
)

// priceBatchSize caps the mints per price request.
const priceBatchSize = 50

// Client talks to the Raydium v3 API.
type Client struct {
	baseURL string
	http    *http.Client
}

// TokenInfo is one entry of the Raydium mint list.
type TokenInfo struct {
	Symbol string
	Mint   string
}

// NewClient creates a client for the given API base URL,
// e.g. "https://api-v3.raydium.io".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetTokenList fetches the mint list: symbol and mint address per token.
func (c *Client) GetTokenList(ctx context.Context) ([]TokenInfo, error) {
	body, err := c.get(ctx, "/mint/list")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			MintList []struct {
				Symbol  string `json:"symbol"`
				Address string `json:"address"`
			} `json:"mintList"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("raydium: decode mint list: %w", err)
	}

	tokens := make([]TokenInfo, 0, len(payload.Data.MintList))
	for _, t := range payload.Data.MintList {
		if t.Symbol == "" || t.Address == "" {
			continue
		}
		tokens = append(tokens, TokenInfo{Symbol: t.Symbol, Mint: t.Address})
	}
	return tokens, nil
}

// GetPrices fetches the USDC price for every listed token and returns
// a symbol → price map. USDC itself is skipped; tokens without a
// published price are omitted.
func (c *Client) GetPrices(ctx context.Context) (model.PriceQuote, error) {
	tokens, err := c.GetTokenList(ctx)
	if err != nil {
		return nil, err
	}

	prices := make(model.PriceQuote)
	for start := 0; start < len(tokens); start += priceBatchSize {
		end := start + priceBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		if err := c.fetchPriceBatch(ctx, tokens[start:end], prices); err != nil {
			return nil, err
		}
	}
	return prices, nil
}

func (c *Client) fetchPriceBatch(ctx context.Context, tokens []TokenInfo, prices model.PriceQuote) error {
	mints := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Symbol == "USDC" {
			continue
		}
		mints = append(mints, t.Mint)
	}
	if len(mints) == 0 {
		return nil
	}

	body, err := c.get(ctx, "/mint/price?mints="+strings.Join(mints, ","))
	if err != nil {
		return err
	}

	// data is a mint → price map; absent mints have no pool price
	var payload struct {
		Data map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("raydium: decode prices: %w", err)
	}

	for _, t := range tokens {
		if price, ok := payload.Data[t.Mint]; ok && price > 0 {
			prices[t.Symbol] = price
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("raydium: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("raydium: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("raydium: read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("raydium: %s: unexpected status %d", path, resp.StatusCode)
	}
	return body, nil
}
