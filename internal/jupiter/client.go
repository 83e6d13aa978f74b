// Package jupiter implements the quote API client for the Solana DEX
// aggregator and derives effective per-token USDC prices from quotes.
package jupiter

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

// USDCDecimals is the atomic-unit scale of USDC on Solana.
const USDCDecimals = 6

// DefaultSlippageBps is the slippage tolerance requested on quotes.
const DefaultSlippageBps = 50

// Client talks to the Jupiter quote API (v6). Satisfies
// model.QuoteSource.
type Client struct {
	quoteURL string
	http     *http.Client
}

// NewClient creates a quote client.
// quoteURL: full quote endpoint, e.g. "https://quote-api.jup.ag/v6/quote".
func NewClient(quoteURL string) *Client {
	return &Client{
		quoteURL: quoteURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetQuote returns the output amount, in the output asset's atomic
// units, for swapping amount atomic units of the input asset.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount int64, slippageBps int) (int64, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatInt(amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.quoteURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("jupiter: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("jupiter: quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("jupiter: read quote: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("jupiter: quote: unexpected status %d", resp.StatusCode)
	}

	// outAmount is a quoted integer string
	var quote struct {
		OutAmount string `json:"outAmount"`
	}
	if err := json.Unmarshal(body, &quote); err != nil {
		return 0, fmt.Errorf("jupiter: decode quote: %w", err)
	}
	out, err := strconv.ParseInt(quote.OutAmount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: outAmount %q", model.ErrValidation, quote.OutAmount)
	}
	return out, nil
}
