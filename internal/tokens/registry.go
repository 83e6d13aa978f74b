// Package tokens builds the cross-venue token registry: tokens listed
// on the Solana aggregator whose symbol also trades on the exchange.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"marketpulse/internal/model"
)

// maxCommonTokens caps the scan universe per batch.
const maxCommonTokens = 10

// PairLister is the slice of the exchange client the registry needs.
type PairLister interface {
	GetTradablePairs(ctx context.Context) ([]model.TradablePair, error)
}

// Registry joins the aggregator token list against exchange listings.
// The joined result is cached after the first successful fetch.
type Registry struct {
	listURL string
	pairs   PairLister
	http    *http.Client
	log     *slog.Logger

	cached []model.CommonToken
}

// NewRegistry creates a registry.
// listURL: the aggregator's full token list endpoint,
// e.g. "https://token.jup.ag/all".
func NewRegistry(listURL string, pairs PairLister, log *slog.Logger) *Registry {
	return &Registry{
		listURL: listURL,
		pairs:   pairs,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type listedToken struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// CommonTokens returns tokens present on both venues, joined on upper
// cased symbol and capped to the first listed matches. Both source
// fetches run concurrently.
func (r *Registry) CommonTokens(ctx context.Context) ([]model.CommonToken, error) {
	if len(r.cached) > 0 {
		return r.cached, nil
	}

	type listResult struct {
		tokens []listedToken
		err    error
	}
	type pairResult struct {
		pairs []model.TradablePair
		err   error
	}

	listCh := make(chan listResult, 1)
	pairCh := make(chan pairResult, 1)

	go func() {
		tokens, err := r.fetchTokenList(ctx)
		listCh <- listResult{tokens, err}
	}()
	go func() {
		pairs, err := r.pairs.GetTradablePairs(ctx)
		pairCh <- pairResult{pairs, err}
	}()

	list := <-listCh
	if list.err != nil {
		return nil, fmt.Errorf("tokens: aggregator list: %w", list.err)
	}
	pr := <-pairCh
	if pr.err != nil {
		return nil, fmt.Errorf("tokens: exchange pairs: %w", pr.err)
	}

	common := joinCommon(list.tokens, pr.pairs)

	r.log.Info("token registry built",
		"aggregator", len(list.tokens), "exchange", len(pr.pairs), "common", len(common))
	r.cached = common
	return common, nil
}

// joinCommon matches aggregator tokens against exchange base assets by
// upper-cased symbol, preserving aggregator list order, capped to the
// first matches.
func joinCommon(tokens []listedToken, pairs []model.TradablePair) []model.CommonToken {
	listed := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		listed[p.BaseAsset] = struct{}{}
	}

	common := make([]model.CommonToken, 0, maxCommonTokens)
	for _, t := range tokens {
		symbol := strings.ToUpper(t.Symbol)
		if _, ok := listed[symbol]; !ok {
			continue
		}
		common = append(common, model.CommonToken{
			Symbol:   symbol,
			Mint:     t.Address,
			Decimals: t.Decimals,
			LogoURI:  t.LogoURI,
		})
		if len(common) == maxCommonTokens {
			break
		}
	}
	return common
}

func (r *Registry) fetchTokenList(ctx context.Context) ([]listedToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tokens []listedToken
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("decode token list: %w", err)
	}
	return tokens, nil
}
