package arbitrage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"marketpulse/internal/model"
	"marketpulse/internal/retry"
)

// TokenSource yields the cross-venue token universe to scan.
type TokenSource interface {
	CommonTokens(ctx context.Context) ([]model.CommonToken, error)
}

// QuotePricer derives effective buy/sell prices on the quote venue.
type QuotePricer interface {
	BuyPrice(ctx context.Context, token model.CommonToken, amountUSDC float64) (float64, error)
	SellPrice(ctx context.Context, token model.CommonToken, tokenAmount float64) (float64, error)
}

// ScanConfig tunes one scanner.
type ScanConfig struct {
	// AmountUSDC is the notional per-token trade size. Defaults to 100.
	AmountUSDC float64

	// QuoteFeeRate and SpotFeeRate are the venue taker fees applied to
	// the notional.
	QuoteFeeRate float64
	SpotFeeRate  float64

	// MinProfitPct filters results below this profit percentage.
	MinProfitPct float64

	// PaceDelay spaces successive token analyses to respect venue rate
	// limits. Defaults to 200ms.
	PaceDelay time.Duration

	// QuoteVenue and SpotVenue name the venues in reported directions.
	QuoteVenue string
	SpotVenue  string
}

func (c *ScanConfig) defaults() {
	if c.AmountUSDC == 0 {
		c.AmountUSDC = 100
	}
	if c.PaceDelay == 0 {
		c.PaceDelay = 200 * time.Millisecond
	}
	if c.QuoteVenue == "" {
		c.QuoteVenue = "Jupiter"
	}
	if c.SpotVenue == "" {
		c.SpotVenue = "Binance"
	}
}

// Scanner runs the live-quote arbitrage scan: for each common token it
// quotes both swap directions on the quote venue and the spot price on
// the exchange, then compares the mid against spot.
type Scanner struct {
	cfg     ScanConfig
	tokens  TokenSource
	pricer  QuotePricer
	spot    model.SpotPriceSource
	retry   *retry.Policy
	breaker *retry.CircuitBreaker
	log     *slog.Logger

	// OnTokenScanned is called after every attempted token, success or
	// not (optional, for metrics).
	OnTokenScanned func(ok bool)
}

// NewScanner wires a scanner. The retry policy and breaker guard every
// venue call.
func NewScanner(cfg ScanConfig, tokens TokenSource, pricer QuotePricer, spot model.SpotPriceSource, pol *retry.Policy, breaker *retry.CircuitBreaker, log *slog.Logger) *Scanner {
	cfg.defaults()
	return &Scanner{
		cfg:     cfg,
		tokens:  tokens,
		pricer:  pricer,
		spot:    spot,
		retry:   pol,
		breaker: breaker,
		log:     log,
	}
}

// AnalyzeToken prices one token on both venues and reports the spread.
// The three legs run concurrently, each behind the retry policy and
// the venue breaker.
func (s *Scanner) AnalyzeToken(ctx context.Context, token model.CommonToken) (model.TokenOpportunity, error) {
	var (
		wg        sync.WaitGroup
		buyPrice  float64
		sellPrice float64
		spotPrice float64
		buyErr    error
		sellErr   error
		spotErr   error
	)

	amount := s.cfg.AmountUSDC

	wg.Add(3)
	go func() {
		defer wg.Done()
		buyPrice, buyErr = s.guarded(ctx, func() (float64, error) {
			return s.pricer.BuyPrice(ctx, token, amount)
		})
	}()
	go func() {
		defer wg.Done()
		sellPrice, sellErr = s.guarded(ctx, func() (float64, error) {
			return s.pricer.SellPrice(ctx, token, amount)
		})
	}()
	go func() {
		defer wg.Done()
		spotPrice, spotErr = s.guarded(ctx, func() (float64, error) {
			return s.spot.GetPrice(ctx, token.Symbol+"USDT")
		})
	}()
	wg.Wait()

	for _, err := range []error{buyErr, sellErr, spotErr} {
		if err != nil {
			return model.TokenOpportunity{}, fmt.Errorf("analyze %s: %w", token.Symbol, err)
		}
	}

	return s.compare(token, buyPrice, sellPrice, spotPrice), nil
}

func (s *Scanner) guarded(ctx context.Context, op func() (float64, error)) (float64, error) {
	return retry.Value(ctx, s.retry, func() (float64, error) {
		var v float64
		err := s.breaker.Execute(func() error {
			var opErr error
			v, opErr = op()
			return opErr
		})
		return v, err
	})
}

// compare builds the opportunity report for one token from its three
// price legs.
func (s *Scanner) compare(token model.CommonToken, buyPrice, sellPrice, spotPrice float64) model.TokenOpportunity {
	amount := s.cfg.AmountUSDC
	quoteFee := amount * s.cfg.QuoteFeeRate
	spotFee := amount * s.cfg.SpotFeeRate

	mid := (buyPrice + sellPrice) / 2
	diff := mid - spotPrice
	if diff < 0 {
		diff = -diff
	}

	low := mid
	if spotPrice < low {
		low = spotPrice
	}
	pct := 0.0
	if low > 0 {
		pct = diff / low * 100
	}

	direction := s.cfg.QuoteVenue + "→" + s.cfg.SpotVenue
	if mid > spotPrice {
		direction = s.cfg.SpotVenue + "→" + s.cfg.QuoteVenue
	}

	return model.TokenOpportunity{
		Token:              token,
		QuotePrice:         mid,
		SpotPrice:          spotPrice,
		ProfitPercentage:   pct,
		Direction:          direction,
		EstimatedProfitUSD: amount*diff - (quoteFee + spotFee),
		Fees: model.FeeBreakdown{
			VenueA: quoteFee,
			VenueB: spotFee,
			Total:  quoteFee + spotFee,
		},
		Timestamp: time.Now().UTC(),
	}
}

// ScanAll analyzes the whole token universe. A failed token is logged
// and skipped; the batch continues. Results at or above the profit
// threshold are returned sorted by descending profit percentage.
// Cancellation stops iteration but keeps the opportunities already
// found, returned without error.
func (s *Scanner) ScanAll(ctx context.Context) ([]model.TokenOpportunity, error) {
	tokens, err := s.tokens.CommonTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: token universe: %w", err)
	}

	var opps []model.TokenOpportunity
scan:
	for i, token := range tokens {
		opp, err := s.AnalyzeToken(ctx, token)
		if s.OnTokenScanned != nil {
			s.OnTokenScanned(err == nil)
		}
		if err != nil {
			s.log.Warn("token scan failed, skipping", "symbol", token.Symbol, "error", err)
		} else if opp.ProfitPercentage >= s.cfg.MinProfitPct {
			opps = append(opps, opp)
		}

		if i == len(tokens)-1 {
			break
		}
		select {
		case <-ctx.Done():
			s.log.Info("scan cancelled, returning completed results",
				"analyzed", i+1, "universe", len(tokens))
			break scan
		case <-time.After(s.cfg.PaceDelay):
		}
	}

	sort.Slice(opps, func(i, j int) bool {
		return opps[i].ProfitPercentage > opps[j].ProfitPercentage
	})
	return opps, nil
}
