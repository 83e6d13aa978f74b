package jupiter

import (
	"context"
	"errors"
	"math"
	"testing"

	"marketpulse/internal/model"
)

// fakeQuotes returns canned outAmounts keyed by inputMint and records
// the requested amounts.
type fakeQuotes struct {
	out      map[string]int64
	err      error
	requests []int64
}

func (f *fakeQuotes) GetQuote(ctx context.Context, inputMint, outputMint string, amount int64, slippageBps int) (int64, error) {
	f.requests = append(f.requests, amount)
	if f.err != nil {
		return 0, f.err
	}
	return f.out[inputMint], nil
}

const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

var solToken = model.CommonToken{Symbol: "SOL", Mint: "So11111111111111111111111111111111111111112", Decimals: 9}

func TestBuyPrice(t *testing.T) {
	// 100 USDC buys 0.5 SOL (5e8 lamports at 9 decimals) → 200 USDC/SOL
	fq := &fakeQuotes{out: map[string]int64{usdcMint: 500_000_000}}
	p := NewPricer(fq, usdcMint)

	price, err := p.BuyPrice(context.Background(), solToken, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(price-200) > 1e-9 {
		t.Errorf("got %v, want 200", price)
	}
	// Request must be in USDC atomic units
	if fq.requests[0] != 100_000_000 {
		t.Errorf("requested amount: got %d, want 100000000", fq.requests[0])
	}
}

func TestSellPrice(t *testing.T) {
	// Selling 0.5 SOL yields 99 USDC → 198 USDC/SOL
	fq := &fakeQuotes{out: map[string]int64{solToken.Mint: 99_000_000}}
	p := NewPricer(fq, usdcMint)

	price, err := p.SellPrice(context.Background(), solToken, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(price-198) > 1e-9 {
		t.Errorf("got %v, want 198", price)
	}
	// Request must be in token atomic units at the token's decimals
	if fq.requests[0] != 500_000_000 {
		t.Errorf("requested amount: got %d, want 500000000", fq.requests[0])
	}
}

func TestBuyPrice_ZeroOutputRejected(t *testing.T) {
	fq := &fakeQuotes{out: map[string]int64{usdcMint: 0}}
	p := NewPricer(fq, usdcMint)

	if _, err := p.BuyPrice(context.Background(), solToken, 100); !model.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSellPrice_NonPositiveAmountRejected(t *testing.T) {
	p := NewPricer(&fakeQuotes{}, usdcMint)

	if _, err := p.SellPrice(context.Background(), solToken, 0); !model.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPricer_PropagatesQuoteError(t *testing.T) {
	wantErr := errors.New("rate limited")
	p := NewPricer(&fakeQuotes{err: wantErr}, usdcMint)

	if _, err := p.BuyPrice(context.Background(), solToken, 100); !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped quote error, got %v", err)
	}
}
