package jupiter

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"marketpulse/internal/model"
)

// Pricer derives effective USDC prices per token from swap quotes.
// Both legs are quoted in the asset's atomic units; conversions use
// exact decimal arithmetic to avoid float drift at large scales.
type Pricer struct {
	quotes   model.QuoteSource
	usdcMint string
}

// NewPricer creates a pricer over any quote source.
func NewPricer(quotes model.QuoteSource, usdcMint string) *Pricer {
	return &Pricer{quotes: quotes, usdcMint: usdcMint}
}

// BuyPrice quotes buying the token with amountUSDC whole USDC and
// returns the effective USDC price per token received.
func (p *Pricer) BuyPrice(ctx context.Context, token model.CommonToken, amountUSDC float64) (float64, error) {
	usdcAtomic := decimal.NewFromFloat(amountUSDC).Mul(pow10(USDCDecimals)).IntPart()

	out, err := p.quotes.GetQuote(ctx, p.usdcMint, token.Mint, usdcAtomic, DefaultSlippageBps)
	if err != nil {
		return 0, err
	}
	tokensReceived := decimal.NewFromInt(out).Div(pow10(token.Decimals))
	if tokensReceived.IsZero() {
		return 0, fmt.Errorf("%w: zero output for %s buy quote", model.ErrValidation, token.Symbol)
	}
	price, _ := decimal.NewFromFloat(amountUSDC).Div(tokensReceived).Float64()
	return price, nil
}

// SellPrice quotes selling tokenAmount whole tokens for USDC and
// returns the effective USDC price per token sold.
func (p *Pricer) SellPrice(ctx context.Context, token model.CommonToken, tokenAmount float64) (float64, error) {
	if tokenAmount <= 0 {
		return 0, fmt.Errorf("%w: non-positive token amount for %s sell quote", model.ErrValidation, token.Symbol)
	}
	tokenAtomic := decimal.NewFromFloat(tokenAmount).Mul(pow10(token.Decimals)).IntPart()

	out, err := p.quotes.GetQuote(ctx, token.Mint, p.usdcMint, tokenAtomic, DefaultSlippageBps)
	if err != nil {
		return 0, err
	}
	usdcReceived := decimal.NewFromInt(out).Div(pow10(USDCDecimals))
	price, _ := usdcReceived.Div(decimal.NewFromFloat(tokenAmount)).Float64()
	return price, nil
}

func pow10(n int) decimal.Decimal {
	return decimal.New(1, int32(n))
}
