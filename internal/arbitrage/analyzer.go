// Package arbitrage detects cross-market price discrepancies, modeling
// fees and slippage so reported profit reflects executable trades.
package arbitrage

import (
	"sort"

	"github.com/shopspring/decimal"

	"marketpulse/internal/model"
)

// maxSanePercent discards opportunities above this profit percentage;
// spreads that wide are stale listings or broken pools, not trades.
const maxSanePercent = 25.0

// Analyzer runs the price-map comparison between two markets.
type Analyzer struct {
	feeRateA decimal.Decimal // taker fee on market A, e.g. 0.001
	feeRateB decimal.Decimal // taker fee on market B
	slippage decimal.Decimal // expected slippage, e.g. 0.005
}

// NewAnalyzer creates an analyzer with per-market fee rates and a
// shared slippage assumption.
func NewAnalyzer(feeRateA, feeRateB, slippage float64) *Analyzer {
	return &Analyzer{
		feeRateA: decimal.NewFromFloat(feeRateA),
		feeRateB: decimal.NewFromFloat(feeRateB),
		slippage: decimal.NewFromFloat(slippage),
	}
}

// FindOpportunities compares two symbol → price maps and returns every
// profitable direction per common symbol.
//
// For each symbol priced on both markets, the buy side is worsened by
// slippage (pay more) and the sell side likewise (receive less), then
// absolute fees for both legs are subtracted. A direction qualifies
// when net profit is positive and the profit percentage does not
// exceed the sanity cap. Both directions of the same symbol can
// qualify only in degenerate inputs; normally at most one does.
func (a *Analyzer) FindOpportunities(marketA, marketB string, pricesA, pricesB model.PriceQuote) []model.Opportunity {
	one := decimal.NewFromInt(1)
	buyFactor := one.Add(a.slippage)  // pay slippage when buying
	sellFactor := one.Sub(a.slippage) // lose slippage when selling

	var opps []model.Opportunity
	for symbol, rawA := range pricesA {
		rawB, ok := pricesB[symbol]
		if !ok || rawA <= 0 || rawB <= 0 {
			continue
		}

		priceA := decimal.NewFromFloat(rawA)
		priceB := decimal.NewFromFloat(rawB)

		// Fees are charged on the unadjusted price of each leg
		feeA := priceA.Mul(a.feeRateA)
		feeB := priceB.Mul(a.feeRateB)
		totalFees := feeA.Add(feeB)

		buyOnA := priceA.Mul(buyFactor)
		sellOnA := priceA.Mul(sellFactor)
		buyOnB := priceB.Mul(buyFactor)
		sellOnB := priceB.Mul(sellFactor)

		// Buy on A, sell on B
		if opp, ok := direction(symbol, marketA, buyOnA, marketB, sellOnB, totalFees); ok {
			opps = append(opps, opp)
		}
		// Buy on B, sell on A
		if opp, ok := direction(symbol, marketB, buyOnB, marketA, sellOnA, totalFees); ok {
			opps = append(opps, opp)
		}
	}

	sort.Slice(opps, func(i, j int) bool {
		return opps[i].ProfitPercentage > opps[j].ProfitPercentage
	})
	return opps
}

// direction evaluates one buy-here-sell-there leg pair. buyPrice and
// sellPrice are already slippage-adjusted.
func direction(symbol, buyMarket string, buyPrice decimal.Decimal, sellMarket string, sellPrice, fees decimal.Decimal) (model.Opportunity, bool) {
	profit := sellPrice.Sub(buyPrice).Sub(fees)
	if profit.Sign() <= 0 {
		return model.Opportunity{}, false
	}

	pct := profit.Div(buyPrice).Mul(decimal.NewFromInt(100)).Round(2)
	if pct.GreaterThan(decimal.NewFromFloat(maxSanePercent)) {
		return model.Opportunity{}, false
	}

	profitF, _ := profit.Float64()
	pctF, _ := pct.Float64()
	buyF, _ := buyPrice.Float64()
	sellF, _ := sellPrice.Float64()
	return model.Opportunity{
		Symbol:           symbol,
		MarketA:          buyMarket,
		PriceA:           buyF,
		MarketB:          sellMarket,
		PriceB:           sellF,
		Profit:           profitF,
		ProfitPercentage: pctF,
	}, true
}
