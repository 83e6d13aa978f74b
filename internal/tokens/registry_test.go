package tokens

import (
	"fmt"
	"testing"

	"marketpulse/internal/model"
)

func pairsFor(bases ...string) []model.TradablePair {
	pairs := make([]model.TradablePair, len(bases))
	for i, b := range bases {
		pairs[i] = model.TradablePair{
			Symbol:     b + "USDT",
			BaseAsset:  b,
			QuoteAsset: "USDT",
			Status:     "TRADING",
		}
	}
	return pairs
}

func TestJoinCommon_MatchesBySymbol(t *testing.T) {
	tokens := []listedToken{
		{Symbol: "SOL", Address: "So1111", Decimals: 9},
		{Symbol: "BONK", Address: "Bonk11", Decimals: 5},
		{Symbol: "WIF", Address: "Wif111", Decimals: 6},
	}
	pairs := pairsFor("SOL", "WIF", "ETH")

	got := joinCommon(tokens, pairs)
	if len(got) != 2 {
		t.Fatalf("expected 2 common tokens, got %d", len(got))
	}
	if got[0].Symbol != "SOL" || got[0].Mint != "So1111" || got[0].Decimals != 9 {
		t.Errorf("first match: got %+v", got[0])
	}
	if got[1].Symbol != "WIF" {
		t.Errorf("second match: got %+v", got[1])
	}
}

func TestJoinCommon_CaseInsensitiveSymbols(t *testing.T) {
	tokens := []listedToken{{Symbol: "sol", Address: "So1111", Decimals: 9}}

	got := joinCommon(tokens, pairsFor("SOL"))
	if len(got) != 1 || got[0].Symbol != "SOL" {
		t.Fatalf("lower-cased aggregator symbol should still match: got %+v", got)
	}
}

func TestJoinCommon_CapsUniverse(t *testing.T) {
	var tokens []listedToken
	var bases []string
	for i := 0; i < 30; i++ {
		sym := fmt.Sprintf("TOK%d", i)
		tokens = append(tokens, listedToken{Symbol: sym, Address: sym + "mint", Decimals: 6})
		bases = append(bases, sym)
	}

	got := joinCommon(tokens, pairsFor(bases...))
	if len(got) != maxCommonTokens {
		t.Fatalf("expected cap at %d, got %d", maxCommonTokens, len(got))
	}
	// List order preserved: the cap keeps the earliest listings
	if got[0].Symbol != "TOK0" || got[len(got)-1].Symbol != fmt.Sprintf("TOK%d", maxCommonTokens-1) {
		t.Errorf("cap must keep aggregator list order, got first=%s last=%s",
			got[0].Symbol, got[len(got)-1].Symbol)
	}
}

func TestJoinCommon_NoOverlap(t *testing.T) {
	tokens := []listedToken{{Symbol: "BONK", Address: "b", Decimals: 5}}
	if got := joinCommon(tokens, pairsFor("BTC", "ETH")); len(got) != 0 {
		t.Fatalf("expected empty join, got %+v", got)
	}
}
