package pipeline

import (
	"context"
	"testing"
	"time"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
	"marketpulse/internal/window"
)

const minuteMs = int64(60_000)

func risingCandles(symbol string, base int64, n int) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = model.Candle{
			Symbol:    symbol,
			Timestamp: base + int64(i)*minuteMs,
			Open:      price, High: price + 1, Low: price - 1, Close: price, Volume: 10,
		}
	}
	return candles
}

func TestProcess_MatchesWholeSeriesAnnotation(t *testing.T) {
	base := int64(1_700_000_000_000)
	series := risingCandles("BTCUSDT", base, 60)

	windows := window.NewManager(100)
	windows.Seed("BTCUSDT", indicator.Annotate(series[:59]))

	p := NewProcessor(windows)
	got := p.Process(series[59])

	want := indicator.Annotate(series)[59]
	if got.Indicators != want.Indicators {
		t.Errorf("live annotation diverges from whole-series annotation:\ngot  %+v\nwant %+v",
			got.Indicators, want.Indicators)
	}
	if got.Candle != series[59] {
		t.Errorf("candle fields altered: %+v", got.Candle)
	}
}

func TestProcess_EmptyWindowStillAnnotates(t *testing.T) {
	windows := window.NewManager(100)
	p := NewProcessor(windows)

	c := model.Candle{Symbol: "NEW", Timestamp: 1, Open: 5, High: 5, Low: 5, Close: 5, Volume: 1}
	got := p.Process(c)

	// A lone candle carries neutral defaults, never NaN
	if got.Indicators.RSI != 50 {
		t.Errorf("expected neutral RSI for a lone candle, got %v", got.Indicators.RSI)
	}
	if got.Indicators.Bollinger.Middle != 5 {
		t.Errorf("expected bands collapsed to price, got %+v", got.Indicators.Bollinger)
	}
}

func TestRun_ForwardsAnnotatedCandles(t *testing.T) {
	base := int64(1_700_000_000_000)
	windows := window.NewManager(100)
	p := NewProcessor(windows)

	in := make(chan model.Candle, 4)
	out := make(chan model.ProcessedCandle, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx, in, out)

	for _, c := range risingCandles("ETHUSDT", base, 3) {
		in <- c
	}

	for i := 0; i < 3; i++ {
		select {
		case pc := <-out:
			if pc.Symbol != "ETHUSDT" {
				t.Errorf("candle %d: symbol %q", i, pc.Symbol)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for candle %d", i)
		}
	}
}
