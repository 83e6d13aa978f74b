package indicator

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): multiplier = 2/(3+1) = 0.5
	// Prices: 100, 102, 104, 103, 105
	// Seed at index 2: (100+102+104)/3 = 102.0
	// Index 3: (103-102)*0.5 + 102 = 102.5
	// Index 4: (105-102.5)*0.5 + 102.5 = 103.75
	prices := []float64{100, 102, 104, 103, 105}
	ema := EMA(prices, 3)

	if len(ema) != len(prices) {
		t.Fatalf("expected len %d, got %d", len(prices), len(ema))
	}
	assertClose(t, "EMA seed", ema[2], 102.0, 0.0001)
	assertClose(t, "EMA[3]", ema[3], 102.5, 0.0001)
	assertClose(t, "EMA[4]", ema[4], 103.75, 0.0001)

	// Pre-seed indices carry the running mean
	assertClose(t, "EMA[0]", ema[0], 100.0, 0.0001)
	assertClose(t, "EMA[1]", ema[1], 101.0, 0.0001)
}

// ────────────────────────────────────────────────────────────
// RSI Correctness
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 101, 103, 104, 105
	// Changes: +2, -1, +2, +1, +1
	// Seed (first 3 changes): avgGain=4/3, avgLoss=1/3
	//   → RSI[3] = 100 - 100/(1+4) = 80
	// Index 4 (+1): avgGain=(4/3*2+1)/3=1.2222, avgLoss=(1/3*2)/3=0.2222
	//   → RS=5.5, RSI = 100 - 100/6.5 = 84.6154
	// Index 5 (+1): avgGain=1.1481, avgLoss=0.1481
	//   → RS=7.75, RSI = 100 - 100/8.75 = 88.5714
	prices := []float64{100, 102, 101, 103, 104, 105}
	rsi := RSI(prices, 3)

	for i := 0; i < 3; i++ {
		assertClose(t, "RSI warmup", rsi[i], 50.0, 0.0001)
	}
	assertClose(t, "RSI[3]", rsi[3], 80.0, 0.0001)
	assertClose(t, "RSI[4]", rsi[4], 84.6154, 0.001)
	assertClose(t, "RSI[5]", rsi[5], 88.5714, 0.001)
}

func TestRSI_AllGains_Is100(t *testing.T) {
	// Strictly rising prices → avgLoss = 0 → RSI = 100 by convention
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	rsi := RSI(prices, 14)
	assertClose(t, "RSI all gains", rsi[len(rsi)-1], 100.0, 0.0001)
}

func TestRSI_AlwaysInRange(t *testing.T) {
	prices := []float64{100, 95, 103, 99, 108, 92, 110, 97, 105, 101, 96, 112, 90, 107, 103, 98}
	for _, period := range []int{2, 3, 5, 14} {
		for i, v := range RSI(prices, period) {
			if v < 0 || v > 100 || math.IsNaN(v) {
				t.Errorf("period %d index %d: RSI %v out of [0,100]", period, i, v)
			}
		}
	}
}

func TestRSI_ShortInput_NeutralDefaults(t *testing.T) {
	rsi := RSI([]float64{100, 101, 102}, 14)
	if len(rsi) != 3 {
		t.Fatalf("expected len 3, got %d", len(rsi))
	}
	for i, v := range rsi {
		assertClose(t, "short RSI", v, 50.0, 0.0001)
		if math.IsNaN(v) {
			t.Errorf("index %d: NaN", i)
		}
	}
}

func TestRSILast_MatchesSeries(t *testing.T) {
	prices := []float64{100, 102, 101, 103, 104, 105}
	series := RSI(prices, 3)
	last := RSILast(prices, 3)
	assertClose(t, "RSILast", last, series[len(series)-1], 0.0001)
}

// ────────────────────────────────────────────────────────────
// Bollinger Correctness
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness_Period3(t *testing.T) {
	// Window 100, 102, 104: mean=102
	// Population variance = (4+0+4)/3 = 8/3, std = 1.632993
	// upper = 102 + 2*1.632993 = 105.265986
	// lower = 102 - 2*1.632993 = 98.734014
	prices := []float64{100, 102, 104}
	bands := Bollinger(prices, 3, 2)

	assertClose(t, "middle", bands[2].Middle, 102.0, 0.0001)
	assertClose(t, "upper", bands[2].Upper, 105.265986, 0.001)
	assertClose(t, "lower", bands[2].Lower, 98.734014, 0.001)
}

func TestBollinger_WarmupCollapsesToPrice(t *testing.T) {
	prices := []float64{100, 102}
	bands := Bollinger(prices, 20, 2)
	for i, b := range bands {
		if b.Upper != prices[i] || b.Middle != prices[i] || b.Lower != prices[i] {
			t.Errorf("index %d: expected collapsed bands at %.2f, got %+v", i, prices[i], b)
		}
	}
}

func TestBollinger_Ordering(t *testing.T) {
	prices := []float64{100, 95, 103, 99, 108, 92, 110, 97, 105, 101}
	for _, b := range Bollinger(prices, 5, 2) {
		if !(b.Upper >= b.Middle && b.Middle >= b.Lower) {
			t.Errorf("band ordering violated: %+v", b)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Volatility Correctness
// ────────────────────────────────────────────────────────────

func TestVolatility_ConstantPrices_Zero(t *testing.T) {
	prices := []float64{100, 100, 100, 100, 100}
	for i, v := range Volatility(prices, 3) {
		if v != 0 {
			t.Errorf("index %d: expected 0 volatility, got %v", i, v)
		}
	}
}

func TestVolatility_Correctness_Period3(t *testing.T) {
	// Prices: 100, 110, 121, 133.1 — each step is ×1.1
	// Window at index 3: [100, 110, 121], two log returns of ln(1.1)
	// vol = sqrt(2*ln(1.1)^2 / 3) = 0.077821
	prices := []float64{100, 110, 121, 133.1}
	vol := Volatility(prices, 3)

	assertClose(t, "vol warmup", vol[2], 0, 0.0001)
	assertClose(t, "vol[3]", vol[3], 0.077821, 0.0001)
}

// ────────────────────────────────────────────────────────────
// MACD
// ────────────────────────────────────────────────────────────

func TestMACD_ShortInput_AllZero(t *testing.T) {
	prices := make([]float64, 30) // < slow+signal = 35
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	for i, m := range MACDSeries(prices, 12, 26, 9) {
		if m.MACD != 0 || m.Signal != 0 || m.Histogram != 0 {
			t.Errorf("index %d: expected zero triple, got %+v", i, m)
		}
	}
}

func TestMACD_RisingSeries_PositiveHistogram(t *testing.T) {
	// Accelerating uptrend: fast EMA pulls away from slow EMA and the
	// histogram goes positive once the signal line is seeded.
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)*float64(i)*0.05
	}
	macd := MACDSeries(prices, 12, 26, 9)

	last := macd[len(macd)-1]
	if last.MACD <= 0 {
		t.Errorf("expected positive MACD line, got %v", last.MACD)
	}
	if last.Histogram <= 0 {
		t.Errorf("expected positive histogram, got %v", last.Histogram)
	}

	// Before slow+signal-2 the triple is neutral
	if macd[26+9-3].MACD != 0 || macd[10].MACD != 0 {
		t.Errorf("expected neutral MACD during warmup, got %+v", macd[10])
	}
}
