package binance

import (
	"encoding/json"
	"testing"

	"marketpulse/internal/model"
)

func rawRow(t *testing.T, src string) []json.RawMessage {
	t.Helper()
	var row []json.RawMessage
	if err := json.Unmarshal([]byte(src), &row); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	return row
}

func TestParseKlineRow(t *testing.T) {
	row := rawRow(t, `[1700000000000,"43250.10","43300.00","43200.50","43280.75","120.5",1700003599999,"0","0","0","0","0"]`)

	candle, err := parseKlineRow("BTCUSDT", row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.Candle{
		Symbol:    "BTCUSDT",
		Timestamp: 1700000000000,
		Open:      43250.10,
		High:      43300.00,
		Low:       43200.50,
		Close:     43280.75,
		Volume:    120.5,
	}
	if candle != want {
		t.Errorf("got %+v, want %+v", candle, want)
	}
}

func TestParseKlineRow_Malformed(t *testing.T) {
	cases := []struct {
		name string
		row  string
	}{
		{"too few fields", `[1700000000000,"100","101"]`},
		{"non-numeric price", `[1700000000000,"abc","101","99","100","5",0]`},
		{"numeric open time as string", `["1700000000000","100","101","99","100","5",0]`},
		{"unquoted price", `[1700000000000,100,101,99,100,5,0]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseKlineRow("BTCUSDT", rawRow(t, tc.row))
			if !model.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseStreamKline(t *testing.T) {
	raw := `{"e":"kline","k":{"t":1700000000000,"s":"ETHUSDT","o":"2250.5","h":"2260.0","l":"2245.1","c":"2255.3","v":"310.2","x":true}}`
	var ev klineEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatal(err)
	}

	candle, err := parseStreamKline(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candle.Symbol != "ETHUSDT" || candle.Timestamp != 1700000000000 {
		t.Errorf("identity fields: got %+v", candle)
	}
	if candle.Close != 2255.3 || candle.Volume != 310.2 {
		t.Errorf("values: got close=%v volume=%v", candle.Close, candle.Volume)
	}
}

func TestParseStreamKline_BadPrice(t *testing.T) {
	var ev klineEvent
	ev.Kline.Symbol = "ETHUSDT"
	ev.Kline.Open, ev.Kline.High, ev.Kline.Low, ev.Kline.Close, ev.Kline.Volume =
		"2250.5", "2260.0", "2245.1", "not-a-number", "310.2"

	if _, err := parseStreamKline(ev); !model.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStreamURL_MultiplexesSymbols(t *testing.T) {
	s, err := NewStream(StreamConfig{
		URL:     "wss://stream.binance.com:9443/ws",
		Symbols: []string{"BTCUSDT", "ETHUSDT"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "wss://stream.binance.com:9443/ws/btcusdt@kline_1m/ethusdt@kline_1m"
	if got := s.streamURL(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
