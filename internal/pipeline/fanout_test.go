package pipeline

import (
	"context"
	"testing"
	"time"

	"marketpulse/internal/model"
)

func TestFanOut_BroadcastsToAll(t *testing.T) {
	fo := NewFanOut(10)
	out1 := fo.Subscribe()
	out2 := fo.Subscribe()

	input := make(chan model.ProcessedCandle, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fo.Run(ctx, input)

	pc := model.ProcessedCandle{
		Candle: model.Candle{
			Symbol:    "BTCUSDT",
			Timestamp: 1_700_000_000_000,
			Open:      100, High: 110, Low: 90, Close: 105, Volume: 12,
		},
	}
	input <- pc

	for name, out := range map[string]<-chan model.ProcessedCandle{"out1": out1, "out2": out2} {
		select {
		case got := <-out:
			if got.Symbol != "BTCUSDT" || got.Close != 105 {
				t.Errorf("%s: got %+v", name, got.Candle)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: timed out waiting for candle", name)
		}
	}
}

func TestFanOut_SlowSubscriberDropsNotBlocks(t *testing.T) {
	fo := NewFanOut(1)
	dropped := make(chan int, 10)
	fo.OnDrop = func(idx int) { dropped <- idx }

	slow := fo.Subscribe()
	fast := fo.Subscribe()

	input := make(chan model.ProcessedCandle)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fo.Run(ctx, input)

	// Two candles: the slow subscriber's 1-slot buffer overflows on the
	// second while the fast subscriber drains immediately.
	input <- model.ProcessedCandle{Candle: model.Candle{Symbol: "BTCUSDT", Timestamp: 1}}
	<-fast
	input <- model.ProcessedCandle{Candle: model.Candle{Symbol: "BTCUSDT", Timestamp: 2}}

	select {
	case got := <-fast:
		if got.Timestamp != 2 {
			t.Errorf("fast: expected timestamp 2, got %d", got.Timestamp)
		}
	case <-time.After(time.Second):
		t.Fatal("fast subscriber blocked by slow subscriber")
	}

	select {
	case idx := <-dropped:
		if idx != 0 {
			t.Errorf("expected drop for subscriber 0, got %d", idx)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a drop for the slow subscriber")
	}

	if got := <-slow; got.Timestamp != 1 {
		t.Errorf("slow: expected first candle retained, got timestamp %d", got.Timestamp)
	}
}

func TestFanOut_ClosesOutputsOnInputClose(t *testing.T) {
	fo := NewFanOut(4)
	out := fo.Subscribe()

	input := make(chan model.ProcessedCandle)
	go fo.Run(context.Background(), input)
	close(input)

	select {
	case _, ok := <-out:
		if ok {
			t.Fatal("expected closed channel, got a value")
		}
	case <-time.After(time.Second):
		t.Fatal("output channel never closed")
	}
}

func TestFanOut_ChannelStats(t *testing.T) {
	fo := NewFanOut(8)
	fo.Subscribe()
	fo.Subscribe()

	stats := fo.ChannelStats()
	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(stats))
	}
	for i, s := range stats {
		if s.Cap != 8 || s.Len != 0 {
			t.Errorf("stat %d: got len=%d cap=%d", i, s.Len, s.Cap)
		}
	}
}
