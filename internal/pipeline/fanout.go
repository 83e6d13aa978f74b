// Package pipeline connects the live ingest stream to its consumers:
// window append, WebSocket broadcast, and the optional Redis publisher.
package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"marketpulse/internal/model"
)

// FanOut broadcasts processed candles from a single input channel to N
// output channels. If an output channel is full, the candle is dropped
// for that consumer so a slow consumer cannot block the pipeline.
type FanOut struct {
	mu      sync.RWMutex
	outputs []chan model.ProcessedCandle
	bufSize int

	// OnDrop is called when a candle is dropped for a subscriber.
	// subscriberIdx is the 0-based index of the slow consumer.
	OnDrop func(subscriberIdx int)
}

// NewFanOut creates a FanOut with the given buffer size for output
// channels.
func NewFanOut(outputBufferSize int) *FanOut {
	return &FanOut{
		bufSize: outputBufferSize,
	}
}

// Subscribe creates and returns a new output channel. Subscribe before
// calling Run; channels added later miss earlier candles.
func (f *FanOut) Subscribe() <-chan model.ProcessedCandle {
	ch := make(chan model.ProcessedCandle, f.bufSize)
	f.mu.Lock()
	f.outputs = append(f.outputs, ch)
	f.mu.Unlock()
	return ch
}

// Run reads from the input channel and fans out to all subscribers.
// Blocks until ctx is cancelled or input is closed, then closes every
// output channel.
func (f *FanOut) Run(ctx context.Context, input <-chan model.ProcessedCandle) {
	defer func() {
		f.mu.RLock()
		for _, ch := range f.outputs {
			close(ch)
		}
		f.mu.RUnlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case pc, ok := <-input:
			if !ok {
				return
			}
			f.mu.RLock()
			for i, ch := range f.outputs {
				select {
				case ch <- pc:
				default:
					if f.OnDrop != nil {
						f.OnDrop(i)
					} else {
						slog.Warn("fanout output full, dropping candle",
							"subscriber", i, "symbol", pc.Symbol, "ts", pc.Timestamp)
					}
				}
			}
			f.mu.RUnlock()
		}
	}
}

// ChannelStat reports (length, capacity) for a subscriber channel.
// Used for channel saturation reporting.
type ChannelStat struct {
	Len int
	Cap int
}

func (f *FanOut) ChannelStats() []ChannelStat {
	f.mu.RLock()
	defer f.mu.RUnlock()
	stats := make([]ChannelStat, len(f.outputs))
	for i, ch := range f.outputs {
		stats[i] = ChannelStat{Len: len(ch), Cap: cap(ch)}
	}
	return stats
}
