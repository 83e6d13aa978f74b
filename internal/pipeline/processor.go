package pipeline

import (
	"context"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
	"marketpulse/internal/window"
)

// Processor annotates live candles with indicators computed over the
// symbol's current window plus the incoming candle, so streamed values
// line up with the historical series already held by clients.
type Processor struct {
	windows *window.Manager
}

// NewProcessor creates a processor over the shared window manager.
func NewProcessor(windows *window.Manager) *Processor {
	return &Processor{windows: windows}
}

// Process computes the indicator set for one live candle.
func (p *Processor) Process(c model.Candle) model.ProcessedCandle {
	snapshot := p.windows.Snapshot(c.Symbol)

	series := make([]model.Candle, 0, len(snapshot)+1)
	for i := range snapshot {
		series = append(series, snapshot[i].Candle)
	}
	series = append(series, c)

	annotated := indicator.Annotate(series)
	return annotated[len(annotated)-1]
}

// Run reads raw candles from in, annotates each, and forwards to out.
// Blocks until ctx is cancelled or in is closed.
func (p *Processor) Run(ctx context.Context, in <-chan model.Candle, out chan<- model.ProcessedCandle) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- p.Process(c):
			case <-ctx.Done():
				return
			}
		}
	}
}
