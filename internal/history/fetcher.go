// Package history retrieves complete historical candle ranges through
// paginated exchange requests and annotates the merged series with
// technical indicators.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
	"marketpulse/internal/retry"
)

const (
	// defaultLookback is applied when no start time is given.
	defaultLookback = 30 * 24 * time.Hour

	// defaultPageDelay is the courtesy wait between page fetches so a
	// long backfill doesn't trip exchange rate limits.
	defaultPageDelay = 500 * time.Millisecond
)

// Fetcher pulls a bounded time range of candles from a CandleSource,
// one page at a time, and runs the merged series through the indicator
// engine exactly once. Computing indicators per page would reset
// rolling state at every boundary, so annotation always happens after
// the loop.
type Fetcher struct {
	source    model.CandleSource
	retry     *retry.Policy
	log       *slog.Logger
	pageLimit int
	pageDelay time.Duration

	// OnPage is called after each fetched page (optional, for metrics).
	OnPage func(candles int)
}

// NewFetcher creates a historical fetcher. pageLimit caps the candles
// requested per page (exchange maximum is typically 1000).
func NewFetcher(source model.CandleSource, policy *retry.Policy, log *slog.Logger, pageLimit int) *Fetcher {
	if pageLimit <= 0 {
		pageLimit = 1000
	}
	return &Fetcher{
		source:    source,
		retry:     policy,
		log:       log,
		pageLimit: pageLimit,
		pageDelay: defaultPageDelay,
	}
}

// FetchComplete retrieves all candles for symbol in [startTime, endTime]
// (Unix ms) and returns the indicator-annotated series.
//
// A zero startTime defaults to endTime − 30 days; a zero endTime
// defaults to now. An empty page ends the loop normally (no more
// data). Any page error aborts the whole fetch — no partial result is
// returned. Context cancellation stops pagination between pages and
// returns the work completed so far without error.
func (f *Fetcher) FetchComplete(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]model.ProcessedCandle, error) {
	if endTime == 0 {
		endTime = time.Now().UnixMilli()
	}
	if startTime == 0 {
		startTime = endTime - defaultLookback.Milliseconds()
	}

	var all []model.Candle
	cur := startTime

	for {
		select {
		case <-ctx.Done():
			f.log.Info("historical fetch cancelled", "symbol", symbol, "candles", len(all))
			return indicator.Annotate(all), nil
		default:
		}

		page, err := retry.Value(ctx, f.retry, func() ([]model.Candle, error) {
			return f.source.GetKlines(ctx, symbol, interval, cur, endTime, f.pageLimit)
		})
		if err != nil {
			return nil, fmt.Errorf("historical fetch %s [%d,%d]: %w", symbol, cur, endTime, err)
		}

		if len(page) == 0 {
			break // end of data — normal termination
		}
		for i := range page {
			if err := page[i].Validate(); err != nil {
				return nil, fmt.Errorf("historical fetch %s: candle at ts %d: %w", symbol, page[i].Timestamp, err)
			}
		}

		all = append(all, page...)
		if f.OnPage != nil {
			f.OnPage(len(page))
		}

		last := page[len(page)-1].Timestamp
		if last >= endTime {
			break
		}
		cur = last + 1

		select {
		case <-ctx.Done():
			f.log.Info("historical fetch cancelled", "symbol", symbol, "candles", len(all))
			return indicator.Annotate(all), nil
		case <-time.After(f.pageDelay):
		}
	}

	f.log.Info("historical fetch complete", "symbol", symbol, "candles", len(all))
	return indicator.Annotate(all), nil
}

// SetPageDelay overrides the inter-page delay (tests use a short one).
func (f *Fetcher) SetPageDelay(d time.Duration) { f.pageDelay = d }
