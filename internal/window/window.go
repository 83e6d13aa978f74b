// Package window maintains per-symbol bounded rolling buffers of
// processed candles. Each symbol's window is mutated only by the
// ingestion path (single logical writer per symbol); reads return
// copies so callers never observe concurrent mutation.
package window

import (
	"log"
	"sync"

	"marketpulse/internal/model"
)

// TimeRange is the span covered by a symbol's window.
type TimeRange struct {
	Start int64 `json:"start"` // first candle timestamp (ms)
	End   int64 `json:"end"`   // last candle timestamp (ms)
}

// Manager owns all symbol windows. Windows never exceed maxSize
// entries; the oldest entries are evicted first (FIFO trim).
type Manager struct {
	mu      sync.RWMutex
	windows map[string][]model.ProcessedCandle
	maxSize int
}

// NewManager creates a window manager. maxSize < 1 falls back to 10000.
func NewManager(maxSize int) *Manager {
	if maxSize < 1 {
		maxSize = 10000
	}
	return &Manager{
		windows: make(map[string][]model.ProcessedCandle, 16),
		maxSize: maxSize,
	}
}

// Seed replaces the symbol's window outright with the given candles,
// trimmed to the most recent maxSize entries.
func (m *Manager) Seed(symbol string, candles []model.ProcessedCandle) {
	if len(candles) > m.maxSize {
		candles = candles[len(candles)-m.maxSize:]
	}
	cp := make([]model.ProcessedCandle, len(candles))
	copy(cp, candles)

	m.mu.Lock()
	m.windows[symbol] = cp
	m.mu.Unlock()
}

// Append adds one processed candle to the symbol's window, evicting
// from the oldest end when capacity is exceeded. Appends are
// unconditional; a non-monotonic timestamp is flagged but still stored
// so the live feed is never silently gapped.
func (m *Manager) Append(symbol string, candle model.ProcessedCandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windows[symbol]
	if n := len(w); n > 0 && candle.Timestamp <= w[n-1].Timestamp {
		log.Printf("[window] %s: non-monotonic timestamp %d (last %d)",
			symbol, candle.Timestamp, w[n-1].Timestamp)
	}

	w = append(w, candle)
	if len(w) > m.maxSize {
		// Shift instead of re-slicing so the backing array doesn't
		// grow without bound under a long-lived append stream.
		copy(w, w[len(w)-m.maxSize:])
		w = w[:m.maxSize]
	}
	m.windows[symbol] = w
}

// Snapshot returns a copy of the symbol's current ordered sequence.
// Returns nil for an unknown symbol.
func (m *Manager) Snapshot(symbol string) []model.ProcessedCandle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w := m.windows[symbol]
	if w == nil {
		return nil
	}
	cp := make([]model.ProcessedCandle, len(w))
	copy(cp, w)
	return cp
}

// TimeRange returns the first/last timestamps of the symbol's window.
// ok is false when the window is empty or unknown.
func (m *Manager) TimeRange(symbol string) (tr TimeRange, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w := m.windows[symbol]
	if len(w) == 0 {
		return TimeRange{}, false
	}
	return TimeRange{Start: w[0].Timestamp, End: w[len(w)-1].Timestamp}, true
}

// Symbols returns the symbols currently holding a window.
func (m *Manager) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.windows))
	for s := range m.windows {
		out = append(out, s)
	}
	return out
}

// Len returns the current window length for a symbol.
func (m *Manager) Len(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.windows[symbol])
}
