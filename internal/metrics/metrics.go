// Package metrics exposes Prometheus instrumentation and the health
// endpoint for the market data pipeline.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Ingest
	StreamCandlesTotal prometheus.Counter
	StreamReconnects   prometheus.Counter

	// Historical fetch
	FetchPagesTotal    prometheus.Counter
	FetchCandlesTotal  prometheus.Counter
	FetchDuration      prometheus.Histogram
	RetryAttemptsTotal prometheus.Counter

	// Fan-out / broadcast backpressure
	FanoutDropsTotal     *prometheus.CounterVec // labels: subscriber
	BroadcastDropsTotal  prometheus.Counter
	ChannelSaturationPct *prometheus.GaugeVec // labels: channel_name

	// Gateway
	ClientsConnected prometheus.Gauge

	// Windows
	WindowSize *prometheus.GaugeVec // labels: symbol

	// Arbitrage
	ScanDuration       prometheus.Histogram
	TokensScannedTotal *prometheus.CounterVec // labels: outcome=ok|error
	OpportunitiesFound prometheus.Counter

	// Venue circuit breaker
	BreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	BreakerTrips prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		StreamCandlesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_stream_candles_total",
			Help: "Total candles received from the live kline stream",
		}),
		StreamReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_stream_reconnects_total",
			Help: "Total kline stream reconnection attempts",
		}),

		FetchPagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_fetch_pages_total",
			Help: "Total kline pages fetched during historical backfills",
		}),
		FetchCandlesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_fetch_candles_total",
			Help: "Total candles merged from historical backfills",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_fetch_duration_seconds",
			Help:    "Wall time per complete historical fetch",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RetryAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_retry_attempts_total",
			Help: "Total re-attempts issued by retry policies",
		}),

		FanoutDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_fanout_drops_total",
			Help: "Candles dropped by the fan-out bus per subscriber",
		}, []string{"subscriber"}),
		BroadcastDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_broadcast_drops_total",
			Help: "Messages dropped on full client send buffers",
		}),
		ChannelSaturationPct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketpulse_channel_saturation_pct",
			Help: "Channel fill percentage (len/cap * 100)",
		}, []string{"channel_name"}),

		ClientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_ws_clients_connected",
			Help: "Currently connected WebSocket clients",
		}),

		WindowSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketpulse_window_size",
			Help: "Current sliding window length per symbol",
		}, []string{"symbol"}),

		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_arbitrage_scan_duration_seconds",
			Help:    "Wall time per full arbitrage scan batch",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		TokensScannedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_arbitrage_tokens_scanned_total",
			Help: "Tokens analyzed per scan outcome",
		}, []string{"outcome"}),
		OpportunitiesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_arbitrage_opportunities_total",
			Help: "Opportunities at or above the profit threshold",
		}),

		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_venue_circuit_breaker_state",
			Help: "Venue circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_venue_circuit_breaker_trips_total",
			Help: "Times the venue circuit breaker tripped open",
		}),
	}

	prometheus.MustRegister(
		m.StreamCandlesTotal,
		m.StreamReconnects,
		m.FetchPagesTotal,
		m.FetchCandlesTotal,
		m.FetchDuration,
		m.RetryAttemptsTotal,
		m.FanoutDropsTotal,
		m.BroadcastDropsTotal,
		m.ChannelSaturationPct,
		m.ClientsConnected,
		m.WindowSize,
		m.ScanDuration,
		m.TokensScannedTotal,
		m.OpportunitiesFound,
		m.BreakerState,
		m.BreakerTrips,
	)

	return m
}

// HealthStatus represents the pipeline health.
type HealthStatus struct {
	mu sync.RWMutex

	StreamConnected bool      `json:"stream_connected"`
	LastCandleTime  time.Time `json:"last_candle_time"`
	RedisConnected  bool      `json:"redis_connected"`

	RedisLatencyMs float64   `json:"redis_latency_ms"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`

	streamEnabled bool
	redisEnabled  bool
}

// NewHealthStatus returns a default health status. The enabled flags
// mark which dependencies this process actually carries (the one-shot
// scanner has no kline stream, the publisher is optional); a disabled
// dependency never degrades health.
func NewHealthStatus(streamEnabled, redisEnabled bool) *HealthStatus {
	return &HealthStatus{
		StartedAt:     time.Now(),
		streamEnabled: streamEnabled,
		redisEnabled:  redisEnabled,
	}
}

func (h *HealthStatus) SetStreamConnected(v bool) {
	h.mu.Lock()
	h.StreamConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCandleTime(t time.Time) {
	h.mu.Lock()
	h.LastCandleTime = t
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if rdb != nil {
					probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
					h.CheckRedis(probeCtx, rdb)
					cancel()
				}
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if (h.streamEnabled && !h.StreamConnected) || (h.redisEnabled && !h.RedisConnected) {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	candleAge := ""
	if !h.LastCandleTime.IsZero() {
		candleAge = time.Since(h.LastCandleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		StreamEnabled   bool    `json:"stream_enabled"`
		StreamConnected bool    `json:"stream_connected"`
		LastCandleTime  string  `json:"last_candle_time"`
		CandleAge       string  `json:"candle_age"`
		RedisEnabled    bool    `json:"redis_enabled"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		StreamEnabled:   h.streamEnabled,
		StreamConnected: h.StreamConnected,
		LastCandleTime:  h.LastCandleTime.Format(time.RFC3339),
		CandleAge:       candleAge,
		RedisEnabled:    h.redisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
