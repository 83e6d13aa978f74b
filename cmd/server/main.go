package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"marketpulse/config"
	"marketpulse/internal/binance"
	"marketpulse/internal/gateway"
	"marketpulse/internal/history"
	"marketpulse/internal/logger"
	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/internal/pipeline"
	"marketpulse/internal/retry"
	redisstore "marketpulse/internal/store/redis"
	"marketpulse/internal/window"
)

func main() {
	cfg := config.Load()
	lg := logger.Init("marketpulse-server", slog.LevelInfo)
	lg.Info("starting", "pairs", cfg.TradingPairs, "interval", cfg.DefaultInterval)

	symbols := cfg.ParsePairs()
	if len(symbols) == 0 {
		log.Fatal("[server] no trading pairs configured")
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus(true, cfg.RedisAddr != "")
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Venue client + shared components ----
	client := binance.NewClient(cfg.BinanceAPIURL)
	policy := retry.NewPolicy(cfg.RetryAttempts, cfg.RetryDelay)
	policy.OnRetry = func(attempt int, err error) {
		prom.RetryAttemptsTotal.Inc()
	}

	windows := window.NewManager(cfg.MaxWindowSize)
	hub := gateway.NewHub()
	hub.OnDrop = func() {
		prom.BroadcastDropsTotal.Inc()
	}

	// ---- Optional Redis publisher ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		var err error
		publisher, err = redisstore.New(redisstore.PublisherConfig{Addr: cfg.RedisAddr})
		if err != nil {
			lg.Warn("redis init failed, continuing without publisher", "error", err)
		} else {
			health.StartLivenessChecker(ctx, publisher.Client(), 10*time.Second)
			defer publisher.Close()
		}
	}

	// ---- Seed windows from historical data ----
	fetcher := history.NewFetcher(client, policy, lg, cfg.HistoricalLimit)
	fetcher.OnPage = func(candles int) {
		prom.FetchPagesTotal.Inc()
		prom.FetchCandlesTotal.Add(float64(candles))
	}

	for _, symbol := range symbols {
		start := time.Now()
		series, err := fetcher.FetchComplete(ctx, symbol, cfg.DefaultInterval, 0, 0)
		if err != nil {
			log.Fatalf("[server] historical seed for %s failed: %v", symbol, err)
		}
		prom.FetchDuration.Observe(time.Since(start).Seconds())

		windows.Seed(symbol, series)
		prom.WindowSize.WithLabelValues(symbol).Set(float64(len(series)))

		hub.Broadcast(series, gateway.TypeHistorical, symbol)
		if tr, ok := windows.TimeRange(symbol); ok {
			hub.Broadcast(tr, gateway.TypeTimeRange, symbol)
		}
		lg.Info("window seeded", logger.Symbol(symbol), "candles", len(series))
	}

	// ---- Live pipeline: stream → processor → fanout ----
	candleCh := make(chan model.Candle, 5000)
	processedCh := make(chan model.ProcessedCandle, 5000)

	fanout := pipeline.NewFanOut(5000)
	fanout.OnDrop = func(subscriberIdx int) {
		prom.FanoutDropsTotal.WithLabelValues(strconv.Itoa(subscriberIdx)).Inc()
	}

	windowCh := fanout.Subscribe()
	broadcastCh := fanout.Subscribe()
	var redisCh <-chan model.ProcessedCandle
	if publisher != nil {
		redisCh = fanout.Subscribe()
	}
	go fanout.Run(ctx, processedCh)

	processor := pipeline.NewProcessor(windows)
	go processor.Run(ctx, candleCh, processedCh)

	go func() {
		for pc := range windowCh {
			prom.StreamCandlesTotal.Inc()
			windows.Append(pc.Symbol, pc)
			prom.WindowSize.WithLabelValues(pc.Symbol).Set(float64(windows.Len(pc.Symbol)))
			health.SetLastCandleTime(time.UnixMilli(pc.Timestamp))
		}
	}()
	go func() {
		for pc := range broadcastCh {
			hub.Broadcast(&pc, gateway.TypeMarketData, pc.Symbol)
		}
	}()
	if publisher != nil {
		go publisher.Run(ctx, redisCh)
	}

	// ---- Channel saturation reporting ----
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for i, s := range fanout.ChannelStats() {
					if s.Cap > 0 {
						pct := float64(s.Len) / float64(s.Cap) * 100
						prom.ChannelSaturationPct.WithLabelValues("fanout_" + strconv.Itoa(i)).Set(pct)
					}
				}
				prom.ClientsConnected.Set(float64(hub.ClientCount()))
			}
		}
	}()

	// ---- Kline stream ----
	stream, err := binance.NewStream(binance.StreamConfig{
		URL:     cfg.BinanceWSURL,
		Symbols: symbols,
	}, lg)
	if err != nil {
		log.Fatalf("[server] stream init failed: %v", err)
	}
	stream.OnReconnect = func() {
		prom.StreamReconnects.Inc()
		health.SetStreamConnected(false)
	}
	health.SetStreamConnected(true)

	go func() {
		if err := stream.Start(ctx, candleCh); err != nil {
			lg.Error("stream terminated", "error", err)
			health.SetStreamConnected(false)
		}
	}()

	// ---- WebSocket endpoint ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		lg.Info("ws server listening", "addr", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[server] http server error: %v", err)
		}
	}()

	// ---- Wait for shutdown ----
	<-sigCh
	lg.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)

	lg.Info("shutdown complete")
}
