// Command arbscan runs a one-shot cross-market arbitrage scan and
// prints the opportunities as JSON.
//
// Two modes:
//
//	-mode=quotes (default): live swap quotes vs exchange spot prices
//	  for every token listed on both venues.
//	-mode=pairs: compare the exchange's USDC price map against the
//	  AMM's price map with fee and slippage modeling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketpulse/config"
	"marketpulse/internal/arbitrage"
	"marketpulse/internal/binance"
	"marketpulse/internal/jupiter"
	"marketpulse/internal/logger"
	"marketpulse/internal/metrics"
	"marketpulse/internal/raydium"
	"marketpulse/internal/retry"
	"marketpulse/internal/tokens"
)

func main() {
	mode := flag.String("mode", "quotes", "scan mode: quotes or pairs")
	amount := flag.Float64("amount", 100, "notional trade size in USDC (quotes mode)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall scan deadline")
	flag.Parse()

	cfg := config.Load()
	lg := logger.Init("marketpulse-arbscan", slog.LevelInfo)

	// Scrapeable while a long scan is in flight; no stream or redis here
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus(false, false)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		lg.Info("interrupted, cancelling scan")
		cancel()
	}()

	switch *mode {
	case "quotes":
		runQuoteScan(ctx, cfg, lg, prom, *amount)
	case "pairs":
		runPairScan(ctx, cfg, lg, prom)
	default:
		log.Fatalf("[arbscan] unknown mode %q (want quotes or pairs)", *mode)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	metricsSrv.Stop(stopCtx)
}

// runQuoteScan prices each cross-venue token via live swap quotes and
// exchange spot, reporting spreads above the profit threshold.
func runQuoteScan(ctx context.Context, cfg *config.Config, lg *slog.Logger, prom *metrics.Metrics, amount float64) {
	spot := binance.NewClient(cfg.BinanceAPIURL)
	quotes := jupiter.NewClient(cfg.JupiterQuoteURL)
	pricer := jupiter.NewPricer(quotes, cfg.USDCMint)
	registry := tokens.NewRegistry(cfg.JupiterTokenURL, spot, lg)

	policy := retry.NewPolicy(cfg.RetryAttempts, cfg.RetryDelay)
	policy.OnRetry = func(attempt int, err error) {
		prom.RetryAttemptsTotal.Inc()
	}

	breaker := retry.NewCircuitBreaker(5, 10*time.Second)
	breaker.OnStateChange = func(from, to retry.State) {
		prom.BreakerState.Set(float64(to))
		if to == retry.StateOpen {
			prom.BreakerTrips.Inc()
		}
		lg.Info("venue breaker state change", "from", from.String(), "to", to.String())
	}

	scanner := arbitrage.NewScanner(arbitrage.ScanConfig{
		AmountUSDC:   amount,
		QuoteFeeRate: cfg.JupiterFeeRate,
		SpotFeeRate:  cfg.BinanceFeeRate,
		MinProfitPct: cfg.MinProfitThreshold,
	},
		registry, pricer, spot, policy, breaker, lg)
	scanner.OnTokenScanned = func(ok bool) {
		outcome := "ok"
		if !ok {
			outcome = "error"
		}
		prom.TokensScannedTotal.WithLabelValues(outcome).Inc()
	}

	start := time.Now()
	opps, err := scanner.ScanAll(ctx)
	if err != nil {
		log.Fatalf("[arbscan] scan failed: %v", err)
	}
	prom.ScanDuration.Observe(time.Since(start).Seconds())
	prom.OpportunitiesFound.Add(float64(len(opps)))
	lg.Info("scan complete", "opportunities", len(opps), "elapsed", time.Since(start))

	emit(opps)
}

// runPairScan compares the two venues' USDC price maps.
func runPairScan(ctx context.Context, cfg *config.Config, lg *slog.Logger, prom *metrics.Metrics) {
	start := time.Now()
	spot := binance.NewClient(cfg.BinanceAPIURL)
	amm := raydium.NewClient(cfg.RaydiumAPIURL)

	type priceResult struct {
		prices map[string]float64
		err    error
	}
	spotCh := make(chan priceResult, 1)
	ammCh := make(chan priceResult, 1)
	go func() {
		p, err := spot.QuotePrices(ctx, "USDC")
		spotCh <- priceResult{p, err}
	}()
	go func() {
		p, err := amm.GetPrices(ctx)
		ammCh <- priceResult{p, err}
	}()

	spotRes := <-spotCh
	if spotRes.err != nil {
		log.Fatalf("[arbscan] exchange prices: %v", spotRes.err)
	}
	ammRes := <-ammCh
	if ammRes.err != nil {
		log.Fatalf("[arbscan] AMM prices: %v", ammRes.err)
	}
	lg.Info("price maps fetched",
		"exchange", len(spotRes.prices), "amm", len(ammRes.prices))

	analyzer := arbitrage.NewAnalyzer(cfg.BinanceFeeRate, cfg.JupiterFeeRate, cfg.SlippageRate)
	opps := analyzer.FindOpportunities("Binance", "Raydium", spotRes.prices, ammRes.prices)
	prom.ScanDuration.Observe(time.Since(start).Seconds())
	prom.OpportunitiesFound.Add(float64(len(opps)))
	lg.Info("analysis complete", "opportunities", len(opps))

	emit(opps)
}

func emit(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("[arbscan] encode results: %v", err)
	}
}
