package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Binance
	BinanceAPIURL   string
	BinanceWSURL    string
	DefaultInterval string
	TradingPairs    string // comma-separated, e.g. "BTCUSDT,ETHUSDT"
	HistoricalLimit int    // per-page candle cap

	// Solana venues
	JupiterQuoteURL string
	JupiterTokenURL string
	RaydiumAPIURL   string
	USDCMint        string

	// Fees / arbitrage
	BinanceFeeRate     float64
	JupiterFeeRate     float64
	SlippageRate       float64
	MinProfitThreshold float64 // percent

	// Retry
	RetryAttempts int
	RetryDelay    time.Duration

	// Server
	ListenAddr  string
	MetricsAddr string
	RedisAddr   string // empty disables the Redis publisher

	// Windows
	MaxWindowSize int
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		BinanceAPIURL:   getEnv("BINANCE_API_URL", "https://api.binance.com/api/v3"),
		BinanceWSURL:    getEnv("BINANCE_WS_URL", "wss://stream.binance.com:9443/ws"),
		DefaultInterval: getEnv("DEFAULT_INTERVAL", "1h"),
		TradingPairs:    getEnv("TRADING_PAIRS", "BTCUSDT,ETHUSDT,BNBUSDT"),
		HistoricalLimit: getEnvInt("HISTORICAL_LIMIT", 1000),

		JupiterQuoteURL: getEnv("JUPITER_QUOTE_URL", "https://quote-api.jup.ag/v6/quote"),
		JupiterTokenURL: getEnv("JUPITER_TOKEN_URL", "https://token.jup.ag/all"),
		RaydiumAPIURL:   getEnv("RAYDIUM_API_URL", "https://api-v3.raydium.io"),
		USDCMint:        getEnv("USDC_MINT", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),

		BinanceFeeRate:     getEnvFloat("BINANCE_FEE_RATE", 0.001),
		JupiterFeeRate:     getEnvFloat("JUPITER_FEE_RATE", 0.0035),
		SlippageRate:       getEnvFloat("SLIPPAGE_RATE", 0.005),
		MinProfitThreshold: getEnvFloat("MIN_PROFIT_THRESHOLD", 0.5),

		RetryAttempts: getEnvInt("API_RETRY_ATTEMPTS", 3),
		RetryDelay:    getEnvDuration("API_RETRY_DELAY", time.Second),

		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		MaxWindowSize: getEnvInt("MAX_WINDOW_SIZE", 10000),
	}
}

// ParsePairs splits TradingPairs into a clean symbol slice.
func (c *Config) ParsePairs() []string {
	parts := strings.Split(c.TradingPairs, ",")
	pairs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid duration for %s: %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
