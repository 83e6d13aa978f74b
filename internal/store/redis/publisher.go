// Package redis publishes processed candles over Redis pub/sub for
// out-of-process consumers (dashboards, recorders). The channel is an
// ephemeral transport: nothing here is a durable store beyond a
// short-lived "latest" key.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"marketpulse/internal/model"
)

const defaultLatestTTL = 30 * time.Minute

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher fans processed candles out to Redis pub/sub and keeps a
// per-symbol latest-value key.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// Run reads processed candles from candleCh and publishes them.
// Blocks until ctx is cancelled or candleCh is closed.
func (p *Publisher) Run(ctx context.Context, candleCh <-chan model.ProcessedCandle) {
	for {
		select {
		case <-ctx.Done():
			return
		case pc, ok := <-candleCh:
			if !ok {
				return
			}
			p.publish(ctx, pc)
		}
	}
}

// publish pipelines SET latest + PUBLISH into one roundtrip.
func (p *Publisher) publish(ctx context.Context, pc model.ProcessedCandle) {
	jsonData := string(pc.JSON())
	latestKey := "candle:latest:" + pc.Symbol
	pubsubCh := "pub:candle:" + pc.Symbol

	pipe := p.client.Pipeline()
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)
	pipe.Publish(ctx, pubsubCh, jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] publish error for %s@%d: %v", pc.Symbol, pc.Timestamp, err)
	}
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
