package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"marketpulse/internal/model"
)

// StreamConfig holds configuration for the live kline stream.
type StreamConfig struct {
	// URL of the combined stream endpoint, e.g.
	// "wss://stream.binance.com:9443/ws"
	URL string

	// Symbols to subscribe, e.g. ["BTCUSDT", "ETHUSDT"].
	Symbols []string

	// Interval for the kline stream. Defaults to "1m".
	Interval string

	// ReconnectDelay between reconnection attempts. Defaults to 5s.
	ReconnectDelay time.Duration
}

func (c *StreamConfig) defaults() {
	if c.Interval == "" {
		c.Interval = "1m"
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 5 * time.Second
	}
}

// Stream connects to the Binance kline WebSocket and pushes closed and
// in-progress candles into a channel. Reconnects automatically with a
// fixed delay on disconnect.
type Stream struct {
	cfg StreamConfig
	log *slog.Logger

	// OnReconnect is called each time a reconnection happens (optional,
	// for metrics).
	OnReconnect func()
}

// NewStream creates a kline stream client.
func NewStream(cfg StreamConfig, log *slog.Logger) (*Stream, error) {
	cfg.defaults()
	if cfg.URL == "" {
		return nil, fmt.Errorf("binance: stream URL required")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("binance: at least one symbol required")
	}
	return &Stream{cfg: cfg, log: log}, nil
}

// streamURL builds the multiplexed endpoint:
// <base>/<sym1>@kline_1m/<sym2>@kline_1m/...
func (s *Stream) streamURL() string {
	streams := make([]string, len(s.cfg.Symbols))
	for i, sym := range s.cfg.Symbols {
		streams[i] = strings.ToLower(sym) + "@kline_" + s.cfg.Interval
	}
	return s.cfg.URL + "/" + strings.Join(streams, "/")
}

// Start connects and streams candles into candleCh. Blocks until ctx is
// cancelled. A full channel drops the candle rather than stalling the
// read loop.
func (s *Stream) Start(ctx context.Context, candleCh chan<- model.Candle) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := s.runOnce(ctx, candleCh)
		if err == nil {
			return nil
		}

		s.log.Warn("stream disconnected, reconnecting",
			"error", err, "delay", s.cfg.ReconnectDelay)
		if s.OnReconnect != nil {
			s.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// klineEvent is the wire format of a kline stream message.
type klineEvent struct {
	EventType string `json:"e"`
	Kline     struct {
		StartTime int64  `json:"t"`
		Symbol    string `json:"s"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		Closed    bool   `json:"x"`
	} `json:"k"`
}

func (s *Stream) runOnce(ctx context.Context, candleCh chan<- model.Candle) error {
	u := s.streamURL()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info("stream connected", "url", u, "symbols", len(s.cfg.Symbols))

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		var ev klineEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.log.Warn("stream parse error", "error", err)
			continue
		}
		if ev.EventType != "kline" {
			continue
		}

		candle, err := parseStreamKline(ev)
		if err != nil {
			s.log.Warn("stream kline rejected", "symbol", ev.Kline.Symbol, "error", err)
			continue
		}

		select {
		case candleCh <- candle:
		default:
			s.log.Warn("candle channel full, dropping", "symbol", candle.Symbol)
		}
	}
}

func parseStreamKline(ev klineEvent) (model.Candle, error) {
	k := ev.Kline
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	parsed := [5]float64{}
	for i, s := range fields {
		f, err := parseDecimalString(s)
		if err != nil {
			return model.Candle{}, err
		}
		parsed[i] = f
	}

	candle := model.Candle{
		Symbol:    k.Symbol,
		Timestamp: k.StartTime,
		Open:      parsed[0],
		High:      parsed[1],
		Low:       parsed[2],
		Close:     parsed[3],
		Volume:    parsed[4],
	}
	if err := candle.Validate(); err != nil {
		return model.Candle{}, err
	}
	return candle, nil
}

func parseDecimalString(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", model.ErrValidation, s)
	}
	return f, nil
}
