package gateway

import (
	"strconv"
	"time"
)

// Message types carried in the broadcast envelope. The wire protocol
// also carries a "prediction" type, emitted by whatever process hosts
// the prediction model; this server only produces the types below.
const (
	TypeHistorical = "historical"
	TypeMarketData = "marketData"
	TypeTimeRange  = "timeRange"
	TypeArbitrage  = "arbitrage"
)

// buildEnvelope hand-crafts the envelope JSON around a pre-marshaled
// payload: {"type":"...","symbol":"...","data":...,"timestamp":N}.
// Avoids a second json.Marshal of the payload on the fan-out hot path.
// symbol is omitted when empty (market-wide messages).
func buildEnvelope(msgType, symbol string, data []byte, now time.Time) []byte {
	buf := make([]byte, 0, len(msgType)+len(symbol)+len(data)+64)
	buf = append(buf, `{"type":"`...)
	buf = append(buf, msgType...)
	if symbol != "" {
		buf = append(buf, `","symbol":"`...)
		buf = append(buf, symbol...)
	}
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"timestamp":`...)
	buf = strconv.AppendInt(buf, now.UnixMilli(), 10)
	buf = append(buf, '}')
	return buf
}
