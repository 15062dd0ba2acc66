package binance

import (
	"time"

	"xprobe/internal/application/port"
	"xprobe/internal/infrastructure/pricefeed"
)

const TransportName = "binance"

// init() automatically registers the Binance ticker stream transport
func init() {
	pricefeed.Register(TransportName, func(wsURL string, pingInterval, pongTimeout time.Duration) port.StreamDialer {
		return NewTickerStreamDialer(wsURL, pingInterval, pongTimeout)
	})
}
