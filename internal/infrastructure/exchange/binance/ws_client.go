package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"xprobe/internal/application/port"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const DefaultStreamURL = "wss://stream.binance.com:9443/ws/btcusdt@ticker"

// TickerStreamDialer 连接 Binance 单一 ticker 推送流（raw stream，非 combined）
type TickerStreamDialer struct {
	wsURL            string // e.g. wss://stream.binance.com:9443/ws/btcusdt@ticker
	handshakeTimeout time.Duration
	pingInterval     time.Duration
	pongTimeout      time.Duration
}

// NewTickerStreamDialer pingInterval/pongTimeout <= 0 时使用 30s/10s
func NewTickerStreamDialer(wsURL string, pingInterval, pongTimeout time.Duration) *TickerStreamDialer {
	wsURL = strings.TrimSpace(wsURL)
	if wsURL == "" {
		wsURL = DefaultStreamURL
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if pongTimeout <= 0 {
		pongTimeout = 10 * time.Second
	}
	return &TickerStreamDialer{
		wsURL:            wsURL,
		handshakeTimeout: 10 * time.Second,
		pingInterval:     pingInterval,
		pongTimeout:      pongTimeout,
	}
}

func (d *TickerStreamDialer) URL() string { return d.wsURL }

func (d *TickerStreamDialer) Dial(ctx context.Context) (port.StreamConn, error) {
	cctx, cancel := context.WithTimeout(ctx, d.handshakeTimeout)
	defer cancel()

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = d.handshakeTimeout

	conn, resp, err := dialer.DialContext(cctx, d.wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws dial %s: http %d: %w", d.wsURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ws dial %s: %w", d.wsURL, err)
	}
	return newTickerConn(conn, d.pingInterval, d.pongTimeout), nil
}

type tickerConn struct {
	conn         *websocket.Conn
	readWait     time.Duration
	pingInterval time.Duration
	pongTimeout  time.Duration

	stop      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newTickerConn(conn *websocket.Conn, pingInterval, pongTimeout time.Duration) *tickerConn {
	c := &tickerConn{
		conn:         conn,
		readWait:     pingInterval + pongTimeout,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
		stop:         make(chan struct{}),
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.readWait))
	})

	go c.keepalive()
	return c
}

func (c *tickerConn) keepalive() {
	pingTicker := time.NewTicker(c.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-pingTicker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(c.pongTimeout)); err != nil {
				log.Debug().Err(err).Msg("ws ping failed")
				return
			}
		}
	}
}

func (c *tickerConn) ReadMessage() ([]byte, error) {
	_, b, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.readWait))
	return b, nil
}

// Close 发送 close 帧后关闭底层连接，可重复调用
func (c *tickerConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

var _ port.StreamDialer = (*TickerStreamDialer)(nil)
