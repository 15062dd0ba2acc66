package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"xprobe/internal/application/port"

	"github.com/shopspring/decimal"
)

type httpErr struct{ code int }

func (e *httpErr) Error() string   { return fmt.Sprintf("http %d", e.code) }
func (e *httpErr) HTTPStatus() int { return e.code }

// fakeMarket fails the call with index failAt (0-based) with err.
// block makes ServerTime wait for ctx cancellation, like a hung endpoint.
type fakeMarket struct {
	failAt int
	err    error
	block  bool

	instruments []port.Instrument
	book        *port.OrderBook

	calls []string
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		failAt:      -1,
		instruments: []port.Instrument{{Symbol: "BTCUSDT"}, {Symbol: "ETHUSDT"}},
	}
}

func (m *fakeMarket) hit(name string) error {
	m.calls = append(m.calls, name)
	if len(m.calls)-1 == m.failAt {
		return m.err
	}
	return nil
}

func (m *fakeMarket) ServerTime(ctx context.Context) (time.Time, error) {
	if m.block {
		m.calls = append(m.calls, "server_time")
		<-ctx.Done()
		return time.Time{}, fmt.Errorf("GET /api/v3/time: %w", ctx.Err())
	}
	if err := m.hit("server_time"); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(1700000000000).UTC(), nil
}

func (m *fakeMarket) ExchangeInfo(ctx context.Context) ([]port.Instrument, error) {
	if err := m.hit("exchange_info"); err != nil {
		return nil, err
	}
	return m.instruments, nil
}

func (m *fakeMarket) Ticker24h(ctx context.Context, symbol string) (port.Ticker24h, error) {
	if err := m.hit("ticker_24hr"); err != nil {
		return port.Ticker24h{}, err
	}
	return port.Ticker24h{Symbol: symbol, LastPrice: "43000.10", PriceChangePercent: "1.5"}, nil
}

func (m *fakeMarket) Depth(ctx context.Context, symbol string, limit int) (port.OrderBook, error) {
	if err := m.hit("order_book"); err != nil {
		return port.OrderBook{}, err
	}
	if m.book != nil {
		return *m.book, nil
	}
	return port.OrderBook{
		Symbol: symbol,
		Bids:   []port.BookLevel{{Price: decimal.RequireFromString("43000.00"), Qty: decimal.NewFromInt(1)}},
		Asks:   []port.BookLevel{{Price: decimal.RequireFromString("43000.50"), Qty: decimal.NewFromInt(1)}},
	}, nil
}

var errConnClosed = errors.New("use of closed connection")

// fakeConn delivers frames pushed on msgs; ReadMessage blocks until a frame,
// a read error, or Close.
type fakeConn struct {
	msgs    chan []byte
	readErr chan error
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn(frames ...string) *fakeConn {
	c := &fakeConn{
		msgs:    make(chan []byte, len(frames)+8),
		readErr: make(chan error, 1),
		closed:  make(chan struct{}),
	}
	for _, f := range frames {
		c.msgs <- []byte(f)
	}
	return c
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case <-c.closed:
		return nil, errConnClosed
	default:
	}
	// buffered frames win over a queued read error
	select {
	case b := <-c.msgs:
		return b, nil
	default:
	}
	select {
	case b := <-c.msgs:
		return b, nil
	case err := <-c.readErr:
		return nil, err
	case <-c.closed:
		return nil, errConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	conn *fakeConn
	err  error
	// block makes Dial wait for ctx cancellation, i.e. on-open never fires
	block bool
}

func (d *fakeDialer) Dial(ctx context.Context) (port.StreamConn, error) {
	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}
