package port

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Instrument struct {
	Symbol     string
	Status     string
	BaseAsset  string
	QuoteAsset string
}

type Ticker24h struct {
	Symbol             string
	LastPrice          string // raw string, as sent by the exchange
	PriceChangePercent string
	Volume             string
}

type BookLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// OrderBook 订单簿快照，Bids 价格降序，Asks 价格升序
type OrderBook struct {
	Symbol       string
	LastUpdateID int64
	Bids         []BookLevel
	Asks         []BookLevel
}

func (b OrderBook) BestBid() (BookLevel, bool) {
	if len(b.Bids) == 0 {
		return BookLevel{}, false
	}
	return b.Bids[0], true
}

func (b OrderBook) BestAsk() (BookLevel, bool) {
	if len(b.Asks) == 0 {
		return BookLevel{}, false
	}
	return b.Asks[0], true
}

// ErrInvalidResponse 200 响应但内容不满足要求（缺字段、空列表等），与传输失败区分
var ErrInvalidResponse = errors.New("invalid response")

// StatusCoder 由携带 HTTP 状态码的错误实现（非 200 响应）
type StatusCoder interface {
	HTTPStatus() int
}

// MarketData 公共行情只读接口
type MarketData interface {
	ServerTime(ctx context.Context) (time.Time, error)
	ExchangeInfo(ctx context.Context) ([]Instrument, error)
	Ticker24h(ctx context.Context, symbol string) (Ticker24h, error)
	Depth(ctx context.Context, symbol string, limit int) (OrderBook, error)
}
