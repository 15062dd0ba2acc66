package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"xprobe/internal/application/port"

	"github.com/shopspring/decimal"
)

const DefaultRestBaseURL = "https://api.binance.com"

// MarketClient Binance 现货公共行情 REST 客户端（无需 API key）
type MarketClient struct {
	baseURL    string
	httpClient *http.Client
}

// ErrMissingField 200 响应但缺少必需字段
var ErrMissingField = fmt.Errorf("%w: missing field", port.ErrInvalidResponse)

// /api/v3/time；字段缺失时 ServerTime 为 nil
type serverTimeResp struct {
	ServerTime *int64 `json:"serverTime"`
}

type symbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// /api/v3/exchangeInfo（只解析用到的字段）
type exchangeInfoResp struct {
	Symbols []symbolInfo `json:"symbols"`
}

// /api/v3/ticker/24hr
type ticker24hResp struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
}

// /api/v3/depth，每档为 [price, qty]
type depthResp struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// NewMarketClient 创建行情客户端，timeout 作用于每个请求
func NewMarketClient(baseURL string, timeout time.Duration) *MarketClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultRestBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MarketClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *MarketClient) BaseURL() string { return c.baseURL }

// ServerTime 获取服务器时间；serverTime 字段缺失时返回 ErrMissingField
func (c *MarketClient) ServerTime(ctx context.Context) (time.Time, error) {
	var out serverTimeResp
	if err := c.getJSON(ctx, "/api/v3/time", nil, &out); err != nil {
		return time.Time{}, err
	}
	if out.ServerTime == nil {
		return time.Time{}, fmt.Errorf("%w: serverTime", ErrMissingField)
	}
	return time.UnixMilli(*out.ServerTime).UTC(), nil
}

// ExchangeInfo 获取交易对列表
func (c *MarketClient) ExchangeInfo(ctx context.Context) ([]port.Instrument, error) {
	var out exchangeInfoResp
	if err := c.getJSON(ctx, "/api/v3/exchangeInfo", nil, &out); err != nil {
		return nil, err
	}
	if out.Symbols == nil {
		return nil, fmt.Errorf("%w: symbols", ErrMissingField)
	}
	instruments := make([]port.Instrument, 0, len(out.Symbols))
	for _, s := range out.Symbols {
		instruments = append(instruments, port.Instrument{
			Symbol:     s.Symbol,
			Status:     s.Status,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
		})
	}
	return instruments, nil
}

// Ticker24h 获取单个交易对 24 小时统计
func (c *MarketClient) Ticker24h(ctx context.Context, symbol string) (port.Ticker24h, error) {
	var out ticker24hResp
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	if err := c.getJSON(ctx, "/api/v3/ticker/24hr", params, &out); err != nil {
		return port.Ticker24h{}, err
	}
	if strings.TrimSpace(out.LastPrice) == "" {
		return port.Ticker24h{}, fmt.Errorf("%w: lastPrice", ErrMissingField)
	}
	if strings.TrimSpace(out.PriceChangePercent) == "" {
		return port.Ticker24h{}, fmt.Errorf("%w: priceChangePercent", ErrMissingField)
	}
	return port.Ticker24h{
		Symbol:             out.Symbol,
		LastPrice:          out.LastPrice,
		PriceChangePercent: out.PriceChangePercent,
		Volume:             out.Volume,
	}, nil
}

// Depth 获取订单簿快照，limit 为每边档位数
func (c *MarketClient) Depth(ctx context.Context, symbol string, limit int) (port.OrderBook, error) {
	if limit <= 0 {
		limit = 5
	}
	symbol = strings.ToUpper(symbol)
	var out depthResp
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))
	if err := c.getJSON(ctx, "/api/v3/depth", params, &out); err != nil {
		return port.OrderBook{}, err
	}

	bids, err := parseLevels(out.Bids)
	if err != nil {
		return port.OrderBook{}, fmt.Errorf("bids: %w", err)
	}
	asks, err := parseLevels(out.Asks)
	if err != nil {
		return port.OrderBook{}, fmt.Errorf("asks: %w", err)
	}
	return port.OrderBook{
		Symbol:       symbol,
		LastUpdateID: out.LastUpdateID,
		Bids:         bids,
		Asks:         asks,
	}, nil
}

func parseLevels(raw [][]string) ([]port.BookLevel, error) {
	levels := make([]port.BookLevel, 0, len(raw))
	for i, lv := range raw {
		if len(lv) < 2 {
			return nil, fmt.Errorf("level %d: want [price, qty], got %d fields", i, len(lv))
		}
		px, err := decimal.NewFromString(lv[0])
		if err != nil {
			return nil, fmt.Errorf("level %d price %q: %w", i, lv[0], err)
		}
		qty, err := decimal.NewFromString(lv[1])
		if err != nil {
			return nil, fmt.Errorf("level %d qty %q: %w", i, lv[1], err)
		}
		levels = append(levels, port.BookLevel{Price: px, Qty: qty})
	}
	return levels, nil
}

var (
	_ port.MarketData  = (*MarketClient)(nil)
	_ port.StatusCoder = (*StatusError)(nil)
)
