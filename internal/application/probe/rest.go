package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xprobe/internal/application/port"

	"github.com/rs/zerolog/log"
)

const RestProbeName = "REST API"

// StepResult 单个 REST 步骤的结果；前序步骤失败时后续步骤 Skipped
type StepResult struct {
	Name       string
	OK         bool
	Skipped    bool
	StatusCode int
	Detail     string
	Err        error
	Duration   time.Duration
}

type RestResult struct {
	OK       bool
	Steps    []StepResult
	Duration time.Duration
}

// FailedStep 第一个失败的步骤
func (r RestResult) FailedStep() (StepResult, bool) {
	for _, s := range r.Steps {
		if !s.OK && !s.Skipped {
			return s, true
		}
	}
	return StepResult{}, false
}

type RestProberDeps struct {
	Market     port.MarketData
	Symbol     string
	DepthLimit int
	Timeout    time.Duration // per step
}

// RestProber 顺序调用四个公共行情接口，任一失败即中止
type RestProber struct {
	deps  RestProberDeps
	steps []restStep
}

type restStep struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func NewRestProber(deps RestProberDeps) *RestProber {
	if deps.Symbol == "" {
		deps.Symbol = "BTCUSDT"
	}
	if deps.DepthLimit <= 0 {
		deps.DepthLimit = 5
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	p := &RestProber{deps: deps}
	p.steps = []restStep{
		{name: "server_time", run: p.serverTime},
		{name: "exchange_info", run: p.exchangeInfo},
		{name: "ticker_24hr", run: p.ticker24h},
		{name: "order_book", run: p.orderBook},
	}
	return p
}

func (p *RestProber) Name() string { return RestProbeName }

func (p *RestProber) Probe(ctx context.Context) port.Outcome {
	res := p.Run(ctx)
	out := port.Outcome{Name: p.Name(), OK: res.OK, Duration: res.Duration}
	if failed, ok := res.FailedStep(); ok {
		out.Err = failed.Err
		out.Detail = fmt.Sprintf("%s: %s", failed.Name, failed.Detail)
	} else {
		out.Detail = fmt.Sprintf("%d/%d steps ok", len(res.Steps), len(p.steps))
	}
	return out
}

// Run 执行全部步骤；错误只记录在结果里，不向上抛
func (p *RestProber) Run(ctx context.Context) RestResult {
	start := time.Now()
	res := RestResult{OK: true, Steps: make([]StepResult, 0, len(p.steps))}

	for i, step := range p.steps {
		if !res.OK {
			res.Steps = append(res.Steps, StepResult{Name: step.name, Skipped: true})
			continue
		}

		log.Info().Str("step", step.name).Msgf("%d. probing", i+1)
		sr := p.runStep(ctx, step)
		res.Steps = append(res.Steps, sr)

		if sr.OK {
			log.Info().Str("step", step.name).Dur("took", sr.Duration).Msg("✅ " + sr.Detail)
			continue
		}

		res.OK = false
		ev := log.Error().Str("step", step.name).Err(sr.Err)
		if sr.StatusCode != 0 {
			ev = ev.Int("status", sr.StatusCode)
		}
		ev.Msg("❌ " + sr.Detail)
	}

	res.Duration = time.Since(start)
	return res
}

func (p *RestProber) runStep(ctx context.Context, step restStep) StepResult {
	sctx, cancel := context.WithTimeout(ctx, p.deps.Timeout)
	defer cancel()

	start := time.Now()
	detail, err := step.run(sctx)
	sr := StepResult{Name: step.name, Duration: time.Since(start)}
	if err == nil {
		sr.OK = true
		sr.Detail = detail
		return sr
	}

	sr.Err = err
	var se port.StatusCoder
	if errors.As(err, &se) {
		sr.StatusCode = se.HTTPStatus()
		sr.Detail = fmt.Sprintf("http status %d", sr.StatusCode)
	} else if errors.Is(err, port.ErrInvalidResponse) {
		sr.Detail = err.Error()
	} else {
		sr.Detail = fmt.Sprintf("request failed: %v", err)
	}
	return sr
}

func (p *RestProber) serverTime(ctx context.Context) (string, error) {
	ts, err := p.deps.Market.ServerTime(ctx)
	if err != nil {
		return "", err
	}
	return "server time " + ts.UTC().Format("2006-01-02 15:04:05 UTC"), nil
}

func (p *RestProber) exchangeInfo(ctx context.Context) (string, error) {
	instruments, err := p.deps.Market.ExchangeInfo(ctx)
	if err != nil {
		return "", err
	}
	if len(instruments) == 0 {
		return "", fmt.Errorf("%w: exchange info returned no symbols", port.ErrInvalidResponse)
	}
	return fmt.Sprintf("%d symbols listed", len(instruments)), nil
}

func (p *RestProber) ticker24h(ctx context.Context) (string, error) {
	tk, err := p.deps.Market.Ticker24h(ctx, p.deps.Symbol)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s last price %s, 24h change %s%%", p.deps.Symbol, tk.LastPrice, tk.PriceChangePercent), nil
}

func (p *RestProber) orderBook(ctx context.Context) (string, error) {
	book, err := p.deps.Market.Depth(ctx, p.deps.Symbol, p.deps.DepthLimit)
	if err != nil {
		return "", err
	}
	bid, ok := book.BestBid()
	if !ok {
		return "", fmt.Errorf("%w: order book has no bids", port.ErrInvalidResponse)
	}
	ask, ok := book.BestAsk()
	if !ok {
		return "", fmt.Errorf("%w: order book has no asks", port.ErrInvalidResponse)
	}
	spread := ask.Price.Sub(bid.Price)
	return fmt.Sprintf("%s best bid %s / best ask %s (spread %s)", p.deps.Symbol, bid.Price, ask.Price, spread), nil
}
