package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"xprobe/internal/application/port"

	"github.com/rs/zerolog/log"
)

const StreamProbeName = "WebSocket"

var (
	// ErrStreamUnavailable 未配置推送传输（禁用或未注册），与其它失败区分上报
	ErrStreamUnavailable = errors.New("streaming transport unavailable")
	// ErrStreamTimeout 超时前未建立连接或未收到任何消息
	ErrStreamTimeout = errors.New("stream probe timed out")
)

type StreamResult struct {
	Connected bool
	Messages  int64
	LastPrice string
	TimedOut  bool
	Err       error
	Duration  time.Duration
}

// OK 连接成功且至少收到一条消息
func (r StreamResult) OK() bool { return r.Connected && r.Messages > 0 }

type StreamProberDeps struct {
	Dialer    port.StreamDialer // nil => ErrStreamUnavailable
	Threshold int               // messages before closing, default 2
	Timeout   time.Duration     // overall ceiling, default 10s
}

// StreamProber 订阅一次 ticker 流，收到 Threshold 条消息或超时后关闭
type StreamProber struct {
	deps StreamProberDeps
}

func NewStreamProber(deps StreamProberDeps) *StreamProber {
	if deps.Threshold <= 0 {
		deps.Threshold = 2
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	return &StreamProber{deps: deps}
}

func (p *StreamProber) Name() string { return StreamProbeName }

func (p *StreamProber) Probe(ctx context.Context) port.Outcome {
	res := p.Run(ctx)
	out := port.Outcome{Name: p.Name(), OK: res.OK(), Duration: res.Duration}
	switch {
	case errors.Is(res.Err, ErrStreamUnavailable):
		out.Err = res.Err
		out.Detail = "streaming transport unavailable"
	case res.OK():
		out.Detail = fmt.Sprintf("%d messages, last price %s", res.Messages, orDash(res.LastPrice))
	default:
		out.Err = res.Err
		out.Detail = fmt.Sprintf("connected=%t messages=%d: %v", res.Connected, res.Messages, res.Err)
	}
	return out
}

// Run 在后台 goroutine 中拨号并读取消息，主流程等待完成信号或超时
func (p *StreamProber) Run(ctx context.Context) StreamResult {
	start := time.Now()

	if p.deps.Dialer == nil {
		log.Warn().Msg("⚠️ streaming transport not available, skipping websocket probe")
		return StreamResult{Err: ErrStreamUnavailable}
	}

	s := newSession(p.deps.Threshold)
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		p.listen(lctx, s)
	}()

	timer := time.NewTimer(p.deps.Timeout)
	defer timer.Stop()

	timedOut := false
	select {
	case <-s.Done():
	case <-listenerDone:
		// 连接已被对端关闭或出错，不必等到超时
	case <-timer.C:
		timedOut = true
		log.Warn().Dur("timeout", p.deps.Timeout).Msg("stream probe wait ceiling reached")
	case <-ctx.Done():
	}

	// 唯一的取消路径：关闭连接（并取消仍在进行的拨号）
	cancel()
	s.closeConn()
	<-listenerDone

	connected, count, lastPrice, lastErr := s.snapshot()
	res := StreamResult{
		Connected: connected,
		Messages:  count,
		LastPrice: lastPrice,
		TimedOut:  timedOut,
		Duration:  time.Since(start),
	}
	if !res.OK() {
		switch {
		case lastErr != nil:
			res.Err = lastErr
		case ctx.Err() != nil:
			res.Err = ctx.Err()
		default:
			res.Err = ErrStreamTimeout
		}
	}
	return res
}

func (p *StreamProber) listen(ctx context.Context, s *session) {
	conn, err := p.deps.Dialer.Dial(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.onError(s, err)
		}
		return
	}
	if !s.attach(conn) {
		_ = conn.Close()
		return
	}
	p.onOpen()
	defer p.onClose()

	for {
		b, err := conn.ReadMessage()
		if err != nil {
			if !s.isClosing() {
				p.onError(s, err)
				s.closeConn()
			}
			return
		}
		p.onMessage(s, b)
	}
}

func (p *StreamProber) onOpen() {
	log.Info().Msg("✅ websocket connected")
}

type tickerMsg struct {
	Close *string `json:"c"`
}

func (p *StreamProber) onMessage(s *session, b []byte) {
	n, reached := s.received()

	var msg tickerMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Debug().Err(err).Int64("msg", n).Msg("ignoring non-json stream payload")
	} else if msg.Close != nil {
		s.setPrice(*msg.Close)
		log.Info().Str("price", *msg.Close).Int64("msg", n).Msg("📈 ticker update")
	}

	if reached {
		s.closeConn()
	}
}

func (p *StreamProber) onError(s *session, err error) {
	s.setErr(err)
	log.Error().Err(err).Msg("❌ websocket error")
}

func (p *StreamProber) onClose() {
	log.Info().Msg("🔌 websocket closed")
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}
