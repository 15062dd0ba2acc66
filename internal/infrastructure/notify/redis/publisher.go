package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"xprobe/internal/application/port"

	"github.com/redis/go-redis/v9"
)

// Publisher 把每次运行报告写入 Redis stream 并 PUBLISH 到频道
type Publisher struct {
	rdb     *redis.Client
	stream  string
	channel string
}

type probePayload struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type reportPayload struct {
	RunID       string         `json:"run_id"`
	StartedAtMs int64          `json:"started_at_ms"`
	DurationMs  int64          `json:"duration_ms"`
	Verdict     string         `json:"verdict"`
	ExitCode    int            `json:"exit_code"`
	Probes      []probePayload `json:"probes"`
}

func New(rdb *redis.Client, stream, channel string) *Publisher {
	if strings.TrimSpace(stream) == "" {
		stream = "xprobe:reports"
	}
	if strings.TrimSpace(channel) == "" {
		channel = stream + ":pub"
	}
	return &Publisher{rdb: rdb, stream: stream, channel: channel}
}

func (p *Publisher) Name() string { return "redis" }

func (p *Publisher) Publish(ctx context.Context, r port.Report) error {
	payload, err := encodeReport(r)
	if err != nil {
		return err
	}

	// 1) Stream: XADD <stream> * run_id verdict exit_code payload
	_, err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"run_id":    r.RunID,
			"verdict":   string(r.Verdict),
			"exit_code": r.ExitCode,
			"payload":   payload,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}

	// 2) PubSub: PUBLISH <channel> json
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

func encodeReport(r port.Report) (string, error) {
	rp := reportPayload{
		RunID:       r.RunID,
		StartedAtMs: r.StartedAt.UnixMilli(),
		DurationMs:  r.Duration.Milliseconds(),
		Verdict:     string(r.Verdict),
		ExitCode:    r.ExitCode,
		Probes:      make([]probePayload, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		pp := probePayload{
			Name:       o.Name,
			OK:         o.OK,
			Detail:     o.Detail,
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			pp.Error = o.Err.Error()
		}
		rp.Probes = append(rp.Probes, pp)
	}
	b, err := json.Marshal(rp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ port.ReportPublisher = (*Publisher)(nil)
