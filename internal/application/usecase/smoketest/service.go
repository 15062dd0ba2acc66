package smoketest

import (
	"context"
	"fmt"
	"time"

	"xprobe/internal/application/port"
	"xprobe/internal/application/probe"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ServiceDeps struct {
	Rest       port.Probe
	Stream     port.Probe
	Sink       port.Sink
	Publishers []port.ReportPublisher
	Formatter  *Formatter
	RunID      string // empty => random uuid
}

// Service 依次运行 REST 与推送探针，打印汇总并给出退出码
type Service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) *Service {
	if deps.Formatter == nil {
		deps.Formatter = NewFormatter(false)
	}
	if deps.RunID == "" {
		deps.RunID = uuid.NewString()
	}
	return &Service{deps: deps}
}

func (s *Service) RunID() string { return s.deps.RunID }

// Run 不会 panic，也不返回 error；结果全部体现在 Report 中
func (s *Service) Run(ctx context.Context) port.Report {
	start := time.Now()
	log.Info().Str("run_id", s.deps.RunID).Msg("🚀 connectivity smoke test started")

	_ = s.newLine()
	log.Info().Msg("=== REST API ===")
	rest := runProbe(ctx, s.deps.Rest, probe.RestProbeName, "rest probe not configured", nil)

	// 推送探针独立运行，不因 REST 失败而跳过
	_ = s.newLine()
	log.Info().Msg("=== WebSocket ===")
	stream := runProbe(ctx, s.deps.Stream, probe.StreamProbeName, "streaming transport unavailable", probe.ErrStreamUnavailable)

	verdict, code := Evaluate(rest.OK, stream.OK)
	report := port.Report{
		RunID:     s.deps.RunID,
		StartedAt: start,
		Duration:  time.Since(start),
		Outcomes:  []port.Outcome{rest, stream},
		Verdict:   verdict,
		ExitCode:  code,
	}

	if s.deps.Sink != nil {
		_ = s.newLine()
		if err := s.deps.Sink.WriteSummary(s.deps.Formatter.Render(report)); err != nil {
			log.Error().Err(err).Msg("write summary failed")
		}
	}

	for _, pub := range s.deps.Publishers {
		if err := pub.Publish(ctx, report); err != nil {
			log.Warn().Err(err).Str("publisher", pub.Name()).Msg("publish report failed")
			continue
		}
		log.Debug().Str("publisher", pub.Name()).Msg("report published")
	}

	log.Info().
		Str("verdict", string(verdict)).
		Int("exit_code", code).
		Dur("took", report.Duration).
		Msg("smoke test finished")
	return report
}

func (s *Service) newLine() error {
	if s.deps.Sink == nil {
		return nil
	}
	return s.deps.Sink.NewLine()
}

func runProbe(ctx context.Context, p port.Probe, name, missing string, missingErr error) (out port.Outcome) {
	if p == nil {
		log.Warn().Str("probe", name).Msg(missing)
		if missingErr == nil {
			missingErr = fmt.Errorf("%s: %s", name, missing)
		}
		return port.Outcome{Name: name, Detail: missing, Err: missingErr}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("probe", p.Name()).Interface("panic", r).Msg("probe panicked")
			out = port.Outcome{Name: p.Name(), Detail: fmt.Sprintf("panic: %v", r), Err: fmt.Errorf("probe panic: %v", r)}
		}
	}()
	out = p.Probe(ctx)
	if out.Name == "" {
		out.Name = p.Name()
	}
	return out
}
