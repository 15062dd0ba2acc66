package smoketest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"xprobe/internal/application/port"
	"xprobe/internal/application/probe"

	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	name  string
	ok    bool
	panic bool
	calls int
}

func (p *fakeProbe) Name() string { return p.name }

func (p *fakeProbe) Probe(ctx context.Context) port.Outcome {
	p.calls++
	if p.panic {
		panic("boom")
	}
	return port.Outcome{Name: p.name, OK: p.ok, Detail: "fake"}
}

type fakeSink struct {
	summaries []string
}

func (s *fakeSink) WriteSummary(text string) error {
	s.summaries = append(s.summaries, text)
	return nil
}

func (s *fakeSink) NewLine() error { return nil }

type fakePublisher struct {
	err     error
	reports []port.Report
}

func (p *fakePublisher) Name() string { return "fake" }

func (p *fakePublisher) Publish(ctx context.Context, r port.Report) error {
	p.reports = append(p.reports, r)
	return p.err
}

func TestDriverExitCodeMatrix(t *testing.T) {
	cases := []struct {
		rest, stream bool
		code         int
		verdict      port.Verdict
		message      string
	}{
		{true, true, 0, port.VerdictHealthy, "REST and streaming both reachable"},
		{true, false, 0, port.VerdictDegraded, "REST ok, streaming degraded"},
		{false, true, 1, port.VerdictFailed, "REST failed"},
		{false, false, 1, port.VerdictFailed, "REST failed"},
	}
	for _, tc := range cases {
		rest := &fakeProbe{name: "REST API", ok: tc.rest}
		stream := &fakeProbe{name: "WebSocket", ok: tc.stream}
		sink := &fakeSink{}

		report := NewService(ServiceDeps{Rest: rest, Stream: stream, Sink: sink}).Run(context.Background())

		require.Equal(t, tc.code, report.ExitCode, "rest=%t stream=%t", tc.rest, tc.stream)
		require.Equal(t, tc.verdict, report.Verdict)
		require.Equal(t, 1, rest.calls)
		require.Equal(t, 1, stream.calls, "stream probe must run even when REST fails")
		require.Len(t, sink.summaries, 1)
		require.Contains(t, sink.summaries[0], tc.message)
	}
}

func TestDriverMissingStreamCapability(t *testing.T) {
	sink := &fakeSink{}
	svc := NewService(ServiceDeps{
		Rest:   &fakeProbe{name: "REST API", ok: true},
		Stream: probe.NewStreamProber(probe.StreamProberDeps{}),
		Sink:   sink,
	})

	report := svc.Run(context.Background())

	require.Equal(t, ExitOK, report.ExitCode)
	require.Equal(t, port.VerdictDegraded, report.Verdict)
	require.ErrorIs(t, report.Outcomes[1].Err, probe.ErrStreamUnavailable)
	require.Len(t, sink.summaries, 1)
	require.Contains(t, sink.summaries[0], "streaming transport unavailable")
}

func TestDriverNilStreamProbe(t *testing.T) {
	report := NewService(ServiceDeps{Rest: &fakeProbe{name: "REST API", ok: true}}).Run(context.Background())

	require.Equal(t, ExitOK, report.ExitCode)
	require.False(t, report.Outcomes[1].OK)
	require.Equal(t, probe.StreamProbeName, report.Outcomes[1].Name)
	require.ErrorIs(t, report.Outcomes[1].Err, probe.ErrStreamUnavailable)
}

func TestDriverRecoversProbePanic(t *testing.T) {
	sink := &fakeSink{}
	report := NewService(ServiceDeps{
		Rest:   &fakeProbe{name: "REST API", panic: true},
		Stream: &fakeProbe{name: "WebSocket", ok: true},
		Sink:   sink,
	}).Run(context.Background())

	require.Equal(t, ExitFail, report.ExitCode)
	require.Contains(t, report.Outcomes[0].Detail, "panic: boom")
	require.Len(t, sink.summaries, 1)
}

func TestDriverPublishFailureDoesNotChangeExitCode(t *testing.T) {
	ok := &fakePublisher{}
	bad := &fakePublisher{err: errors.New("redis down")}

	report := NewService(ServiceDeps{
		Rest:       &fakeProbe{name: "REST API", ok: true},
		Stream:     &fakeProbe{name: "WebSocket", ok: true},
		Publishers: []port.ReportPublisher{bad, ok},
		RunID:      "run-1",
	}).Run(context.Background())

	require.Equal(t, ExitOK, report.ExitCode)
	require.Len(t, ok.reports, 1)
	require.Len(t, bad.reports, 1)
	require.Equal(t, "run-1", ok.reports[0].RunID)
}

func TestServiceGeneratesRunID(t *testing.T) {
	a := NewService(ServiceDeps{})
	b := NewService(ServiceDeps{})
	require.Len(t, a.RunID(), 36)
	require.NotEqual(t, a.RunID(), b.RunID())
}

func TestFormatterRender(t *testing.T) {
	r := port.Report{
		RunID: "abc",
		Outcomes: []port.Outcome{
			{Name: "REST API", OK: true, Detail: "4/4 steps ok"},
			{Name: "WebSocket", OK: false, Detail: "streaming transport unavailable"},
		},
		Verdict: port.VerdictDegraded,
	}

	plain := NewFormatter(false).Render(r)
	require.Contains(t, plain, "(run abc)")
	require.Contains(t, plain, "   REST API   ✅ ok  4/4 steps ok\n")
	require.Contains(t, plain, "   WebSocket  ❌ failed  streaming transport unavailable\n")
	require.False(t, strings.Contains(plain, "\033["))

	colored := NewFormatter(true).Render(r)
	require.Contains(t, colored, ansiYellow+"⚠️ REST ok, streaming degraded"+ansiReset)
}

func TestEvaluate(t *testing.T) {
	v, code := Evaluate(true, false)
	require.Equal(t, port.VerdictDegraded, v)
	require.Equal(t, ExitOK, code)
}
