package port

import (
	"context"
	"time"
)

// Outcome 单个探针一次运行的结果
type Outcome struct {
	Name     string
	OK       bool
	Detail   string
	Err      error
	Duration time.Duration
}

type Probe interface {
	Name() string
	Probe(ctx context.Context) Outcome
}

type Verdict string

const (
	VerdictHealthy  Verdict = "healthy"
	VerdictDegraded Verdict = "degraded"
	VerdictFailed   Verdict = "failed"
)

// Report 一次 smoke test 的汇总
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Outcomes  []Outcome
	Verdict   Verdict
	ExitCode  int
}
