package port

import "context"

type Sink interface {
	// Summary block, already rendered, written once per run
	WriteSummary(text string) error
	// Normal newline (for logs)
	NewLine() error
}

// ReportPublisher 把报告推给外部消费者（可选），失败不影响退出码
type ReportPublisher interface {
	Name() string
	Publish(ctx context.Context, r Report) error
}
