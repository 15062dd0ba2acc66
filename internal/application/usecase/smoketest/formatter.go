package smoketest

import (
	"fmt"
	"strings"

	"xprobe/internal/application/port"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	Color bool
}

func NewFormatter(color bool) *Formatter {
	return &Formatter{Color: color}
}

func (f *Formatter) paint(s, c string) string {
	if !f.Color {
		return s
	}
	return colorize(s, c)
}

// Render 汇总表：每个探针一行，最后一行为结论
func (f *Formatter) Render(r port.Report) string {
	width := 0
	for _, o := range r.Outcomes {
		if len(o.Name) > width {
			width = len(o.Name)
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")
	sb.WriteString("📊 summary")
	if r.RunID != "" {
		sb.WriteString(f.paint(" (run "+r.RunID+")", ansiDim))
	}
	sb.WriteString("\n")

	for _, o := range r.Outcomes {
		status := f.paint("✅ ok", ansiGreen)
		if !o.OK {
			status = f.paint("❌ failed", ansiRed)
		}
		fmt.Fprintf(&sb, "   %-*s  %s", width, o.Name, status)
		if o.Detail != "" {
			sb.WriteString(f.paint("  "+o.Detail, ansiDim))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	msg := verdictMessage(r.Verdict)
	switch r.Verdict {
	case port.VerdictHealthy:
		sb.WriteString(f.paint(msg, ansiGreen))
	case port.VerdictDegraded:
		sb.WriteString(f.paint(msg, ansiYellow))
	default:
		sb.WriteString(f.paint(msg, ansiRed))
	}
	sb.WriteString("\n")
	return sb.String()
}
