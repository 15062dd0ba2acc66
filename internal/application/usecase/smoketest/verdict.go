package smoketest

import "xprobe/internal/application/port"

const (
	ExitOK   = 0
	ExitFail = 1
)

// Evaluate 只有 REST 决定退出码；推送失败只降级，不判失败
func Evaluate(restOK, streamOK bool) (port.Verdict, int) {
	switch {
	case !restOK:
		return port.VerdictFailed, ExitFail
	case !streamOK:
		return port.VerdictDegraded, ExitOK
	default:
		return port.VerdictHealthy, ExitOK
	}
}

func verdictMessage(v port.Verdict) string {
	switch v {
	case port.VerdictHealthy:
		return "🎉 connectivity ok: REST and streaming both reachable"
	case port.VerdictDegraded:
		return "⚠️ REST ok, streaming degraded"
	default:
		return "❌ REST failed: exchange public data not reachable"
	}
}
