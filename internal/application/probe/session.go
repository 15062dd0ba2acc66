package probe

import (
	"sync"
	"sync/atomic"

	"xprobe/internal/application/port"
)

// session 推送探针的共享状态：事件回调（后台 goroutine）写，主流程读
type session struct {
	threshold int64

	connected atomic.Bool
	count     atomic.Int64 // 只增不减

	done     chan struct{}
	doneOnce sync.Once

	mu        sync.Mutex
	conn      port.StreamConn
	closing   bool
	lastErr   error
	lastPrice string
}

func newSession(threshold int) *session {
	if threshold <= 0 {
		threshold = 2
	}
	return &session{
		threshold: int64(threshold),
		done:      make(chan struct{}),
	}
}

// Done 收到足够消息后关闭
func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) markDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// attach 登记新连接；若主流程已开始关闭则返回 false，由调用方自行关闭 conn
func (s *session) attach(conn port.StreamConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conn = conn
	s.connected.Store(true)
	return true
}

// closeConn 请求关闭连接，可重复调用；返回调用前连接是否仍打开
func (s *session) closeConn() bool {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return false
	}
	s.closing = true
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (s *session) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// received 计数加一，达到阈值时标记完成
func (s *session) received() (n int64, reached bool) {
	n = s.count.Add(1)
	if n >= s.threshold {
		s.markDone()
		return n, true
	}
	return n, false
}

func (s *session) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *session) setPrice(px string) {
	s.mu.Lock()
	s.lastPrice = px
	s.mu.Unlock()
}

func (s *session) snapshot() (connected bool, count int64, lastPrice string, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected.Load(), s.count.Load(), s.lastPrice, s.lastErr
}
