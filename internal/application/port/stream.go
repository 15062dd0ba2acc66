package port

import "context"

// StreamConn 一条已建立的推送连接
// Close 必须可以与 ReadMessage 并发调用，并让阻塞中的 ReadMessage 返回错误
type StreamConn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// StreamDialer 建立推送连接；ctx 取消时 Dial 必须返回
type StreamDialer interface {
	Dial(ctx context.Context) (StreamConn, error)
}
