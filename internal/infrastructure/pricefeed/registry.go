package pricefeed

import (
	"sort"
	"time"

	"xprobe/internal/application/port"

	"github.com/rs/zerolog/log"
)

// Factory 创建 ticker 推送传输
// wsURL: WebSocket连接URL；pingInterval/pongTimeout: 保活参数
type Factory func(wsURL string, pingInterval, pongTimeout time.Duration) port.StreamDialer

// registry maps transport names to their stream dialer factories
var registry = make(map[string]Factory)

// Register 由各个交易所包的 init() 调用来自注册
// 未注册的传输在运行时表现为 "streaming transport unavailable"
func Register(name string, factory Factory) {
	if factory == nil {
		log.Warn().Str("transport", name).Msg("invalid stream transport factory")
		return
	}
	if _, exists := registry[name]; exists {
		log.Warn().Str("transport", name).Msg("stream transport already registered, overwriting")
	}
	registry[name] = factory
}

// Get 获取已注册的 factory
func Get(name string) (Factory, bool) {
	factory, ok := registry[name]
	return factory, ok
}

// Names 已注册的传输名称（排序后）
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
