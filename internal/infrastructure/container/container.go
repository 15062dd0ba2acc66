package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"xprobe/internal/application/port"
	"xprobe/internal/application/probe"
	"xprobe/internal/infrastructure/config"
	"xprobe/internal/infrastructure/exchange/binance"
	"xprobe/internal/infrastructure/pricefeed"
	redisnotify "xprobe/internal/infrastructure/notify/redis"
)

// Container 包含所有应用依赖
type Container struct {
	cfg          *config.Config
	market       *binance.MarketClient
	streamDialer port.StreamDialer
	redisClient  *redis.Client
	publishers   []port.ReportPublisher
	closeOnce    sync.Once
	closerChain  []func() error
}

// New 创建新的容器实例
// 可选依赖（Redis）初始化失败只记录警告，不阻止探测
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("container: nil config")
	}
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}

	c.market = binance.NewMarketClient(cfg.Rest.BaseURL, cfg.RestTimeout())

	switch factory, ok := pricefeed.Get(cfg.Stream.Transport); {
	case !cfg.Stream.Enabled:
		log.Warn().Msg("stream disabled by config")
	case !ok:
		log.Warn().
			Str("transport", cfg.Stream.Transport).
			Strs("registered", pricefeed.Names()).
			Msg("stream transport not registered")
	default:
		c.streamDialer = factory(cfg.Stream.URL, cfg.PingInterval(), cfg.PongTimeout())
	}

	if cfg.Notify.Redis.Enabled {
		if err := c.initRedis(); err != nil {
			log.Warn().Err(err).Msg("redis notify disabled")
		}
	}

	return c, nil
}

// initRedis 初始化 Redis 连接与报告发布器
func (c *Container) initRedis() error {
	rc := c.cfg.Notify.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	c.redisClient = rdb
	c.publishers = append(c.publishers, redisnotify.New(rdb, rc.Stream, rc.Channel))

	// 注册关闭回调
	c.closerChain = append(c.closerChain, func() error {
		log.Debug().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", rc.Addr).
		Int("db", rc.DB).
		Str("channel", rc.Channel).
		Msg("redis notify initialized")

	return nil
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.cfg
}

// RestProber 基于配置的 REST 探针
func (c *Container) RestProber() *probe.RestProber {
	return probe.NewRestProber(probe.RestProberDeps{
		Market:     c.market,
		Symbol:     c.cfg.Rest.Symbol,
		DepthLimit: c.cfg.Rest.DepthLimit,
		Timeout:    c.cfg.RestTimeout(),
	})
}

// StreamProber 推送探针；stream 被禁用时 Dialer 为 nil，探针上报 unavailable
func (c *Container) StreamProber() *probe.StreamProber {
	return probe.NewStreamProber(probe.StreamProberDeps{
		Dialer:    c.streamDialer,
		Threshold: c.cfg.Stream.MessageThreshold,
		Timeout:   c.cfg.StreamTimeout(),
	})
}

// Publishers 已初始化的报告发布器
func (c *Container) Publishers() []port.ReportPublisher {
	return c.publishers
}

// Close 关闭所有资源（按后进先出顺序）
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
	})
	return err
}
