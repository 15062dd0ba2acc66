package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRestBaseURL = "https://api.binance.com"
	DefaultStreamBase  = "wss://stream.binance.com:9443/ws/"
	DefaultStreamURL   = DefaultStreamBase + "btcusdt@ticker"
	DefaultSymbol      = "BTCUSDT"
	DefaultTransport   = "binance"
)

type Config struct {
	App struct {
		LogLevel string `toml:"log_level" yaml:"log_level"`
	} `toml:"app" yaml:"app"`

	Rest struct {
		BaseURL        string `toml:"base_url" yaml:"base_url"`
		Symbol         string `toml:"symbol" yaml:"symbol"`
		DepthLimit     int    `toml:"depth_limit" yaml:"depth_limit"`
		TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
	} `toml:"rest" yaml:"rest"`

	Stream struct {
		Enabled            bool   `toml:"enabled" yaml:"enabled"`
		Transport          string `toml:"transport" yaml:"transport"`
		URL                string `toml:"url" yaml:"url"`
		MessageThreshold   int    `toml:"message_threshold" yaml:"message_threshold"`
		TimeoutSeconds     int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
		PingIntervalSecond int    `toml:"ping_interval_seconds" yaml:"ping_interval_seconds"`
		PongTimeoutSecond  int    `toml:"pong_timeout_seconds" yaml:"pong_timeout_seconds"`
	} `toml:"stream" yaml:"stream"`

	Notify struct {
		Redis struct {
			Enabled  bool   `toml:"enabled" yaml:"enabled"`
			Addr     string `toml:"addr" yaml:"addr"`
			Password string `toml:"password" yaml:"password"`
			DB       int    `toml:"db" yaml:"db"`
			Channel  string `toml:"channel" yaml:"channel"`
			Stream   string `toml:"stream" yaml:"stream"`
		} `toml:"redis" yaml:"redis"`
	} `toml:"notify" yaml:"notify"`
}

// Default 返回固定端点的默认配置，没有配置文件时直接使用
func Default() *Config {
	var cfg Config
	cfg.Stream.Enabled = true
	applyDefaults(&cfg)
	return &cfg
}

// Load 读取 toml / yaml 配置；文件不存在时回退到默认配置
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("config", path).Msg("config file not found, using built-in endpoints")
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	cfg.Stream.Enabled = true

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(b), &cfg); err != nil {
			return nil, fmt.Errorf("parse toml %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.Rest.BaseURL) == "" {
		cfg.Rest.BaseURL = DefaultRestBaseURL
	}
	if strings.TrimSpace(cfg.Rest.Symbol) == "" {
		cfg.Rest.Symbol = DefaultSymbol
	}
	if cfg.Rest.DepthLimit <= 0 {
		cfg.Rest.DepthLimit = 5
	}
	if cfg.Rest.TimeoutSeconds <= 0 {
		cfg.Rest.TimeoutSeconds = 10
	}
	if strings.TrimSpace(cfg.Stream.Transport) == "" {
		cfg.Stream.Transport = DefaultTransport
	}
	if strings.TrimSpace(cfg.Stream.URL) == "" {
		cfg.Stream.URL = TickerStreamURL(cfg.Rest.Symbol)
	}
	if cfg.Stream.MessageThreshold <= 0 {
		cfg.Stream.MessageThreshold = 2
	}
	if cfg.Stream.TimeoutSeconds <= 0 {
		cfg.Stream.TimeoutSeconds = 10
	}
	if cfg.Stream.PingIntervalSecond <= 0 {
		cfg.Stream.PingIntervalSecond = 30
	}
	if cfg.Stream.PongTimeoutSecond <= 0 {
		cfg.Stream.PongTimeoutSecond = 10
	}
	if strings.TrimSpace(cfg.Notify.Redis.Addr) == "" {
		cfg.Notify.Redis.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.Notify.Redis.Channel) == "" {
		cfg.Notify.Redis.Channel = "xprobe:reports:pub"
	}
	if strings.TrimSpace(cfg.Notify.Redis.Stream) == "" {
		cfg.Notify.Redis.Stream = "xprobe:reports"
	}
}

// TickerStreamURL 单一交易对的 raw ticker 流地址，e.g. BTCUSDT -> .../ws/btcusdt@ticker
func TickerStreamURL(symbol string) string {
	return DefaultStreamBase + strings.ToLower(strings.TrimSpace(symbol)) + "@ticker"
}

func validate(cfg *Config) error {
	cfg.Rest.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Rest.Symbol))

	u, err := url.Parse(strings.TrimSpace(cfg.Rest.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("rest.base_url invalid: %q", cfg.Rest.BaseURL)
	}
	if cfg.Rest.DepthLimit > 5000 {
		return errors.New("rest.depth_limit must be <= 5000")
	}

	if cfg.Stream.Enabled {
		u, err := url.Parse(strings.TrimSpace(cfg.Stream.URL))
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return fmt.Errorf("stream.url invalid: %q", cfg.Stream.URL)
		}
	}

	if cfg.Notify.Redis.Enabled && strings.TrimSpace(cfg.Notify.Redis.Addr) == "" {
		return errors.New("notify.redis.addr empty but enabled")
	}
	return nil
}

func (c *Config) RestTimeout() time.Duration {
	return time.Duration(c.Rest.TimeoutSeconds) * time.Second
}

func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.Stream.TimeoutSeconds) * time.Second
}

func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Stream.PingIntervalSecond) * time.Second
}

func (c *Config) PongTimeout() time.Duration {
	return time.Duration(c.Stream.PongTimeoutSecond) * time.Second
}
