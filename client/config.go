package client

import (
	"net/url"
	"strings"
	"time"

	"github.com/ceyewan/idbuilder/xerrors"
)

const (
	// DefaultTimeout 默认请求超时
	DefaultTimeout = 30 * time.Second

	// DefaultBreakerThreshold 连续失败多少次后熔断
	DefaultBreakerThreshold = 5

	// DefaultBreakerTimeout 熔断后多久进入半开状态
	DefaultBreakerTimeout = 30 * time.Second

	// MaxBatchSize 单次请求最多生成的 ID 数量
	MaxBatchSize = 1000
)

// Config 远程 IDBuilder 服务客户端配置
//
// 典型配置（YAML）：
//
//	client:
//	  base_url: "https://idbuilder.example.com"
//	  key_token: "${IDBUILDER_CLIENT_KEY_TOKEN}"
//	  timeout: "5s"
//	  retries: 2
//	  rate_limit: 100
//	  burst: 10
//	  cache_ttl: "1m"
type Config struct {
	// BaseURL 服务地址，必填
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`

	// KeyToken 放入 Authorization 头的访问令牌，可选
	KeyToken string `mapstructure:"key_token" yaml:"key_token" json:"key_token"`

	// Timeout 单次 HTTP 请求超时，默认 30s
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`

	// Retries 传输错误或 5xx 时的重试次数，默认 0
	Retries int `mapstructure:"retries" yaml:"retries" json:"retries"`

	// RateLimit 客户端每秒最多发出的请求数，0 表示不限制
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`

	// Burst 令牌桶容量，RateLimit > 0 时默认 1
	Burst int `mapstructure:"burst" yaml:"burst" json:"burst"`

	// CacheTTL Snowflake 配置的本地缓存时间，0 表示不缓存
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" json:"cache_ttl"`

	// BreakerThreshold 连续失败多少次后熔断，默认 5
	BreakerThreshold uint32 `mapstructure:"breaker_threshold" yaml:"breaker_threshold" json:"breaker_threshold"`

	// BreakerTimeout 熔断持续时间，默认 30s
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout" yaml:"breaker_timeout" json:"breaker_timeout"`
}

func (c *Config) setDefaults() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit > 0 && c.Burst <= 0 {
		c.Burst = 1
	}
	if c.BreakerThreshold == 0 {
		c.BreakerThreshold = DefaultBreakerThreshold
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = DefaultBreakerTimeout
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return xerrors.WithCode(xerrors.Wrap(ErrInvalidConfig, "base_url is required"), "base_url_required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidConfig, "base_url %q is not an http(s) url", c.BaseURL), "base_url_invalid")
	}
	if c.Retries < 0 {
		return xerrors.WithCode(xerrors.Wrap(ErrInvalidConfig, "retries must not be negative"), "retries_negative")
	}
	if c.RateLimit < 0 {
		return xerrors.WithCode(xerrors.Wrap(ErrInvalidConfig, "rate_limit must not be negative"), "rate_limit_negative")
	}
	if c.CacheTTL < 0 {
		return xerrors.WithCode(xerrors.Wrap(ErrInvalidConfig, "cache_ttl must not be negative"), "cache_ttl_negative")
	}
	return nil
}
