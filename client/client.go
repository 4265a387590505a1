// Package client 是远程 IDBuilder 服务的 HTTP 客户端。
//
// 服务提供三类 ID：
//
//   - snowflake: 服务端分配 WorkerID 与位布局，客户端据此在本地发号（见 idgen 包）
//   - increment: 服务端自增 ID
//   - formatted: 服务端按模板格式化的字符串 ID
//
// 使用示例:
//
//	c, _ := client.New(&client.Config{
//	    BaseURL:  "https://idbuilder.example.com",
//	    KeyToken: token,
//	}, client.WithLogger(logger))
//
//	cfg, _ := c.Snowflake("order-id").Config(ctx)
//	gen, _ := cfg.Generator()
//	id, _ := gen.NextID()
//
//	ids, _ := c.Increment("invoice-no").Generate(ctx, 10)
package client

import (
	"context"
	"net/http"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/metrics"
	"github.com/ceyewan/idbuilder/xerrors"
)

// Client 远程 IDBuilder 服务客户端，并发安全
type Client struct {
	cfg     *Config
	http    *http.Client
	logger  clog.Logger
	m       *clientMetrics
	breaker *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter
	cache   *otter.Cache[string, *SnowflakeConfig]
}

// New 创建客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, xerrors.WithCode(ErrInvalidConfig, "config_nil")
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &options{
		logger: clog.Discard(),
		meter:  metrics.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	m, err := newClientMetrics(o.meter)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		http:   o.httpClient,
		logger: o.logger,
		m:      m,
	}

	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cfg.BaseURL,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !serverFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				clog.String("service", name),
				clog.String("from", from.String()),
				clog.String("to", to.String()),
			)
		},
	})

	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	if cfg.CacheTTL > 0 {
		c.cache, err = otter.New(&otter.Options[string, *SnowflakeConfig]{
			MaximumSize:      1024,
			ExpiryCalculator: otter.ExpiryWriting[string, *SnowflakeConfig](cfg.CacheTTL),
		})
		if err != nil {
			return nil, xerrors.Wrap(err, "build snowflake config cache")
		}
	}

	c.logger.Info("idbuilder client created",
		clog.String("base_url", cfg.BaseURL),
		clog.Duration("timeout", cfg.Timeout),
		clog.Int("retries", cfg.Retries),
		clog.Bool("cache_enabled", c.cache != nil),
	)
	return c, nil
}

// Snowflake 返回指定 key 的 Snowflake 配置接口
func (c *Client) Snowflake(key string) *SnowflakeAPI {
	return &SnowflakeAPI{c: c, key: key}
}

// Increment 返回指定 key 的自增 ID 接口
func (c *Client) Increment(key string) *IncrementAPI {
	return &IncrementAPI{c: c, key: key}
}

// Formatted 返回指定 key 的格式化 ID 接口
func (c *Client) Formatted(key string) *FormattedAPI {
	return &FormattedAPI{c: c, key: key}
}

// InvalidateSnowflake 清除 key 对应的缓存配置，下次 Config 调用会重新请求服务端
func (c *Client) InvalidateSnowflake(key string) {
	if c.cache != nil {
		c.cache.Invalidate(key)
	}
}

// Close 释放空闲连接
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Config 返回生效的配置（已填充默认值）
func (c *Client) Config() Config {
	return *c.cfg
}

// wait 客户端限流
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return xerrors.WithCode(xerrors.Wrap(err, "client rate limiter"), "client_rate_limited")
	}
	return nil
}

// backoffInterval 重试退避的初始间隔与上限
const (
	backoffInitial = 100 * time.Millisecond
	backoffMax     = 2 * time.Second
)
