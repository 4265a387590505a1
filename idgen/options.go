package idgen

import (
	"time"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/metrics"
)

// Option Snowflake 初始化选项
type Option func(*options)

type options struct {
	clock   Clock
	logger  clog.Logger
	meter   metrics.Meter
	policy  ExhaustionPolicy
	maxWait time.Duration
}

func defaultOptions() *options {
	return &options{
		clock:  SystemClock(),
		logger: clog.Discard(),
		meter:  metrics.Discard(),
		policy: PolicyBlock,
	}
}

// WithClock 设置时间源，默认 SystemClock
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger 设置 Logger，组件会自动添加 "idgen" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("idgen")
		}
	}
}

// WithMeter 设置 Meter
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// WithExhaustionPolicy 设置序列号耗尽策略，默认 PolicyBlock
func WithExhaustionPolicy(policy ExhaustionPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithMaxWait 设置 PolicyFail 下等待时钟前进的最长时间，默认 0 表示不等待
func WithMaxWait(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.maxWait = d
		}
	}
}
