package client

import (
	"net/http"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/metrics"
)

// Option 客户端选项
type Option func(*options)

type options struct {
	logger     clog.Logger
	meter      metrics.Meter
	httpClient *http.Client
}

// WithLogger 设置 Logger，组件会自动添加 "client" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("client")
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

// WithHTTPClient 使用自定义 http.Client，此时 Config.Timeout 不生效
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}
