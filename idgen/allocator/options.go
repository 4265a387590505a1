package allocator

import (
	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/idbuilder/clog"
)

// Option 分配器选项
type Option func(*options)

type options struct {
	logger clog.Logger
	redis  redis.UniversalClient
	etcd   *clientv3.Client
}

func defaultOptions() *options {
	return &options{logger: clog.Discard()}
}

// WithLogger 设置 Logger，组件会自动添加 "allocator" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("allocator")
		}
	}
}

// WithRedisClient 设置 Redis 客户端，Driver 为 "redis" 时必需
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) {
		o.redis = client
	}
}

// WithEtcdClient 设置 Etcd 客户端，Driver 为 "etcd" 时必需
func WithEtcdClient(client *clientv3.Client) Option {
	return func(o *options) {
		o.etcd = client
	}
}
