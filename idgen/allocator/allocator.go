// Package allocator 为 Snowflake 生成器分配 WorkerID。
//
// 在无法使用远程 IDBuilder 服务的自托管部署中，集群内的每个进程需要一个
// 互不冲突的 WorkerID。本包提供四种来源：
//
//   - static: 配置文件中手动指定
//   - ip:     本机 IPv4 地址最后一段对 MaxID 取模
//   - redis:  基于 SET NX EX 抢占，定期续期
//   - etcd:   基于 Lease + Txn 抢占，Lease 自动保活
//
// 使用示例:
//
//	alloc, _ := allocator.New(&allocator.Config{Driver: "redis"},
//	    allocator.WithRedisClient(rdb),
//	    allocator.WithLogger(logger),
//	)
//	workerID, _ := alloc.Allocate(ctx)
//	defer alloc.Stop()
//
//	go func() {
//	    if err := <-alloc.KeepAlive(ctx); err != nil {
//	        // 租约丢失后必须停止发号
//	    }
//	}()
package allocator

import (
	"context"

	"github.com/ceyewan/idbuilder/xerrors"
)

// Allocator WorkerID 分配器接口
type Allocator interface {
	// Allocate 分配 WorkerID
	Allocate(ctx context.Context) (int64, error)

	// KeepAlive 在后台保持租约，保活失败时通过返回的通道发送一个错误
	KeepAlive(ctx context.Context) <-chan error

	// Stop 停止保活并释放 WorkerID，可重复调用
	Stop()
}

// New 根据 cfg.Driver 创建分配器
func New(cfg *Config, opts ...Option) (Allocator, error) {
	if cfg == nil {
		return nil, xerrors.WithCode(ErrInvalidInput, "config_nil")
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	switch cfg.Driver {
	case DriverStatic:
		return newStatic(cfg.WorkerID), nil
	case DriverIP:
		return newIP(cfg.MaxID, o.logger), nil
	case DriverRedis:
		if o.redis == nil {
			return nil, xerrors.WithCode(ErrInvalidInput, "redis_client_required")
		}
		return newRedisAllocator(cfg, o.redis, o.logger), nil
	case DriverEtcd:
		if o.etcd == nil {
			return nil, xerrors.WithCode(ErrInvalidInput, "etcd_client_required")
		}
		return newEtcdAllocator(cfg, o.etcd, o.logger), nil
	default:
		return nil, xerrors.WithCode(ErrInvalidInput, "unsupported_driver")
	}
}
