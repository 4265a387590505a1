package allocator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/xerrors"
)

// allocateScript 从 offset 开始环形遍历，原子抢占第一个空闲的 WorkerID
var allocateScript = redis.NewScript(`
local prefix = KEYS[1]
local value = ARGV[1]
local ttl = tonumber(ARGV[2])
local max_id = tonumber(ARGV[3])
local offset = tonumber(ARGV[4])

for i = 0, max_id - 1 do
	local id = (offset + i) % max_id
	if redis.call("SET", prefix .. ":" .. id, value, "NX", "EX", ttl) then
		return id
	end
end
return -1
`)

// renewScript 仅当 key 仍归属本进程时续期
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// releaseScript 仅当 key 仍归属本进程时删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisAllocator struct {
	client redis.UniversalClient
	cfg    *Config
	logger clog.Logger

	// value 写入 key 的持有者标识
	value string

	mu       sync.Mutex
	workerID int64
	key      string

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newRedisAllocator(cfg *Config, client redis.UniversalClient, logger clog.Logger) *redisAllocator {
	return &redisAllocator{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		value:    holderValue(),
		workerID: -1,
		stopCh:   make(chan struct{}),
	}
}

func (a *redisAllocator) Allocate(ctx context.Context) (int64, error) {
	// 随机起点，减少并发抢占冲突
	offset := rand.IntN(a.cfg.MaxID)

	id, err := allocateScript.Run(ctx, a.client, []string{a.cfg.KeyPrefix},
		a.value, a.cfg.TTL, a.cfg.MaxID, offset).Int64()
	if err != nil {
		a.logger.Error("redis allocate script failed",
			clog.Error(err),
			clog.String("key_prefix", a.cfg.KeyPrefix),
		)
		return 0, xerrors.Wrap(err, "redis allocate worker id")
	}
	if id < 0 {
		return 0, xerrors.WithCode(ErrWorkerIDExhausted, "no_available_worker_id")
	}

	a.mu.Lock()
	a.workerID = id
	a.key = fmt.Sprintf("%s:%d", a.cfg.KeyPrefix, id)
	a.mu.Unlock()

	a.logger.Info("worker id allocated",
		clog.Int64("worker_id", id),
		clog.String("key", a.key),
	)
	return id, nil
}

func (a *redisAllocator) KeepAlive(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)

	a.mu.Lock()
	key := a.key
	a.mu.Unlock()
	if key == "" {
		errCh <- xerrors.WithCode(ErrNotAllocated, "not_allocated")
		return errCh
	}

	go func() {
		ttl := time.Duration(a.cfg.TTL) * time.Second
		ticker := time.NewTicker(ttl / 3)
		defer ticker.Stop()

		for {
			select {
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				renewed, err := renewScript.Run(ctx, a.client, []string{key}, a.value, a.cfg.TTL).Int64()
				if err != nil {
					a.logger.Error("keep alive failed", clog.Error(err), clog.String("key", key))
					errCh <- xerrors.Wrap(err, "redis keep alive")
					return
				}
				if renewed == 0 {
					a.logger.Error("lease expired", clog.String("key", key))
					errCh <- xerrors.WithCode(ErrLeaseExpired, "lease_expired")
					return
				}
			}
		}
	}()

	return errCh
}

func (a *redisAllocator) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)

		a.mu.Lock()
		key, id := a.key, a.workerID
		a.mu.Unlock()
		if key == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, a.client, []string{key}, a.value).Err(); err != nil {
			a.logger.Warn("release worker id failed", clog.Error(err), clog.String("key", key))
			return
		}
		a.logger.Info("worker id released",
			clog.Int64("worker_id", id),
			clog.String("key", key),
		)
	})
}

// holderValue 标识持有 WorkerID 的进程
func holderValue() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d:%s", host, os.Getpid(), uuid.NewString())
}
