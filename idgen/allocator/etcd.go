package allocator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/xerrors"
)

type etcdAllocator struct {
	client *clientv3.Client
	cfg    *Config
	logger clog.Logger
	value  string

	mu       sync.Mutex
	leaseID  clientv3.LeaseID
	workerID int64
	key      string

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newEtcdAllocator(cfg *Config, client *clientv3.Client, logger clog.Logger) *etcdAllocator {
	return &etcdAllocator{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		value:    holderValue(),
		workerID: -1,
		stopCh:   make(chan struct{}),
	}
}

func (a *etcdAllocator) Allocate(ctx context.Context) (int64, error) {
	lease, err := a.client.Grant(ctx, int64(a.cfg.TTL))
	if err != nil {
		a.logger.Error("etcd grant lease failed", clog.Error(err))
		return 0, xerrors.Wrap(err, "etcd grant lease")
	}

	offset := rand.IntN(a.cfg.MaxID)
	for i := 0; i < a.cfg.MaxID; i++ {
		id := (offset + i) % a.cfg.MaxID
		key := fmt.Sprintf("%s:%d", a.cfg.KeyPrefix, id)

		// key 不存在（ModRevision == 0）时写入并绑定 Lease
		resp, err := a.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(key), "=", 0)).
			Then(clientv3.OpPut(key, a.value, clientv3.WithLease(lease.ID))).
			Commit()
		if err != nil {
			a.revoke(lease.ID)
			a.logger.Error("etcd txn failed", clog.Error(err), clog.String("key", key))
			return 0, xerrors.Wrap(err, "etcd allocate worker id")
		}
		if !resp.Succeeded {
			continue
		}

		a.mu.Lock()
		a.leaseID = lease.ID
		a.workerID = int64(id)
		a.key = key
		a.mu.Unlock()

		a.logger.Info("worker id allocated",
			clog.Int64("worker_id", int64(id)),
			clog.String("key", key),
			clog.Int64("lease_id", int64(lease.ID)),
		)
		return int64(id), nil
	}

	a.revoke(lease.ID)
	return 0, xerrors.WithCode(ErrWorkerIDExhausted, "no_available_worker_id")
}

func (a *etcdAllocator) KeepAlive(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)

	a.mu.Lock()
	leaseID := a.leaseID
	a.mu.Unlock()
	if leaseID == 0 {
		errCh <- xerrors.WithCode(ErrNotAllocated, "not_allocated")
		return errCh
	}

	kaCtx, cancel := context.WithCancel(ctx)
	kaCh, err := a.client.KeepAlive(kaCtx, leaseID)
	if err != nil {
		cancel()
		a.logger.Error("etcd keep alive failed", clog.Error(err), clog.Int64("lease_id", int64(leaseID)))
		errCh <- xerrors.Wrap(err, "etcd keep alive")
		return errCh
	}

	go func() {
		defer cancel()
		for {
			select {
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			case ka, ok := <-kaCh:
				if !ok || ka == nil {
					a.logger.Error("lease expired", clog.Int64("lease_id", int64(leaseID)))
					errCh <- xerrors.WithCode(ErrLeaseExpired, "lease_expired")
					return
				}
			}
		}
	}()

	return errCh
}

func (a *etcdAllocator) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)

		a.mu.Lock()
		leaseID, id, key := a.leaseID, a.workerID, a.key
		a.mu.Unlock()
		if leaseID == 0 {
			return
		}

		// 撤销 Lease，关联的 key 随之删除
		a.revoke(leaseID)
		a.logger.Info("worker id released",
			clog.Int64("worker_id", id),
			clog.String("key", key),
			clog.Int64("lease_id", int64(leaseID)),
		)
	})
}

func (a *etcdAllocator) revoke(id clientv3.LeaseID) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := a.client.Revoke(ctx, id); err != nil {
		a.logger.Warn("etcd revoke lease failed", clog.Error(err), clog.Int64("lease_id", int64(id)))
	}
}
