package allocator

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/xerrors"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		opts     []Option
		wantCode string
	}{
		{name: "nil config", cfg: nil, wantCode: "config_nil"},
		{name: "unknown driver", cfg: &Config{Driver: "zookeeper"}, wantCode: "unsupported_driver"},
		{name: "static out of range", cfg: &Config{WorkerID: 1024}, wantCode: "worker_id_out_of_range"},
		{name: "ttl too short", cfg: &Config{TTL: 2}, wantCode: "ttl_too_short"},
		{name: "redis without client", cfg: &Config{Driver: DriverRedis}, wantCode: "redis_client_required"},
		{name: "etcd without client", cfg: &Config{Driver: DriverEtcd}, wantCode: "etcd_client_required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, tt.wantCode, xerrors.GetCode(err))
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()
	assert.Equal(t, DriverStatic, cfg.Driver)
	assert.Equal(t, "idbuilder:worker", cfg.KeyPrefix)
	assert.Equal(t, 1024, cfg.MaxID)
	assert.Equal(t, 30, cfg.TTL)
}

func TestStaticAllocator(t *testing.T) {
	alloc, err := New(&Config{Driver: DriverStatic, WorkerID: 42}, WithLogger(clog.Discard()))
	require.NoError(t, err)
	defer alloc.Stop()

	id, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	select {
	case err := <-alloc.KeepAlive(context.Background()):
		t.Fatalf("static keep alive must not fail: %v", err)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestIPAllocator(t *testing.T) {
	a := newIP(64, clog.Discard())
	a.addrs = func() ([]net.Addr, error) {
		return []net.Addr{
			&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
			&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
			&net.IPNet{IP: net.ParseIP("10.0.3.200"), Mask: net.CIDRMask(24, 32)},
		}, nil
	}

	id, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(200%64), id)
}

func TestIPAllocator_NoAddress(t *testing.T) {
	a := newIP(1024, clog.Discard())
	a.addrs = func() ([]net.Addr, error) {
		return []net.Addr{&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)}}, nil
	}
	_, err := a.Allocate(context.Background())
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	a.addrs = func() ([]net.Addr, error) { return nil, errors.New("permission denied") }
	_, err = a.Allocate(context.Background())
	assert.ErrorContains(t, err, "permission denied")
}

// ========================================
// Redis / Etcd 集成测试，未配置后端时跳过
// ========================================

func newRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisAllocator(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()
	prefix := "idbuilder:test:" + t.Name() + ":" + time.Now().Format("150405.000")
	cfg := &Config{Driver: DriverRedis, KeyPrefix: prefix, MaxID: 2, TTL: 3}

	a1, err := New(cfg, WithRedisClient(client))
	require.NoError(t, err)
	a2, err := New(&Config{Driver: DriverRedis, KeyPrefix: prefix, MaxID: 2, TTL: 3}, WithRedisClient(client))
	require.NoError(t, err)
	a3, err := New(&Config{Driver: DriverRedis, KeyPrefix: prefix, MaxID: 2, TTL: 3}, WithRedisClient(client))
	require.NoError(t, err)

	id1, err := a1.Allocate(ctx)
	require.NoError(t, err)
	id2, err := a2.Allocate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	_, err = a3.Allocate(ctx)
	assert.ErrorIs(t, err, ErrWorkerIDExhausted)

	kaCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh1 := a1.KeepAlive(kaCtx)
	errCh2 := a2.KeepAlive(kaCtx)

	// 续期周期为 1s，等待超过原 TTL 后 key 仍然存在
	time.Sleep(3500 * time.Millisecond)
	for _, errCh := range []<-chan error{errCh1, errCh2} {
		select {
		case err := <-errCh:
			t.Fatalf("keep alive failed: %v", err)
		default:
		}
	}
	exists, err := client.Exists(ctx, prefix+":0", prefix+":1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), exists)

	a1.Stop()
	a1.Stop()
	id3, err := a3.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, id1, id3)

	a2.Stop()
	a3.Stop()
}

func TestRedisAllocator_KeepAliveBeforeAllocate(t *testing.T) {
	a := newRedisAllocator(&Config{KeyPrefix: "x", MaxID: 1, TTL: 3}, redis.NewClient(&redis.Options{}), clog.Discard())
	err := <-a.KeepAlive(context.Background())
	assert.ErrorIs(t, err, ErrNotAllocated)
	a.Stop()
}

func TestEtcdAllocator(t *testing.T) {
	endpoints := os.Getenv("ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("ETCD_ENDPOINTS not set")
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(endpoints, ","),
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	prefix := "/idbuilder/test/" + time.Now().Format("150405.000")
	newAlloc := func() Allocator {
		a, err := New(&Config{Driver: DriverEtcd, KeyPrefix: prefix, MaxID: 2, TTL: 5}, WithEtcdClient(client))
		require.NoError(t, err)
		return a
	}

	a1, a2, a3 := newAlloc(), newAlloc(), newAlloc()
	id1, err := a1.Allocate(ctx)
	require.NoError(t, err)
	id2, err := a2.Allocate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	_, err = a3.Allocate(ctx)
	assert.ErrorIs(t, err, ErrWorkerIDExhausted)

	kaCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := a1.KeepAlive(kaCtx)
	select {
	case err := <-errCh:
		t.Fatalf("keep alive failed: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	a1.Stop()
	id3, err := a3.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, id1, id3)

	a2.Stop()
	a3.Stop()
}
