package client

import (
	"context"
	"sync"

	"github.com/maypok86/otter/v2"

	"github.com/ceyewan/idbuilder/idgen"
	"github.com/ceyewan/idbuilder/xerrors"
)

// ========================================
// Snowflake
// ========================================

// SnowflakeAPI 获取 Snowflake 本地发号参数
type SnowflakeAPI struct {
	c   *Client
	key string
}

// Config 请求服务端为本客户端分配 WorkerID 与位布局
//
// 启用缓存时，同一 key 在 CacheTTL 内返回同一个 *SnowflakeConfig，
// 其 Generator 也是同一个，因此不会出现两个生成器共用 WorkerID 的情况。
func (a *SnowflakeAPI) Config(ctx context.Context) (*SnowflakeConfig, error) {
	if a.key == "" {
		return nil, xerrors.WithCode(xerrors.ErrInvalidInput, "key_empty")
	}
	if a.c.cache == nil {
		return a.fetch(ctx)
	}
	return a.c.cache.Get(ctx, a.key, otter.LoaderFunc[string, *SnowflakeConfig](
		func(ctx context.Context, _ string) (*SnowflakeConfig, error) {
			return a.fetch(ctx)
		},
	))
}

func (a *SnowflakeAPI) fetch(ctx context.Context) (*SnowflakeConfig, error) {
	cfg, err := get[SnowflakeConfig](ctx, a.c, "snowflake", a.key, 0)
	if err != nil {
		return nil, err
	}
	cfg.key = a.key
	return cfg, nil
}

// SnowflakeConfig 服务端下发的 Snowflake 参数
type SnowflakeConfig struct {
	WorkerID     int64 `json:"worker_id"`
	Epoch        int64 `json:"epoch"`
	WorkerBits   uint8 `json:"worker_bits"`
	SequenceBits uint8 `json:"sequence_bits"`

	key  string
	once sync.Once
	gen  *idgen.Snowflake
	err  error
}

// Key 返回配置对应的 key
func (s *SnowflakeConfig) Key() string {
	return s.key
}

// Layout 校验并转换为 idgen.Layout
func (s *SnowflakeConfig) Layout() (*idgen.Layout, error) {
	return idgen.NewLayout(s.Epoch, s.WorkerID, s.WorkerBits, s.SequenceBits)
}

// Generator 基于该配置构建本地生成器
//
// 多次调用返回同一个生成器，opts 只在第一次调用时生效。
func (s *SnowflakeConfig) Generator(opts ...idgen.Option) (*idgen.Snowflake, error) {
	s.once.Do(func() {
		layout, err := s.Layout()
		if err != nil {
			s.err = err
			return
		}
		s.gen, s.err = idgen.NewSnowflake(layout, opts...)
	})
	return s.gen, s.err
}

// ========================================
// Increment
// ========================================

type idsResponse[T any] struct {
	IDs []T `json:"ids"`
}

// IncrementAPI 服务端自增 ID
type IncrementAPI struct {
	c   *Client
	key string
}

// Generate 生成 count 个自增 ID，count 范围 [1, MaxBatchSize]
func (a *IncrementAPI) Generate(ctx context.Context, count int) ([]int64, error) {
	return generate[int64](ctx, a.c, "increment", a.key, count)
}

// GenerateOne 生成一个自增 ID
func (a *IncrementAPI) GenerateOne(ctx context.Context) (int64, error) {
	return first(a.Generate(ctx, 1))
}

// ========================================
// Formatted
// ========================================

// FormattedAPI 服务端格式化字符串 ID
type FormattedAPI struct {
	c   *Client
	key string
}

// Generate 生成 count 个格式化 ID，count 范围 [1, MaxBatchSize]
func (a *FormattedAPI) Generate(ctx context.Context, count int) ([]string, error) {
	return generate[string](ctx, a.c, "formatted", a.key, count)
}

// GenerateOne 生成一个格式化 ID
func (a *FormattedAPI) GenerateOne(ctx context.Context) (string, error) {
	return first(a.Generate(ctx, 1))
}

func generate[T any](ctx context.Context, c *Client, endpoint, key string, count int) ([]T, error) {
	if key == "" {
		return nil, xerrors.WithCode(xerrors.ErrInvalidInput, "key_empty")
	}
	if count < 1 || count > MaxBatchSize {
		return nil, xerrors.WithCode(
			xerrors.Wrapf(xerrors.ErrInvalidInput, "count %d not in [1, %d]", count, MaxBatchSize),
			"count_out_of_range",
		)
	}
	resp, err := get[idsResponse[T]](ctx, c, endpoint, key, count)
	if err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

func first[T any](ids []T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(ids) == 0 {
		return zero, &APIError{Status: 200, Message: "no ids returned"}
	}
	return ids[0], nil
}
