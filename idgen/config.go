package idgen

import (
	"time"

	"github.com/ceyewan/idbuilder/xerrors"
)

// Config Snowflake 生成器的配置文件形式
//
// 典型配置（YAML）：
//
//	snowflake:
//	  epoch_millis: 1704067200000
//	  worker_id_bits: 10
//	  sequence_bits: 12
//	  worker_id: 7
//	  policy: "block"
//	  max_wait: "5ms"
//
// epoch_millis 为 0 视为未配置，使用 DefaultEpochMillis。需要以 Unix 纪元
// (1970-01-01) 为起点时设置 unix_epoch: true，或直接使用 NewLayout。
type Config struct {
	Layout `mapstructure:",squash" yaml:",inline"`

	// Policy 序列号耗尽策略: "block" | "fail"，默认 "block"
	Policy string `mapstructure:"policy" yaml:"policy" json:"policy"`

	// MaxWait Policy 为 "fail" 时等待时钟前进的最长时间
	MaxWait time.Duration `mapstructure:"max_wait" yaml:"max_wait" json:"max_wait"`

	// UnixEpoch 为 true 时纪元固定为 0，忽略 EpochMillis
	UnixEpoch bool `mapstructure:"unix_epoch" yaml:"unix_epoch" json:"unix_epoch"`
}

// setDefaults 仅在位宽与纪元均未配置时填充默认值
func (c *Config) setDefaults() {
	if c.WorkerIDBits == 0 && c.SequenceBits == 0 {
		c.WorkerIDBits = DefaultWorkerIDBits
		c.SequenceBits = DefaultSequenceBits
	}
	switch {
	case c.UnixEpoch:
		c.EpochMillis = 0
	case c.EpochMillis == 0:
		c.EpochMillis = DefaultEpochMillis
	}
	if c.Policy == "" {
		c.Policy = PolicyBlock.String()
	}
}

func (c *Config) validate() error {
	if c.MaxWait < 0 {
		return xerrors.WithCode(ErrInvalidInput, "max_wait_negative")
	}
	return c.Layout.Validate()
}

// ResolveLayout 填充默认值并校验，返回配置描述的 Layout，不创建生成器
//
// 仅需拆解 ID 时使用，避免为此分配 WorkerID。
func (c *Config) ResolveLayout() (*Layout, error) {
	if c == nil {
		return nil, xerrors.WithCode(ErrInvalidInput, "config_nil")
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	layout := c.Layout
	return &layout, nil
}

// New 根据配置创建 Snowflake 生成器，opts 中的策略选项优先于配置
func New(cfg *Config, opts ...Option) (*Snowflake, error) {
	layout, err := cfg.ResolveLayout()
	if err != nil {
		return nil, err
	}

	policy, err := ParseExhaustionPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	base := []Option{WithExhaustionPolicy(policy), WithMaxWait(cfg.MaxWait)}
	return NewSnowflake(layout, append(base, opts...)...)
}
