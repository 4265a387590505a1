package allocator

import "github.com/ceyewan/idbuilder/xerrors"

// 支持的驱动
const (
	DriverStatic = "static"
	DriverIP     = "ip"
	DriverRedis  = "redis"
	DriverEtcd   = "etcd"
)

// Config WorkerID 分配器配置
type Config struct {
	// Driver 分配方式: "static" | "ip" | "redis" | "etcd"，默认 "static"
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"`

	// WorkerID Driver 为 "static" 时使用
	WorkerID int64 `mapstructure:"worker_id" yaml:"worker_id" json:"worker_id"`

	// KeyPrefix Redis/Etcd 键前缀，默认 "idbuilder:worker"
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix" json:"key_prefix"`

	// MaxID 可分配范围 [0, MaxID)，应等于 2^worker_id_bits，默认 1024
	MaxID int `mapstructure:"max_id" yaml:"max_id" json:"max_id"`

	// TTL 租约 TTL（秒），默认 30
	TTL int `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = DriverStatic
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "idbuilder:worker"
	}
	if c.MaxID <= 0 {
		c.MaxID = 1024
	}
	if c.TTL <= 0 {
		c.TTL = 30
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverStatic, DriverIP, DriverRedis, DriverEtcd:
	default:
		return xerrors.WithCode(ErrInvalidInput, "unsupported_driver")
	}
	if c.Driver == DriverStatic && (c.WorkerID < 0 || c.WorkerID >= int64(c.MaxID)) {
		return xerrors.WithCode(ErrInvalidInput, "worker_id_out_of_range")
	}
	if c.TTL < 3 {
		return xerrors.WithCode(ErrInvalidInput, "ttl_too_short")
	}
	return nil
}
