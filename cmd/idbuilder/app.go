package main

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/idbuilder/client"
	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/config"
	"github.com/ceyewan/idbuilder/idgen"
	"github.com/ceyewan/idbuilder/idgen/allocator"
	"github.com/ceyewan/idbuilder/metrics"
	"github.com/ceyewan/idbuilder/xerrors"
)

// AppConfig 命令行工具的完整配置
type AppConfig struct {
	Log       clog.Config      `mapstructure:"log"`
	Metrics   metrics.Config   `mapstructure:"metrics"`
	Snowflake idgen.Config     `mapstructure:"snowflake"`
	Allocator allocator.Config `mapstructure:"allocator"`
	Client    client.Config    `mapstructure:"client"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Etcd      EtcdConfig       `mapstructure:"etcd"`
}

// RedisConfig allocator 使用的 Redis 连接配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EtcdConfig allocator 使用的 Etcd 连接配置
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// app 一次命令执行所需的组件
type app struct {
	cfg    AppConfig
	logger clog.Logger
	meter  metrics.Meter

	closers []func()
}

// globalFlags 根命令的持久化参数
type globalFlags struct {
	configFile string
	logLevel   string
}

func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	loader, err := config.New(&config.Config{File: flags.configFile})
	if err != nil {
		return nil, err
	}
	if err := loader.Load(ctx); err != nil {
		return nil, xerrors.Wrap(err, "load config")
	}

	// 标准输出留给 ID，日志默认写 stderr
	a := &app{cfg: AppConfig{Log: clog.Config{Level: "warn", Output: "stderr"}}}
	if err := loader.Unmarshal(&a.cfg); err != nil {
		return nil, xerrors.WithCode(xerrors.Wrap(err, "unmarshal config"), "config_invalid")
	}
	if flags.logLevel != "" {
		a.cfg.Log.Level = flags.logLevel
	}

	a.logger, err = clog.New(&a.cfg.Log, clog.WithNamespace("idbuilder"))
	if err != nil {
		return nil, xerrors.Wrap(err, "create logger")
	}

	a.meter, err = metrics.New(&a.cfg.Metrics, metrics.WithLogger(a.logger))
	if err != nil {
		return nil, xerrors.Wrap(err, "create meter")
	}
	a.onClose(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.meter.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("meter shutdown failed", clog.Error(err))
		}
	})

	return a, nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close 按注册的逆序释放资源
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.logger.Flush()
}

// client 创建远程服务客户端
func (a *app) client() (*client.Client, error) {
	c, err := client.New(&a.cfg.Client, client.WithLogger(a.logger), client.WithMeter(a.meter))
	if err != nil {
		return nil, err
	}
	a.onClose(c.Close)
	return c, nil
}

// localGenerator 基于配置文件创建生成器，必要时通过 allocator 分配 WorkerID
func (a *app) localGenerator(ctx context.Context) (*idgen.Snowflake, error) {
	sfCfg := a.cfg.Snowflake
	if a.cfg.Allocator.Driver != "" && a.cfg.Allocator.Driver != allocator.DriverStatic {
		workerID, err := a.allocateWorkerID(ctx, &sfCfg)
		if err != nil {
			return nil, err
		}
		sfCfg.WorkerID = workerID
	}
	return idgen.New(&sfCfg, idgen.WithLogger(a.logger), idgen.WithMeter(a.meter))
}

// remoteGenerator 向服务端获取参数后创建生成器
func (a *app) remoteGenerator(ctx context.Context, key string) (*idgen.Snowflake, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	sfCfg, err := c.Snowflake(key).Config(ctx)
	if err != nil {
		return nil, err
	}
	return sfCfg.Generator(idgen.WithLogger(a.logger), idgen.WithMeter(a.meter))
}

// layout 返回拆解 ID 所需的位布局：key 非空时取服务端参数，否则取本地配置
//
// 拆解只依赖位布局，因此本地模式不经过 allocator，不会抢占 WorkerID。
func (a *app) layout(ctx context.Context, key string) (*idgen.Layout, error) {
	if key == "" {
		sfCfg := a.cfg.Snowflake
		return sfCfg.ResolveLayout()
	}
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	sfCfg, err := c.Snowflake(key).Config(ctx)
	if err != nil {
		return nil, err
	}
	return sfCfg.Layout()
}

func (a *app) allocateWorkerID(ctx context.Context, sfCfg *idgen.Config) (int64, error) {
	bits := sfCfg.WorkerIDBits
	if bits == 0 && sfCfg.SequenceBits == 0 {
		bits = idgen.DefaultWorkerIDBits
	}
	allocCfg := a.cfg.Allocator
	if allocCfg.MaxID == 0 {
		allocCfg.MaxID = 1 << bits
	}

	opts := []allocator.Option{allocator.WithLogger(a.logger)}
	switch allocCfg.Driver {
	case allocator.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.onClose(func() { _ = rdb.Close() })
		opts = append(opts, allocator.WithRedisClient(rdb))
	case allocator.DriverEtcd:
		timeout := a.cfg.Etcd.DialTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		cli, err := clientv3.New(clientv3.Config{Endpoints: a.cfg.Etcd.Endpoints, DialTimeout: timeout})
		if err != nil {
			return 0, xerrors.Wrapf(err, "connect etcd %s", strings.Join(a.cfg.Etcd.Endpoints, ","))
		}
		a.onClose(func() { _ = cli.Close() })
		opts = append(opts, allocator.WithEtcdClient(cli))
	}

	alloc, err := allocator.New(&allocCfg, opts...)
	if err != nil {
		return 0, err
	}
	workerID, err := alloc.Allocate(ctx)
	if err != nil {
		return 0, err
	}
	a.onClose(alloc.Stop)
	return workerID, nil
}
