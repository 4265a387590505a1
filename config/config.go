package config

import (
	"context"
	"strings"

	"github.com/ceyewan/idbuilder/clog"
)

// Config 加载器配置
type Config struct {
	Name      string   // 配置文件名称（不含扩展名），默认 "idbuilder"
	Paths     []string // 配置文件搜索路径，默认 [".", "./config"]
	File      string   // 显式指定的配置文件路径，设置后忽略 Name/Paths
	FileType  string   // 配置文件类型 (yaml, json, etc.)，默认 yaml
	EnvPrefix string   // 环境变量前缀，默认 "IDBUILDER"
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "idbuilder"
	}
	if c.Paths == nil {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "IDBUILDER"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
}

// Option 加载器选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 设置 Logger，加载过程中的提示信息会写入该 Logger
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("config")
		}
	}
}

// New 创建配置加载器，cfg 为 nil 时使用默认配置。
func New(cfg *Config, opts ...Option) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	return newLoader(cfg, o.logger), nil
}

// MustLoad 创建并加载配置，失败时 panic，仅用于程序启动阶段
func MustLoad(cfg *Config, opts ...Option) Loader {
	l, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	if err := l.Load(context.Background()); err != nil {
		panic(err)
	}
	return l
}
