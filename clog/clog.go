// Package clog 为 idbuilder 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 支持层级命名空间，每个组件派生自己的命名空间
//   - 支持从 Context 中提取字段（如 request_id）
//   - 支持运行时动态调整日志级别
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("snowflake generator created", clog.Int64("worker_id", 7))
//
// 组件内部统一派生命名空间：
//
//	logger = logger.WithNamespace("idgen")
package clog

import "fmt"

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用默认配置（info / console / stdout）。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = &Config{}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return newLogger(config, applyOptions(opts...))
}
