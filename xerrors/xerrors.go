// Package xerrors 提供 idbuilder 统一的错误处理工具。
//
// 约定：
//   - 组件使用 xerrors.New 定义哨兵错误，调用方使用 xerrors.Is 判断
//   - 对外返回的错误通过 WithCode 附加机器可读的 snake_case 错误码
//   - 上下文信息通过 Wrap / Wrapf 追加，保留错误链
//
// 示例：
//
//	err := xerrors.WithCode(
//	    xerrors.Wrapf(ErrClockMovedBackwards, "drift %v", drift),
//	    "clock_moved_backwards",
//	)
//	xerrors.Is(err, ErrClockMovedBackwards)   // true
//	xerrors.GetCode(err)                      // "clock_moved_backwards"
package xerrors

import (
	"errors"
	"fmt"
)

// 跨组件共享的哨兵错误，组件自身的错误定义在各自包内
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrTimeout      = errors.New("timeout")

	// ErrUnavailable 远端不可达或返回 5xx，client 据此判断是否重试
	ErrUnavailable = errors.New("unavailable")
)

// 标准库函数再导出，调用方只需引入 xerrors
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Wrap 在 err 前追加 msg，err 为 nil 时返回 nil
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 同 Wrap，msg 由 format 和 args 生成
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Must 在 err 不为 nil 时 panic，仅用于程序启动阶段
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}
