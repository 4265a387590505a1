package idgen

import "github.com/ceyewan/idbuilder/xerrors"

var (
	// ErrInvalidBitLayout 位宽分配无效（配置期错误，不可重试）
	ErrInvalidBitLayout = xerrors.New("idgen: invalid bit layout")

	// ErrInvalidWorkerID WorkerID 超出位宽允许的范围（配置期错误，不可重试）
	ErrInvalidWorkerID = xerrors.New("idgen: invalid worker id")

	// ErrClockMovedBackwards 时钟回拨，当前时间早于上次发号时间
	ErrClockMovedBackwards = xerrors.New("idgen: clock moved backwards")

	// ErrSequenceExhausted 当前毫秒序列号耗尽且等待超出预算，仅 PolicyFail 下返回
	ErrSequenceExhausted = xerrors.New("idgen: sequence exhausted")

	// ErrTimestampOverflow 当前时间早于纪元，或超出时间戳位宽可表示的范围
	ErrTimestampOverflow = xerrors.New("idgen: timestamp overflow")

	// ErrInvalidInput 无效的输入
	ErrInvalidInput = xerrors.New("idgen: invalid input")
)
