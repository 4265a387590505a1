package xerrors

import "fmt"

// CodedError 附带 snake_case 错误码的错误
//
// 错误码面向日志与调用方的分支判断，例如 "worker_id_out_of_range"、
// "clock_moved_backwards"。Error() 输出形如 "[code] cause"。
type CodedError struct {
	Code  string
	Cause error
}

// WithCode 为 err 附加错误码，err 为 nil 时返回 nil
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Cause: err}
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return "[" + e.Code + "]"
	}
	return fmt.Sprintf("[%s] %v", e.Code, e.Cause)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// GetCode 返回错误链上最外层的错误码，没有时返回空字符串
func GetCode(err error) string {
	var coded *CodedError
	if As(err, &coded) {
		return coded.Code
	}
	return ""
}

// HasCode 报告错误链上是否存在指定错误码，包括被外层错误码覆盖的内层错误码
func HasCode(err error, code string) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *CodedError:
		if e.Code == code {
			return true
		}
		return HasCode(e.Cause, code)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
		return false
	default:
		return HasCode(Unwrap(err), code)
	}
}
