package xerrors

import "strings"

// MultiError 多个独立失败的集合，例如关闭 Meter 时 HTTP 服务与 Provider 同时出错
type MultiError struct {
	Errors []error
}

// Error 以 "; " 连接所有错误信息
func (m *MultiError) Error() string {
	msgs := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Combine 合并 errs 中的非 nil 错误：全为 nil 时返回 nil，只有一个时原样返回
func Combine(errs ...error) error {
	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	switch len(failed) {
	case 0:
		return nil
	case 1:
		return failed[0]
	}
	return &MultiError{Errors: failed}
}
