package idgen

import "github.com/ceyewan/idbuilder/xerrors"

// Handle 生成器的共享句柄
//
// Handle 是值类型，可以自由拷贝并传递给多个调用方，所有拷贝驱动同一个逻辑
// 生成器，共享同一份发号状态。句柄须通过 Snowflake.Handle 获取；零值 Handle
// 的 NextID/NextIDs 返回 ErrInvalidInput（错误码 handle_invalid）。
type Handle struct {
	s *Snowflake
}

// NextID 见 Snowflake.NextID
func (h Handle) NextID() (int64, error) {
	if h.s == nil {
		return 0, errInvalidHandle()
	}
	return h.s.NextID()
}

// NextIDs 见 Snowflake.NextIDs
func (h Handle) NextIDs(n int) ([]int64, error) {
	if h.s == nil {
		return nil, errInvalidHandle()
	}
	return h.s.NextIDs(n)
}

// Decompose 见 Snowflake.Decompose，零值 Handle 只填充 ID
func (h Handle) Decompose(id int64) Parts {
	if h.s == nil {
		return Parts{ID: id}
	}
	return h.s.Decompose(id)
}

// Layout 见 Snowflake.Layout，零值 Handle 返回 nil
func (h Handle) Layout() *Layout {
	if h.s == nil {
		return nil
	}
	return h.s.Layout()
}

// Valid 报告句柄是否指向一个生成器
func (h Handle) Valid() bool {
	return h.s != nil
}

func errInvalidHandle() error {
	return xerrors.WithCode(xerrors.Wrap(ErrInvalidInput, "handle is not bound to a generator"), "handle_invalid")
}
