package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "fetch snowflake config"))

	base := errors.New("connection refused")
	wrapped := Wrap(base, "fetch snowflake config")
	require.Error(t, wrapped)
	assert.Equal(t, "fetch snowflake config: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
}

func TestWrapf(t *testing.T) {
	assert.NoError(t, Wrapf(nil, "worker %d", 7))

	wrapped := Wrapf(ErrNotFound, "key %q", "order-id")
	assert.Equal(t, `key "order-id": not found`, wrapped.Error())
	assert.ErrorIs(t, wrapped, ErrNotFound)
}

func TestWithCode(t *testing.T) {
	assert.NoError(t, WithCode(nil, "clock_moved_backwards"))

	base := errors.New("idgen: clock moved backwards")
	coded := WithCode(base, "clock_moved_backwards")
	assert.Equal(t, "[clock_moved_backwards] idgen: clock moved backwards", coded.Error())
	assert.Equal(t, "clock_moved_backwards", GetCode(coded))

	// 外层包装不影响错误码提取
	wrapped := Wrap(coded, "next id")
	assert.Equal(t, "clock_moved_backwards", GetCode(wrapped))
	assert.ErrorIs(t, wrapped, base)

	assert.Empty(t, GetCode(base))
}

func TestCodedError_NilCause(t *testing.T) {
	err := &CodedError{Code: "empty"}
	assert.Equal(t, "[empty]", err.Error())
	assert.NoError(t, err.Unwrap())
}

func TestHasCode(t *testing.T) {
	inner := WithCode(ErrInvalidInput, "worker_id_out_of_range")
	outer := WithCode(Wrap(inner, "build layout"), "config_invalid")

	assert.Equal(t, "config_invalid", GetCode(outer))
	assert.True(t, HasCode(outer, "config_invalid"))
	assert.True(t, HasCode(outer, "worker_id_out_of_range"))
	assert.False(t, HasCode(outer, "timestamp_overflow"))
	assert.False(t, HasCode(nil, "config_invalid"))

	joined := Join(ErrUnavailable, WithCode(ErrTimeout, "read_timeout"))
	assert.True(t, HasCode(Wrap(joined, "request"), "read_timeout"))
}

func TestMust(t *testing.T) {
	assert.Equal(t, 42, Must(42, nil))
	assert.Panics(t, func() { Must(0, errors.New("boom")) })
}

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine())
	assert.NoError(t, Combine(nil, nil))

	err1 := errors.New("error 1")
	assert.Same(t, err1, Combine(nil, err1, nil))

	err2 := errors.New("error 2")
	combined := Combine(err1, err2)
	var multi *MultiError
	require.ErrorAs(t, combined, &multi)
	assert.Len(t, multi.Errors, 2)
	assert.ErrorIs(t, combined, err1)
	assert.ErrorIs(t, combined, err2)
	assert.Equal(t, "error 1; error 2", combined.Error())
}

func TestSentinelErrors(t *testing.T) {
	err := Wrap(ErrNotFound, "snowflake config")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrTimeout))
	assert.False(t, Is(err, ErrInvalidInput))
}
