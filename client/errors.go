package client

import (
	"fmt"

	"github.com/ceyewan/idbuilder/xerrors"
)

var (
	// ErrInvalidConfig 客户端配置无效
	ErrInvalidConfig = xerrors.New("client: invalid config")

	// ErrUnauthorized 令牌缺失或无效 (401)
	ErrUnauthorized = xerrors.New("client: unauthorized")

	// ErrForbidden 令牌无权访问该 key (403)
	ErrForbidden = xerrors.New("client: forbidden")

	// ErrConfigNotFound key 对应的配置不存在 (404)
	ErrConfigNotFound = xerrors.New("client: config not found")

	// ErrRateLimited 服务端限流 (429)
	ErrRateLimited = xerrors.New("client: rate limited")

	// ErrSequenceExhausted 服务端序列已耗尽
	ErrSequenceExhausted = xerrors.New("client: sequence exhausted")

	// ErrCircuitOpen 熔断器打开，请求未发出
	ErrCircuitOpen = xerrors.New("client: circuit breaker open")
)

// APIError 服务端返回的业务错误
type APIError struct {
	// Status HTTP 状态码
	Status int
	// Code 响应体中的业务码
	Code int
	// Message 响应体中的错误信息
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: api error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

// serverFailure 报告错误是否来自传输层或服务端 5xx，此类错误可重试并计入熔断
func serverFailure(err error) bool {
	if xerrors.Is(err, xerrors.ErrUnavailable) {
		return true
	}
	var apiErr *APIError
	return xerrors.As(err, &apiErr) && apiErr.Status >= 500
}
