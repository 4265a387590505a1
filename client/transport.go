package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/xerrors"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-Id"

	// maxBodySize 响应体读取上限
	maxBodySize = 4 << 20
)

// envelope 服务端统一响应格式，code 为 0 表示成功
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

// get 请求 endpoint 并解析 data 字段，含限流、熔断、重试与指标
func get[T any](ctx context.Context, c *Client, endpoint, key string, size int) (*T, error) {
	start := time.Now()
	data, err := doGet[T](ctx, c, endpoint, key, size)
	c.m.observe(endpoint, start, err)
	if err != nil {
		c.logger.Warn("request failed",
			clog.String("endpoint", endpoint),
			clog.String("key", key),
			clog.Duration("elapsed", time.Since(start)),
			clog.ErrorWithCode(err, xerrors.GetCode(err)),
		)
	}
	return data, err
}

func doGet[T any](ctx context.Context, c *Client, endpoint, key string, size int) (*T, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("key", key)
	if size > 0 {
		query.Set("size", strconv.Itoa(size))
	}
	target := c.cfg.BaseURL + "/v1/id/" + endpoint + "?" + query.Encode()

	op := func() (*T, error) {
		var body []byte
		_, err := c.breaker.Execute(func() (struct{}, error) {
			var err error
			body, err = c.once(ctx, target, key)
			return struct{}{}, err
		})
		switch {
		case err == nil:
			data, err := decode[T](body)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			return data, nil
		case xerrors.Is(err, gobreaker.ErrOpenState), xerrors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, backoff.Permanent(xerrors.WithCode(xerrors.Wrap(ErrCircuitOpen, err.Error()), "circuit_open"))
		case serverFailure(err):
			return nil, err
		default:
			return nil, backoff.Permanent(err)
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = backoffInitial
	b.MaxInterval = backoffMax

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.cfg.Retries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("retrying request",
				clog.String("endpoint", endpoint),
				clog.Duration("backoff", next),
				clog.Error(err),
			)
		}),
	)
}

// once 发出一次 HTTP 请求，返回 200 响应体，其他状态码映射为错误
func (c *Client) once(ctx context.Context, target, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, xerrors.WithCode(xerrors.Wrap(err, "build request"), "invalid_request")
	}
	requestID := newRequestID()
	if c.cfg.KeyToken != "" {
		req.Header.Set(headerAuthorization, c.cfg.KeyToken)
	}
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, xerrors.Wrap(ctx.Err(), "request canceled")
		}
		return nil, xerrors.Wrapf(xerrors.Join(xerrors.ErrUnavailable, err), "request %s", requestID)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, xerrors.Wrapf(xerrors.Join(xerrors.ErrUnavailable, err), "read response %s", requestID)
	}

	c.logger.Debug("response received",
		clog.String("request_id", requestID),
		clog.String("url", target),
		clog.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	return nil, statusError(resp.StatusCode, body, key)
}

// statusError 将非 200 响应映射为错误
func statusError(status int, body []byte, key string) error {
	switch status {
	case http.StatusUnauthorized:
		return xerrors.WithCode(ErrUnauthorized, "unauthorized")
	case http.StatusForbidden:
		return xerrors.WithCode(ErrForbidden, "forbidden")
	case http.StatusNotFound:
		return xerrors.WithCode(xerrors.Wrapf(ErrConfigNotFound, "key %q", key), "config_not_found")
	case http.StatusTooManyRequests:
		return xerrors.WithCode(ErrRateLimited, "rate_limited")
	}

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		env = envelope[json.RawMessage]{Code: status, Message: string(body)}
	}
	if strings.Contains(strings.ToLower(env.Message), "exhausted") {
		return xerrors.WithCode(xerrors.Wrapf(ErrSequenceExhausted, "key %q", key), "sequence_exhausted")
	}
	return &APIError{Status: status, Code: env.Code, Message: env.Message}
}

// decode 解析 200 响应体
func decode[T any](body []byte) (*T, error) {
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, xerrors.WithCode(xerrors.Wrap(err, "decode response"), "invalid_response")
	}
	if env.Code != 0 {
		return nil, &APIError{Status: http.StatusOK, Code: env.Code, Message: env.Message}
	}
	if env.Data == nil {
		return nil, &APIError{Status: http.StatusOK, Code: env.Code, Message: "response data is missing"}
	}
	return env.Data, nil
}

// newRequestID 生成时间有序的请求 ID，便于服务端日志排查
func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
