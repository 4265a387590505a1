package client

import (
	"context"
	"time"

	"github.com/ceyewan/idbuilder/metrics"
	"github.com/ceyewan/idbuilder/xerrors"
)

const (
	// MetricRequestsTotal 请求总数 (Counter)，标签 endpoint / result
	MetricRequestsTotal = "idbuilder_client_requests_total"

	// MetricRequestDuration 请求耗时 (Histogram)，含重试
	MetricRequestDuration = "idbuilder_client_request_duration_seconds"
)

type clientMetrics struct {
	requests metrics.Counter
	duration metrics.Histogram
}

func newClientMetrics(meter metrics.Meter) (*clientMetrics, error) {
	requests, err := meter.Counter(MetricRequestsTotal, "Total number of requests sent to the idbuilder service")
	if err != nil {
		return nil, xerrors.Wrap(err, "create requests counter")
	}
	duration, err := meter.Histogram(MetricRequestDuration, "Duration of requests to the idbuilder service",
		metrics.WithUnit("s"),
	)
	if err != nil {
		return nil, xerrors.Wrap(err, "create duration histogram")
	}
	return &clientMetrics{requests: requests, duration: duration}, nil
}

func (m *clientMetrics) observe(endpoint string, start time.Time, err error) {
	ctx := context.Background()
	labels := []metrics.Label{metrics.L("endpoint", endpoint), metrics.L("result", resultLabel(err))}
	m.requests.Inc(ctx, labels...)
	m.duration.Record(ctx, time.Since(start).Seconds(), labels...)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case xerrors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case xerrors.Is(err, ErrForbidden):
		return "forbidden"
	case xerrors.Is(err, ErrConfigNotFound):
		return "not_found"
	case xerrors.Is(err, ErrRateLimited):
		return "rate_limited"
	case xerrors.Is(err, ErrSequenceExhausted):
		return "exhausted"
	case xerrors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case serverFailure(err):
		return "unavailable"
	default:
		return "error"
	}
}
