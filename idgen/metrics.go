package idgen

import (
	"strconv"

	"github.com/ceyewan/idbuilder/metrics"
	"github.com/ceyewan/idbuilder/xerrors"
)

// Metrics 指标常量定义
const (
	// MetricSnowflakeGenerated 雪花算法 ID 生成总数 (Counter)
	MetricSnowflakeGenerated = "idgen_snowflake_generated_total"

	// MetricClockBackwards 时钟回拨次数 (Counter)
	MetricClockBackwards = "idgen_snowflake_clock_backwards_total"

	// MetricSequenceExhausted 序列号耗尽次数 (Counter)
	MetricSequenceExhausted = "idgen_snowflake_exhausted_total"

	// MetricWaitSeconds 序列号耗尽后等待下一毫秒的耗时 (Histogram)
	MetricWaitSeconds = "idgen_snowflake_wait_seconds"
)

var waitBuckets = []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.05}

type snowflakeMetrics struct {
	generated metrics.Counter
	backwards metrics.Counter
	exhausted metrics.Counter
	wait      metrics.Histogram
	labels    []metrics.Label
}

func newSnowflakeMetrics(meter metrics.Meter, workerID int64) (*snowflakeMetrics, error) {
	generated, err := meter.Counter(MetricSnowflakeGenerated, "Total number of snowflake ids generated")
	if err != nil {
		return nil, xerrors.Wrap(err, "create generated counter")
	}
	backwards, err := meter.Counter(MetricClockBackwards, "Total number of clock regressions observed")
	if err != nil {
		return nil, xerrors.Wrap(err, "create clock backwards counter")
	}
	exhausted, err := meter.Counter(MetricSequenceExhausted, "Total number of per-millisecond sequence exhaustions")
	if err != nil {
		return nil, xerrors.Wrap(err, "create exhausted counter")
	}
	wait, err := meter.Histogram(MetricWaitSeconds, "Time spent waiting for the next millisecond",
		metrics.WithUnit("s"),
		metrics.WithBuckets(waitBuckets),
	)
	if err != nil {
		return nil, xerrors.Wrap(err, "create wait histogram")
	}

	return &snowflakeMetrics{
		generated: generated,
		backwards: backwards,
		exhausted: exhausted,
		wait:      wait,
		labels:    []metrics.Label{metrics.L("worker_id", strconv.FormatInt(workerID, 10))},
	}, nil
}
