package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_Disabled(t *testing.T) {
	meter, err := New(&Config{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, noopMeter{}, meter)

	ctx := context.Background()
	c, err := meter.Counter("noop_total", "noop")
	require.NoError(t, err)
	c.Inc(ctx)
	c.Add(ctx, 3)
	assert.NoError(t, meter.Shutdown(ctx))
}

func TestNew_Enabled(t *testing.T) {
	cfg := &Config{Enabled: true, Version: "test"}
	meter, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "idbuilder", cfg.ServiceName)
	assert.Equal(t, "/metrics", cfg.Path)

	ctx := context.Background()
	defer func() { assert.NoError(t, meter.Shutdown(ctx)) }()

	counter, err := meter.Counter("idgen_test_generated_total", "generated ids")
	require.NoError(t, err)
	counter.Inc(ctx, L("worker_id", "7"))
	counter.Add(ctx, 5, L("worker_id", "7"))
	counter.Add(ctx, -1)

	gauge, err := meter.Gauge("idgen_test_inflight", "in flight batches")
	require.NoError(t, err)
	gauge.Set(ctx, 2)
	gauge.Inc(ctx)
	gauge.Dec(ctx)

	hist, err := meter.Histogram("idgen_test_wait_seconds", "wait time",
		WithUnit("s"),
		WithBuckets([]float64{0.001, 0.01, 0.1}),
	)
	require.NoError(t, err)
	hist.Record(ctx, 0.002)
}

func TestGaugeTracksValuesPerLabelSet(t *testing.T) {
	meter, err := New(&Config{Enabled: true})
	require.NoError(t, err)
	ctx := context.Background()
	defer meter.Shutdown(ctx)

	g, err := meter.Gauge("idgen_test_gauge", "gauge")
	require.NoError(t, err)
	impl := g.(*gaugeImpl)

	g.Inc(ctx, L("key", "a"))
	g.Inc(ctx, L("key", "a"))
	g.Dec(ctx, L("key", "b"))
	g.Set(ctx, 10)

	assert.Equal(t, 2.0, impl.values[labelKey([]Label{L("key", "a")})])
	assert.Equal(t, -1.0, impl.values[labelKey([]Label{L("key", "b")})])
	assert.Equal(t, 10.0, impl.values[""])
}

func TestMetricOptions(t *testing.T) {
	buckets := []float64{1, 2}
	o := applyMetricOptions([]MetricOption{WithUnit("ms"), WithBuckets(buckets)})
	buckets[0] = 100

	assert.Equal(t, "ms", o.Unit)
	assert.Equal(t, []float64{1, 2}, o.Buckets)
}

func TestHelpers(t *testing.T) {
	assert.Nil(t, toAttributes(nil))
	attrs := toAttributes([]Label{L("a", "1"), L("b", "2")})
	require.Len(t, attrs, 2)
	assert.Equal(t, "a", string(attrs[0].Key))
	assert.Equal(t, "2", attrs[1].Value.AsString())

	assert.Equal(t, "", labelKey(nil))
	assert.Equal(t, "a=1|b=2", labelKey([]Label{L("a", "1"), L("b", "2")}))
}

func TestMust(t *testing.T) {
	assert.NotNil(t, Must(&Config{}))
	assert.Panics(t, func() { Must(nil) })
}
