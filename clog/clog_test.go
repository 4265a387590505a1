package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withBuffer 将日志输出写入指定缓冲区，仅测试使用
func withBuffer(buf *bytes.Buffer) Option {
	return func(o *options) {
		o.writer = buf
	}
}

func newBufferLogger(t *testing.T, level string, opts ...Option) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(&Config{
		Level:  level,
		Format: "json",
		Output: "buffer",
	}, append(opts, withBuffer(&buf))...)
	require.NoError(t, err)
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config", config: nil},
		{name: "console", config: &Config{Level: "info", Format: "console", Output: "stdout"}},
		{name: "json stderr", config: &Config{Level: "debug", Format: "json", Output: "stderr"}},
		{name: "invalid level", config: &Config{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: &Config{Format: "xml"}, wantErr: true},
		{name: "buffer without writer", config: &Config{Output: "buffer"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.validate())
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newBufferLogger(t, "debug")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 4)
	for i, want := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		assert.Equal(t, want, entries[i]["level"])
	}
}

func TestLoggerSetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Debug("dropped")
	logger.Info("kept")
	require.NoError(t, logger.SetLevel(DebugLevel))
	logger.Debug("kept after set")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "kept after set", entries[1]["msg"])
}

func TestLoggerFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "debug")

	logger.Info("id generated",
		String("key", "order-id"),
		Int("count", 3),
		Int64("worker_id", 7),
		Uint64("sequence", 2),
		Bool("cached", true),
		Error(errors.New("boom")),
		Error(nil),
	)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "order-id", entry["key"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, float64(7), entry["worker_id"])
	assert.Equal(t, float64(2), entry["sequence"])
	assert.Equal(t, true, entry["cached"])
	assert.Equal(t, "boom", entry["err_msg"])
	_, hasEmpty := entry[""]
	assert.False(t, hasEmpty)
}

func TestErrorWithCode(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Error("next id failed", ErrorWithCode(errors.New("clock moved backwards"), "clock_moved_backwards"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	group, ok := entries[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "clock moved backwards", group["msg"])
	assert.Equal(t, "clock_moved_backwards", group["code"])
}

func TestLoggerWithNamespace(t *testing.T) {
	logger, buf := newBufferLogger(t, "info", WithNamespace("idbuilder"))

	logger.WithNamespace("idgen").Info("created")
	logger.Info("root")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "idbuilder.idgen", entries[0][NamespaceKey])
	assert.Equal(t, "idbuilder", entries[1][NamespaceKey])
}

func TestLoggerWith_DoesNotMutateSiblings(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	base := logger.With(String("component", "client"))
	a := base.With(String("key", "a"))
	b := base.With(String("key", "b"))
	a.Info("first")
	b.Info("second")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0]["key"])
	assert.Equal(t, "b", entries[1]["key"])
	assert.Equal(t, "client", entries[1]["component"])
}

type ctxKey string

func TestLoggerContextFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "info", WithContextField(ctxKey("request_id"), "request_id"))

	ctx := context.WithValue(context.Background(), ctxKey("request_id"), "req-1")
	logger.InfoContext(ctx, "request sent")
	logger.InfoContext(context.Background(), "no request")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0]["request_id"])
	assert.NotContains(t, entries[1], "request_id")
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "Warn", "error", "fatal"} {
		level, err := ParseLevel(s)
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(s), level.String())
	}

	level, err := ParseLevel("trace")
	assert.Error(t, err)
	assert.Equal(t, InfoLevel, level)
	assert.Equal(t, "level(42)", Level(42).String())
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("nothing")
	assert.NotNil(t, logger.With(String("k", "v")))
	assert.NotNil(t, logger.WithNamespace("x"))
	assert.NoError(t, logger.SetLevel(DebugLevel))
	logger.Flush()
}

func TestTrimSourcePath(t *testing.T) {
	assert.Equal(t, "idgen/snowflake.go", trimSourcePath("/src/app/idgen/snowflake.go", "/src/app"))
	assert.Equal(t, "idbuilder/idgen/snowflake.go", trimSourcePath("/go/pkg/idbuilder/idgen/snowflake.go", ""))
	assert.Equal(t, "/other/file.go", trimSourcePath("/other/file.go", "/src/app"))
}
