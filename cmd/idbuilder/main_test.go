package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/idbuilder/idgen"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

const localConfig = `
log:
  level: error
snowflake:
  epoch_millis: 1704067200000
  worker_id_bits: 10
  sequence_bits: 12
  worker_id: 5
`

func TestSnowflakeNext(t *testing.T) {
	path := writeConfig(t, localConfig)

	out, err := run(t, "--config", path, "snowflake", "next", "-n", "3")
	require.NoError(t, err)

	layout, err := idgen.NewLayout(1704067200000, 5, 10, 12)
	require.NoError(t, err)

	var prev int64
	got := lines(out)
	require.Len(t, got, 3)
	for _, line := range got {
		id, err := strconv.ParseInt(line, 10, 64)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		_, worker, _ := layout.Decompose(id)
		assert.Equal(t, int64(5), worker)
		prev = id
	}
}

func TestSnowflakeNext_InvalidCount(t *testing.T) {
	_, err := run(t, "--config", writeConfig(t, localConfig), "snowflake", "next", "-n", "0")
	assert.Error(t, err)
}

func TestSnowflakeDecompose(t *testing.T) {
	path := writeConfig(t, localConfig)
	layout, err := idgen.NewLayout(1704067200000, 5, 10, 12)
	require.NoError(t, err)
	id := layout.Compose(1000, 5, 9)

	out, err := run(t, "--config", path, "snowflake", "decompose", "--json", strconv.FormatInt(id, 10))
	require.NoError(t, err)

	var parts idgen.Parts
	require.NoError(t, json.Unmarshal([]byte(out), &parts))
	assert.Equal(t, id, parts.ID)
	assert.Equal(t, int64(1000), parts.TimestampOffset)
	assert.Equal(t, int64(5), parts.WorkerID)
	assert.Equal(t, int64(9), parts.Sequence)

	out, err = run(t, "--config", path, "snowflake", "decompose", strconv.FormatInt(id, 10))
	require.NoError(t, err)
	assert.Contains(t, out, "worker_id=5 sequence=9")
	assert.Contains(t, out, "time=2024-01-01T00:00:01Z")

	_, err = run(t, "--config", path, "snowflake", "decompose", "not-a-number")
	assert.Error(t, err)
}

func TestSnowflakeDecompose_SkipsAllocator(t *testing.T) {
	// redis 地址不可达：decompose 只需要位布局，不应尝试分配 WorkerID
	path := writeConfig(t, localConfig+`
allocator:
  driver: redis
redis:
  addr: "127.0.0.1:1"
`)
	layout, err := idgen.NewLayout(1704067200000, 3, 10, 12)
	require.NoError(t, err)
	id := layout.Compose(42, 3, 1)

	out, err := run(t, "--config", path, "snowflake", "decompose", strconv.FormatInt(id, 10))
	require.NoError(t, err)
	assert.Contains(t, out, "timestamp_offset=42 worker_id=3 sequence=1")

	_, err = run(t, "--config", path, "snowflake", "next")
	assert.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "snowflake", "next")
	assert.Error(t, err)
}

func newFakeService(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/id/snowflake", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "ok", "data": gin.H{
			"worker_id": 11, "epoch": 1704067200000, "worker_bits": 8, "sequence_bits": 10,
		}})
	})
	r.GET("/v1/id/increment", func(c *gin.Context) {
		n, _ := strconv.Atoi(c.Query("size"))
		ids := make([]int64, n)
		for i := range ids {
			ids[i] = int64(i + 1)
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "ok", "data": gin.H{"ids": ids}})
	})
	r.GET("/v1/id/formatted", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "ok", "data": gin.H{"ids": []string{"ORD-" + c.Query("key")}}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func remoteConfig(baseURL string) string {
	return fmt.Sprintf("log:\n  level: error\nclient:\n  base_url: %q\n  key_token: token\n", baseURL)
}

func TestRemoteCommands(t *testing.T) {
	srv := newFakeService(t)
	path := writeConfig(t, remoteConfig(srv.URL))

	out, err := run(t, "--config", path, "increment", "invoice", "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, lines(out))

	out, err = run(t, "--config", path, "formatted", "7")
	require.NoError(t, err)
	assert.Equal(t, "ORD-7", strings.TrimSpace(out))

	out, err = run(t, "--config", path, "snowflake", "next", "--from-server", "order")
	require.NoError(t, err)
	id, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	require.NoError(t, err)
	layout, err := idgen.NewLayout(1704067200000, 11, 8, 10)
	require.NoError(t, err)
	_, worker, _ := layout.Decompose(id)
	assert.Equal(t, int64(11), worker)
}

func TestRemoteCommands_NoBaseURL(t *testing.T) {
	_, err := run(t, "--config", writeConfig(t, "log:\n  level: error\n"), "increment", "invoice")
	assert.Error(t, err)
}
