package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, cs ...prometheus.Collector) *Server {
	t.Helper()

	reg, err := NewRegistry(cs...)
	require.NoError(t, err)

	server := New("127.0.0.1:0", reg, zerolog.Nop())
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_StartAndShutdown(t *testing.T) {
	server := New("127.0.0.1:0", prometheus.NewRegistry(), zerolog.Nop())
	assert.Empty(t, server.Addr())

	require.NoError(t, server.Start(context.Background()))
	assert.NotEmpty(t, server.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(ctx))
}

func TestServer_Metrics(t *testing.T) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "taskr_test_gauge", Help: "test"})
	g.Set(42)

	server := startServer(t, g)

	code, body := get(t, "http://"+server.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "taskr_test_gauge 42")
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_Pprof(t *testing.T) {
	server := startServer(t)

	code, _ := get(t, "http://"+server.Addr()+"/debug/pprof/")
	assert.Equal(t, http.StatusOK, code)
}

func TestNewRegistry_Duplicate(t *testing.T) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "dup", Help: "dup"})
	_, err := NewRegistry(g, g)
	assert.Error(t, err)
}
