package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igserve/pkg/config"
	"igserve/pkg/logger"
)

func TestServerGracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := config.DefaultConfig().Server
	cfg.ShutdownTimeout = 5 * time.Second
	srv := New(&cfg, newTestRouter(nil, nil), logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerRunListenError(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.Port = "not-a-port"
	srv := New(&cfg, http.NotFoundHandler(), logger.NewTestLogger())

	err := srv.Run(context.Background())
	assert.Error(t, err)
}
