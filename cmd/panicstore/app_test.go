package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/panicstore/config"
	"github.com/c360/panicstore/keys"
	"github.com/c360/panicstore/storeclient"
	"github.com/c360/panicstore/testutil"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func testConfig(t *testing.T, mr *miniredis.Miniredis) *config.Config {
	t.Helper()
	host, portStr, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Store.Host = host
	cfg.Store.Port = port
	cfg.Store.HealthInterval = 0
	cfg.Store.SuperviseInterval = 50 * time.Millisecond
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Metrics.Enabled = false
	require.NoError(t, cfg.Validate())
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApp_ServesThroughStore(t *testing.T) {
	mr := miniredis.RunT(t)
	testutil.Seed(t, mr, map[string]string{keys.MonitorablesInfo("general"): `{"systems":["sys1"]}`})

	a, err := newApp(testConfig(t, mr), discardLogger(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.store.Close(context.Background()) })
	require.NoError(t, a.store.Connect(context.Background()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/server/redis/monitorablesInfo",
		strings.NewReader(`{"baseChains":["general"]}`))
	a.handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"result":{"general":{"systems":["sys1"]}}}`, rec.Body.String())
}

func TestNewApp_StoreHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	a, err := newApp(testConfig(t, mr), discardLogger(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.store.Close(context.Background()) })

	assert.True(t, a.storeHealth().IsUnhealthy())

	require.NoError(t, a.store.Connect(context.Background()))
	status := a.storeHealth()
	assert.True(t, status.IsHealthy())
	require.NotNil(t, status.Metrics)
	assert.Equal(t, int64(1), status.Metrics.Connects)
}

func TestNewApp_InvalidStoreTLS(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr)
	cfg.Security.TLS.Store.Enabled = true
	cfg.Security.TLS.Store.CAFiles = []string{"/nonexistent/ca.pem"}

	_, err := newApp(cfg, discardLogger(), time.Second)
	assert.Error(t, err)
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr)
	a, err := newApp(cfg, discardLogger(), 2*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()

	url := fmt.Sprintf("http://%s/server/health", cfg.Server.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var body struct {
			Status string `json:"status"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) != nil {
			return false
		}
		return resp.StatusCode == http.StatusOK && body.Status == "healthy"
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(fmt.Sprintf("http://%s/server/redis/alertsOverview", cfg.Server.Addr()),
		"application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.Equal(t, storeclient.StatusDisconnected, a.store.Status())
}

func TestRun_StartsWithoutStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr)
	mr.Close()

	a, err := newApp(cfg, discardLogger(), time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()

	url := fmt.Sprintf("http://%s/server/redis/monitorablesInfo", cfg.Server.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Post(url, "application/json", strings.NewReader(`{"baseChains":["cosmos"]}`))
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusServiceUnavailable
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer

	cfg, err := parseFlags([]string{"--log-level=debug", "--log-format", "text", "--validate"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.Validate)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)

	_, err = parseFlags([]string{"--log-level=loud"}, &stderr)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-c", "/nonexistent/config.yaml"}, &stderr)
	assert.Error(t, err)

	_, err = parseFlags([]string{"--shutdown-timeout=0s"}, &stderr)
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, appName, entry["service"])
	assert.Equal(t, Version, entry["version"])
	assert.NotContains(t, buf.String(), "hidden")
}
