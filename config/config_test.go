package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/panicstore/errors"
	"github.com/c360/panicstore/pkg/retry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestLoader(env map[string]string) *Loader {
	l := NewLoader()
	l.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return l
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:6379", cfg.Store.Addr())
	assert.Equal(t, 10, cfg.Store.DB)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, ":9000", cfg.Server.Addr())
	assert.Equal(t, retry.DefaultPolicy(), cfg.Store.Retry.Policy())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := newTestLoader(nil).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLLayerOverridesOnlyPresentKeys(t *testing.T) {
	path := writeFile(t, "config.yaml", `
store:
  host: redis.internal
  retry:
    max_attempts: 5
    max_elapsed: 10m
server:
  gateway:
    request_timeout: 2s
log:
  level: debug
`)
	l := newTestLoader(nil)
	l.AddLayer(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal", cfg.Store.Host)
	assert.Equal(t, 6379, cfg.Store.Port)
	assert.Equal(t, 5, cfg.Store.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Store.Retry.MaxElapsed)
	assert.Equal(t, 100*time.Millisecond, cfg.Store.Retry.Step)
	assert.Equal(t, 2*time.Second, cfg.Server.Gateway.RequestTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_LayersApplyInOrder(t *testing.T) {
	base := writeFile(t, "base.json", `{"store":{"host":"base","db":3}}`)
	override := writeFile(t, "override.yml", "store:\n  host: override\n")

	l := newTestLoader(nil)
	l.AddLayer(base)
	l.AddLayer(override)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "override", cfg.Store.Host)
	assert.Equal(t, 3, cfg.Store.DB)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "store:\n  host: from-file\n  db: 2\n")
	l := newTestLoader(map[string]string{
		EnvRedisIP:       "10.0.0.5",
		EnvRedisPort:     "6380",
		EnvRedisDB:       "4",
		EnvRedisPassword: "secret",
		EnvDashboardPort: "9443",
		EnvMetricsPort:   "9191",
	})
	l.AddLayer(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5:6380", cfg.Store.Addr())
	assert.Equal(t, 4, cfg.Store.DB)
	assert.Equal(t, "secret", cfg.Store.Password)
	assert.Equal(t, 9443, cfg.Server.Port)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoad_EmptyEnvIgnored(t *testing.T) {
	cfg, err := newTestLoader(map[string]string{EnvRedisIP: "", EnvRedisDB: ""}).Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Store.Host)
	assert.Equal(t, 10, cfg.Store.DB)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv(EnvRedisDB, "7")
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Store.DB)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		env   map[string]string
	}{
		{name: "non-integer port", env: map[string]string{EnvRedisPort: "abc"}},
		{name: "null byte", env: map[string]string{EnvRedisDB: "1\x00"}},
		{name: "port out of range", env: map[string]string{EnvDashboardPort: "70000"}},
		{name: "unknown key", files: map[string]string{"c.yaml": "stor:\n  host: x\n"}},
		{name: "malformed yaml", files: map[string]string{"c.yaml": "store: [\n"}},
		{name: "bad duration", files: map[string]string{"c.yaml": "store:\n  connect_timeout: soon\n"}},
		{name: "wrong extension", files: map[string]string{"c.toml": "store = 1\n"}},
		{name: "invalid retry", files: map[string]string{"c.yaml": "store:\n  retry:\n    max_attempts: 0\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoader(tt.env)
			for name, content := range tt.files {
				l.AddLayer(writeFile(t, name, content))
			}
			_, err := l.Load()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err), "expected invalid error, got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	l := newTestLoader(nil)
	l.AddLayer(filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := l.Load()
	assert.Error(t, err)
}

func TestLoad_ValidationDisabled(t *testing.T) {
	l := newTestLoader(map[string]string{EnvRedisPort: "0"})
	l.EnableValidation(false)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Store.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty store host", func(c *Config) { c.Store.Host = "" }},
		{"negative db", func(c *Config) { c.Store.DB = -1 }},
		{"zero connect timeout", func(c *Config) { c.Store.ConnectTimeout = 0 }},
		{"negative health interval", func(c *Config) { c.Store.HealthInterval = -time.Second }},
		{"zero supervise interval", func(c *Config) { c.Store.SuperviseInterval = 0 }},
		{"metrics port clash", func(c *Config) { c.Metrics.Port = c.Server.Port }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"cors without origins", func(c *Config) { c.Server.Gateway.EnableCORS = true }},
		{"tls without cert", func(c *Config) { c.Security.TLS.Server.Enabled = true }},
		{"tls missing files", func(c *Config) {
			c.Security.TLS.Server.Enabled = true
			c.Security.TLS.Server.CertFile = "/nonexistent/cert.pem"
			c.Security.TLS.Server.KeyFile = "/nonexistent/key.pem"
		}},
		{"store cert without key", func(c *Config) {
			c.Security.TLS.Store.Enabled = true
			c.Security.TLS.Store.CertFile = "/nonexistent/cert.pem"
		}},
		{"store tls bad version", func(c *Config) {
			c.Security.TLS.Store.Enabled = true
			c.Security.TLS.Store.MinVersion = "1.0"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_MetricsDisabledSkipsPort(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 0
	assert.NoError(t, cfg.Validate())
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Store.Host = "cache"
	cfg.Store.Retry.MaxElapsed = 30 * time.Minute

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	l := newTestLoader(nil)
	l.AddLayer(path)
	loaded, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_ExampleConfig(t *testing.T) {
	l := newTestLoader(nil)
	l.AddLayer(filepath.Join("..", "configs", "panicstore.yaml"))
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Server.Gateway.EnableCORS)
	assert.Equal(t, 200.0, cfg.Server.Gateway.RateLimit)
	assert.Equal(t, retry.DefaultPolicy(), cfg.Store.Retry.Policy())
}
