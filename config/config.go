package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/c360/panicstore/errors"
	"github.com/c360/panicstore/gateway"
	"github.com/c360/panicstore/pkg/retry"
	"github.com/c360/panicstore/pkg/security"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig    `json:"server" yaml:"server"`
	Store    StoreConfig     `json:"store" yaml:"store"`
	Metrics  MetricsConfig   `json:"metrics" yaml:"metrics"`
	Log      LogConfig       `json:"log" yaml:"log"`
	Security security.Config `json:"security,omitempty" yaml:"security,omitempty"`
}

// ServerConfig defines the dashboard API listener
type ServerConfig struct {
	Host    string         `json:"host,omitempty" yaml:"host,omitempty"`
	Port    int            `json:"port" yaml:"port"`
	Gateway gateway.Config `json:"gateway" yaml:"gateway"`
}

// Addr returns host:port for the listener
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StoreConfig defines the Redis connection and its reconnect policy
type StoreConfig struct {
	Host              string        `json:"host" yaml:"host"`
	Port              int           `json:"port" yaml:"port"`
	DB                int           `json:"db" yaml:"db"`
	Password          string        `json:"password,omitempty" yaml:"password,omitempty"`
	ConnectTimeout    time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	HealthInterval    time.Duration `json:"health_interval" yaml:"health_interval"` // 0 disables pinging
	SuperviseInterval time.Duration `json:"supervise_interval" yaml:"supervise_interval"`
	Retry             RetryConfig   `json:"retry" yaml:"retry"`
}

// Addr returns host:port of the store
func (s StoreConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RetryConfig mirrors retry.Policy in file form
type RetryConfig struct {
	Step        time.Duration `json:"step" yaml:"step"`
	MaxDelay    time.Duration `json:"max_delay" yaml:"max_delay"`
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
	MaxElapsed  time.Duration `json:"max_elapsed" yaml:"max_elapsed"`
}

// Policy converts the configuration into a retry policy
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		Step:        r.Step,
		MaxDelay:    r.MaxDelay,
		MaxAttempts: r.MaxAttempts,
		MaxElapsed:  r.MaxElapsed,
	}
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
}

// LogConfig selects log level and output format
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	policy := retry.DefaultPolicy()
	return &Config{
		Server: ServerConfig{
			Port:    9000,
			Gateway: gateway.DefaultConfig(),
		},
		Store: StoreConfig{
			Host:              "localhost",
			Port:              6379,
			DB:                10,
			ConnectTimeout:    2 * time.Second,
			HealthInterval:    5 * time.Second,
			SuperviseInterval: 3 * time.Second,
			Retry: RetryConfig{
				Step:        policy.Step,
				MaxDelay:    policy.MaxDelay,
				MaxAttempts: policy.MaxAttempts,
				MaxElapsed:  policy.MaxElapsed,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration and fills gateway defaults
func (c *Config) Validate() error {
	if err := validatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := c.Server.Gateway.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "server.gateway")
	}

	if c.Store.Host == "" {
		return invalid("store.host is required")
	}
	if err := validatePort("store.port", c.Store.Port); err != nil {
		return err
	}
	if c.Store.DB < 0 {
		return invalid(fmt.Sprintf("store.db %d cannot be negative", c.Store.DB))
	}
	if c.Store.ConnectTimeout <= 0 {
		return invalid("store.connect_timeout must be positive")
	}
	if c.Store.HealthInterval < 0 {
		return invalid("store.health_interval cannot be negative")
	}
	if c.Store.SuperviseInterval <= 0 {
		return invalid("store.supervise_interval must be positive")
	}
	if err := c.Store.Retry.Policy().Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "store.retry")
	}

	if c.Metrics.Enabled {
		if err := validatePort("metrics.port", c.Metrics.Port); err != nil {
			return err
		}
		if c.Metrics.Port == c.Server.Port {
			return invalid("metrics.port must differ from server.port")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid(fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid(fmt.Sprintf("log.format %q must be json or text", c.Log.Format))
	}

	if err := c.validateSecurity(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "security")
	}
	return nil
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return invalid(fmt.Sprintf("%s %d outside 1..65535", name, port))
	}
	return nil
}

func invalid(msg string) error {
	return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", msg)
}

// validateSecurity checks that referenced TLS material exists
func (c *Config) validateSecurity() error {
	server := c.Security.TLS.Server
	if server.Enabled {
		if server.CertFile == "" {
			return fmt.Errorf("tls.server.cert_file is required when TLS is enabled")
		}
		if server.KeyFile == "" {
			return fmt.Errorf("tls.server.key_file is required when TLS is enabled")
		}
		if err := statFiles("tls.server", server.CertFile, server.KeyFile); err != nil {
			return err
		}
		if err := statFiles("tls.server.client_ca_files", server.ClientCAFiles...); err != nil {
			return err
		}
		if err := validateTLSVersion(server.MinVersion); err != nil {
			return fmt.Errorf("tls.server.min_version: %w", err)
		}
	}

	store := c.Security.TLS.Store
	if store.Enabled {
		if err := statFiles("tls.store.ca_files", store.CAFiles...); err != nil {
			return err
		}
		if (store.CertFile == "") != (store.KeyFile == "") {
			return fmt.Errorf("tls.store.cert_file and key_file must be set together")
		}
		if store.CertFile != "" {
			if err := statFiles("tls.store", store.CertFile, store.KeyFile); err != nil {
				return err
			}
		}
		if store.InsecureSkipVerify {
			_, _ = fmt.Fprintf(os.Stderr,
				"WARNING: store TLS certificate verification is disabled (insecure_skip_verify=true)\n")
		}
		if err := validateTLSVersion(store.MinVersion); err != nil {
			return fmt.Errorf("tls.store.min_version: %w", err)
		}
	}
	return nil
}

func statFiles(field string, paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

// validateTLSVersion accepts "", "1.2" and "1.3"
func validateTLSVersion(version string) error {
	switch version {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS version %q (must be \"1.2\" or \"1.3\")", version)
	}
}
