package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/c360/panicstore/errors"
)

// Environment variables read once by Load
const (
	EnvRedisIP       = "REDIS_IP"
	EnvRedisPort     = "REDIS_PORT"
	EnvRedisDB       = "REDIS_DB"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvDashboardPort = "UI_DASHBOARD_PORT"
	EnvMetricsPort   = "PANICSTORE_METRICS_PORT"
)

// Loader builds a Config from defaults, file layers and the environment
type Loader struct {
	layers     []string
	validation bool
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a loader that validates the result
func NewLoader() *Loader {
	return &Loader{
		validation: true,
		lookupEnv:  os.LookupEnv,
	}
}

// AddLayer adds a YAML or JSON file; later layers override earlier ones
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables validation of the loaded config
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// Load applies defaults, every layer in order, then environment overrides
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		data, err := safeReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("read %s", path))
		}
		if err := decodeLayer(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("parse %s", path))
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadFile loads a single layer on top of defaults
func LoadFile(path string) (*Config, error) {
	l := NewLoader()
	if path != "" {
		l.AddLayer(path)
	}
	return l.Load()
}

// decodeLayer overlays data onto cfg; keys absent from data keep their
// current values. Unknown keys are rejected.
func decodeLayer(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (l *Loader) applyEnvOverrides(cfg *Config) error {
	if val, ok := l.env(EnvRedisIP); ok {
		cfg.Store.Host = val
	}
	if err := l.envInt(EnvRedisPort, &cfg.Store.Port); err != nil {
		return err
	}
	if err := l.envInt(EnvRedisDB, &cfg.Store.DB); err != nil {
		return err
	}
	if val, ok := l.env(EnvRedisPassword); ok {
		cfg.Store.Password = val
	}
	if err := l.envInt(EnvDashboardPort, &cfg.Server.Port); err != nil {
		return err
	}
	return l.envInt(EnvMetricsPort, &cfg.Metrics.Port)
}

// env returns a non-empty variable
func (l *Loader) env(key string) (string, bool) {
	val, ok := l.lookupEnv(key)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (l *Loader) envInt(key string, dst *int) error {
	val, ok := l.env(key)
	if !ok {
		return nil
	}
	if err := validateEnvVar(key, val); err != nil {
		return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", key)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return errors.WrapInvalid(fmt.Errorf("%s=%q is not an integer", key, val),
			"Loader", "applyEnvOverrides", key)
	}
	*dst = n
	return nil
}

// Save writes cfg as YAML with owner-only permissions
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WrapFatal(err, "Config", "Save", "marshal YAML")
	}
	if err := safeWriteFile(path, data); err != nil {
		return errors.WrapInvalid(err, "Config", "Save", fmt.Sprintf("write %s", path))
	}
	return nil
}
