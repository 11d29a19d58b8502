package gateway

import (
	"fmt"
	"time"

	"github.com/c360/panicstore/errors"
)

// Config holds configuration for the dashboard API boundary
type Config struct {
	// EnableCORS enables CORS headers (requires explicit cors_origins)
	EnableCORS bool `json:"enable_cors" yaml:"enable_cors"`

	// CORSOrigins lists allowed origins; ["*"] is for development only
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`

	// MaxRequestSize limits request body size in bytes (default: 1MB)
	MaxRequestSize int64 `json:"max_request_size,omitempty" yaml:"max_request_size,omitempty"`

	// RequestTimeout bounds the store work of one request (default: 5s)
	RequestTimeout time.Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`

	// RateLimit caps data requests per second across all clients; 0 disables
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	// RateBurst is the burst allowed above RateLimit (default: 10)
	RateBurst int `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`
}

// Validate ensures the configuration is usable and fills defaults
func (c *Config) Validate() error {
	if c.MaxRequestSize < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"max_request_size cannot be negative")
	}
	if c.MaxRequestSize == 0 {
		c.MaxRequestSize = DefaultMaxRequestSize
	}
	if c.MaxRequestSize > 100*1024*1024 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"max_request_size cannot exceed 100MB")
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RequestTimeout < 100*time.Millisecond || c.RequestTimeout > 30*time.Second {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("request_timeout %v outside 100ms..30s", c.RequestTimeout))
	}

	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"rate_limit and rate_burst cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = DefaultRateBurst
	}

	if c.EnableCORS && len(c.CORSOrigins) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"enable_cors requires explicit cors_origins")
	}
	return nil
}

// Defaults for Config
const (
	DefaultMaxRequestSize = 1024 * 1024
	DefaultRequestTimeout = 5 * time.Second
	DefaultRateBurst      = 10
)

// DefaultConfig returns default gateway configuration
func DefaultConfig() Config {
	return Config{
		EnableCORS:     false,
		CORSOrigins:    []string{},
		MaxRequestSize: DefaultMaxRequestSize,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// MonitorablesInfoRequest is the body of POST /server/redis/monitorablesInfo
type MonitorablesInfoRequest struct {
	BaseChains []string `json:"baseChains" validate:"required,dive,base_chain"`
}

// EntitiesRequest is the body of POST /server/redis/entities
type EntitiesRequest struct {
	Category  string   `json:"category" validate:"required,category"`
	Field     string   `json:"field" validate:"required"`
	EntityIDs []string `json:"entityIds" validate:"required"`
}
