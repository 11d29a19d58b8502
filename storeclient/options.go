package storeclient

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/panicstore/errors"
	"github.com/c360/panicstore/metric"
	"github.com/c360/panicstore/pkg/retry"
)

// ClientOption is a functional option for configuring the Client
type ClientOption func(*Client) error

// WithDB selects the logical Redis database (default 10)
func WithDB(db int) ClientOption {
	return func(c *Client) error {
		if db < 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "StoreClient", "WithDB",
				fmt.Sprintf("database index %d", db))
		}
		c.options.DB = db
		return nil
	}
}

// WithPassword sets the AUTH password
func WithPassword(password string) ClientOption {
	return func(c *Client) error {
		c.options.Password = password
		return nil
	}
}

// WithTLS enables TLS towards the server
func WithTLS(cfg *tls.Config) ClientOption {
	return func(c *Client) error {
		c.options.TLSConfig = cfg
		return nil
	}
}

// WithPolicy replaces the reconnect policy
func WithPolicy(policy retry.Policy) ClientOption {
	return func(c *Client) error {
		c.policy = policy
		return nil
	}
}

// WithClock injects the clock used for reconnect delays
func WithClock(clock retry.Clock) ClientOption {
	return func(c *Client) error {
		if clock == nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "StoreClient", "WithClock", "nil clock")
		}
		c.clock = clock
		return nil
	}
}

// WithDialer replaces how a transport is opened
func WithDialer(dial DialFunc) ClientOption {
	return func(c *Client) error {
		if dial == nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "StoreClient", "WithDialer", "nil dialer")
		}
		c.dial = dial
		return nil
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithConnectTimeout bounds a single dial
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "StoreClient", "WithConnectTimeout",
				fmt.Sprintf("timeout %v", d))
		}
		c.connectTimeout = d
		return nil
	}
}

// WithHealthInterval sets how often a connected transport is pinged; zero
// disables the monitor.
func WithHealthInterval(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.healthInterval = d
		return nil
	}
}

// WithMetrics registers store metrics with the given registry
func WithMetrics(registry metric.MetricsRegistrar) ClientOption {
	return func(c *Client) error {
		if registry == nil {
			return nil
		}
		m, err := newStoreMetrics(registry)
		if err != nil {
			return errors.Wrap(err, "StoreClient", "WithMetrics", "register store metrics")
		}
		c.metrics = m
		return nil
	}
}

// WithStatusCallback is invoked on every status transition. The callback
// runs inline with the transition and must not call back into the client.
func WithStatusCallback(fn func(ConnectionStatus)) ClientOption {
	return func(c *Client) error {
		c.onStatusChange = fn
		return nil
	}
}
