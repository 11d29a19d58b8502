// Package health reports the health of the store connection and the service
package health

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	urlRegex        = regexp.MustCompile(`(?i)(https?|rediss?|tcp)://[^\s]+`)
	unixPathRegex   = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex       = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|auth)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status represents the health state of a component or system
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"` // "healthy", "unhealthy", "degraded"
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics carries connection figures alongside a status
type Metrics struct {
	Uptime          time.Duration `json:"uptime,omitempty"`
	Connects        int64         `json:"connects,omitempty"`
	RetryAttempts   int           `json:"retry_attempts,omitempty"`
	LastConnectedAt time.Time     `json:"last_connected_at,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == "healthy"
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == "degraded"
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == "unhealthy"
}

// WithMetrics returns a copy of the status with metrics attached
func (s Status) WithMetrics(metrics *Metrics) Status {
	s.Metrics = metrics
	return s
}

// WithSubStatus adds a sub-status and returns a copy
func (s Status) WithSubStatus(subStatus Status) Status {
	subs := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(subs, s.SubStatuses)
	s.SubStatuses = append(subs, subStatus)
	return s
}

// sanitizeErrorMessage strips addresses, paths and credentials from err so
// it can be shown to dashboard clients.
func sanitizeErrorMessage(err string) string {
	if err == "" {
		return ""
	}

	sanitized := urlRegex.ReplaceAllString(err, "[URL]")
	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	for _, word := range []string{"password", "token", "key", "secret", "auth"} {
		if strings.Contains(lower, word) {
			sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
			break
		}
	}
	return sanitized
}

// ConnectionReport is what a connection manager exposes for health checks
type ConnectionReport struct {
	State         string
	Ready         bool
	RetryAttempts int
	LastError     error
	Connects      int64
	LastConnected time.Time
}

// FromConnection derives a status from a connection report: ready is
// healthy, an active connect or reconnect is degraded, anything else is
// unhealthy.
func FromConnection(name string, r ConnectionReport) Status {
	var status Status
	switch {
	case r.Ready:
		status = NewHealthy(name, "connected")
	case r.State == "connecting" || r.State == "reconnecting":
		status = NewDegraded(name, fmt.Sprintf("%s (attempt %d)", r.State, r.RetryAttempts))
	default:
		status = NewUnhealthy(name, r.State)
	}

	if r.LastError != nil && !r.Ready {
		status.Message += ": " + sanitizeErrorMessage(r.LastError.Error())
	}

	metrics := &Metrics{
		Connects:        r.Connects,
		RetryAttempts:   r.RetryAttempts,
		LastConnectedAt: r.LastConnected,
	}
	if r.Ready && !r.LastConnected.IsZero() {
		metrics.Uptime = time.Since(r.LastConnected)
	}
	return status.WithMetrics(metrics)
}
