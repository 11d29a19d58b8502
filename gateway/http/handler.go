// Package http serves the dashboard data API over HTTP.
package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/c360/panicstore/aggregate"
	"github.com/c360/panicstore/errors"
	"github.com/c360/panicstore/gateway"
	"github.com/c360/panicstore/health"
	"github.com/c360/panicstore/keys"
	"github.com/c360/panicstore/metric"
)

// Aggregator is the read side the handlers depend on
type Aggregator interface {
	FetchMany(ctx context.Context, category keys.Category, field string, entityIDs []string) (*aggregate.Result, error)
	MonitorablesInfo(ctx context.Context, baseChains []string) (*aggregate.Result, error)
}

// SystemName labels the aggregated health status
const SystemName = "panicstore"

// getOrGenerateRequestID returns the caller's X-Request-ID or a new UUID
func getOrGenerateRequestID(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	return uuid.NewString()
}

// Handler implements gateway.HTTPHandler for the /server API
type Handler struct {
	aggregator Aggregator
	config     gateway.Config
	health     *health.Monitor
	logger     *slog.Logger
	metrics    *metric.Metrics
	limiter    *rate.Limiter
}

var _ gateway.HTTPHandler = (*Handler)(nil)

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHealth serves the monitor's aggregated status on /health
func WithHealth(monitor *health.Monitor) Option {
	return func(h *Handler) {
		h.health = monitor
	}
}

// WithMetrics records request counts and latency
func WithMetrics(m *metric.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates the API handler
func NewHandler(aggregator Aggregator, cfg gateway.Config, opts ...Option) (*Handler, error) {
	if aggregator == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Handler", "NewHandler", "aggregator required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Handler", "NewHandler", "config validation")
	}

	h := &Handler{
		aggregator: aggregator,
		config:     cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.config.RateLimit > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(h.config.RateLimit), h.config.RateBurst)
	}
	h.logger = h.logger.With("component", "http")
	return h, nil
}

// RegisterHTTPHandlers mounts the API under prefix (normally "/server/").
// Unknown paths below prefix answer 404 invalid_endpoint.
func (h *Handler) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	mux.Handle(prefix+"redis/monitorablesInfo", h.route("monitorablesInfo", http.MethodPost, h.limited(h.handleMonitorablesInfo)))
	mux.Handle(prefix+"redis/entities", h.route("entities", http.MethodPost, h.limited(h.handleEntities)))
	mux.Handle(prefix+"health", h.route("health", http.MethodGet, h.handleHealth))
	mux.Handle(prefix, h.route("unknown", "", h.handleInvalidEndpoint))
}

// Routes returns a mux with the API mounted under /server/
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterHTTPHandlers("/server/", mux)
	return mux
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, logger *slog.Logger)

// route wraps a handler with request ID, CORS, method check, logging and
// metrics. An empty method accepts any.
func (h *Handler) route(name, method string, next handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := getOrGenerateRequestID(r)
		w.Header().Set("X-Request-ID", requestID)
		logger := h.logger.With("request_id", requestID, "route", name)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			duration := time.Since(start)
			if h.metrics != nil {
				h.metrics.RecordHTTPRequest(name, rec.status, duration)
			}
			logger.Debug("request served", "method", r.Method, "path", r.URL.Path,
				"status", rec.status, "duration", duration)
		}()

		if h.config.EnableCORS {
			h.applyCORS(rec, r)
			if r.Method == http.MethodOptions {
				rec.WriteHeader(http.StatusNoContent)
				return
			}
		}

		if method != "" && r.Method != method {
			h.writeError(rec, logger, gateway.MethodNotAllowed(r.Method))
			return
		}

		next(rec, r, logger)
	})
}

// limited rejects requests over the configured rate before any work is done
func (h *Handler) limited(next handlerFunc) handlerFunc {
	if h.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
		if !h.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			h.writeError(w, logger, gateway.RateLimited())
			return
		}
		next(w, r, logger)
	}
}

func (h *Handler) handleMonitorablesInfo(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	body, apiErr := h.readBody(r)
	if apiErr != nil {
		h.writeError(w, logger, apiErr)
		return
	}

	req, err := gateway.ParseMonitorablesInfo(body)
	if err != nil {
		h.writeError(w, logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	result, err := h.aggregator.MonitorablesInfo(ctx, req.BaseChains)
	if err != nil {
		h.writeError(w, logger, err)
		return
	}
	h.writeResult(w, logger, result)
}

func (h *Handler) handleEntities(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	body, apiErr := h.readBody(r)
	if apiErr != nil {
		h.writeError(w, logger, apiErr)
		return
	}

	req, err := gateway.ParseEntities(body)
	if err != nil {
		h.writeError(w, logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	result, err := h.aggregator.FetchMany(ctx, keys.Category(req.Category), req.Field, req.EntityIDs)
	if err != nil {
		h.writeError(w, logger, err)
		return
	}
	h.writeResult(w, logger, result)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request, logger *slog.Logger) {
	status := health.NewHealthy(SystemName, "no components registered")
	if h.health != nil {
		status = h.health.Check(SystemName)
	}

	code := http.StatusOK
	if status.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	if h.metrics != nil {
		for _, sub := range status.SubStatuses {
			h.metrics.RecordHealthStatus(sub.Component, sub.IsHealthy())
		}
	}
	h.writeJSON(w, logger, code, status)
}

func (h *Handler) handleInvalidEndpoint(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	h.writeError(w, logger, gateway.InvalidEndpoint(r.URL.Path))
}

// readBody reads at most MaxRequestSize bytes; one byte more means too large.
func (h *Handler) readBody(r *http.Request) ([]byte, *gateway.Error) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, h.config.MaxRequestSize+1))
	if err != nil {
		return nil, gateway.InvalidJSON("failed to read request body")
	}
	if int64(len(body)) > h.config.MaxRequestSize {
		return nil, gateway.RequestTooLarge(h.config.MaxRequestSize)
	}
	return body, nil
}

// applyCORS sets CORS headers when the origin is allowed
func (h *Handler) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := false
	for _, allowedOrigin := range h.config.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}

	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

type resultResponse struct {
	Result       *aggregate.Result `json:"result"`
	DecodeErrors map[string]string `json:"decode_errors,omitempty"`
}

type errorResponse struct {
	Error  string       `json:"error"`
	Code   gateway.Code `json:"code"`
	Status int          `json:"status"`
}

func (h *Handler) writeResult(w http.ResponseWriter, logger *slog.Logger, result *aggregate.Result) {
	resp := resultResponse{Result: result}
	if result.HasDecodeErrors() {
		resp.DecodeErrors = make(map[string]string)
		for id, derr := range result.DecodeErrors() {
			resp.DecodeErrors[id] = derr.Err.Error()
		}
		logger.Warn("some stored values could not be decoded", "entities", len(resp.DecodeErrors))
	}
	h.writeJSON(w, logger, http.StatusOK, resp)
}

// writeError maps err and writes the error body. Internal causes are logged,
// never returned.
func (h *Handler) writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	apiErr := gateway.MapError(err)

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", apiErr.Code, "error", err)
	} else {
		logger.Debug("request rejected", "code", apiErr.Code, "error", apiErr.Message)
	}
	if h.metrics != nil {
		h.metrics.RecordError("http", string(apiErr.Code))
	}

	h.writeJSON(w, logger, apiErr.Status, errorResponse{
		Error:  apiErr.Message,
		Code:   apiErr.Code,
		Status: apiErr.Status,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.Error("encode response", "error", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"internal server error","code":"internal_error","status":500}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// statusRecorder captures the status code for metrics and logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
