package gateway

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/panicstore/aggregate"
	"github.com/c360/panicstore/errors"
)

func TestMapError(t *testing.T) {
	notReady := errors.WrapTransient(errors.ErrStoreNotReady, "StoreClient", "Execute", "store reconnecting")

	tests := []struct {
		name   string
		err    error
		code   Code
		status int
	}{
		{"nil", nil, CodeInternal, http.StatusInternalServerError},
		{"api error passes through", InvalidCategory("x"), CodeInvalidCategory, http.StatusBadRequest},
		{"wrapped api error", fmt.Errorf("handler: %w", MissingKeys("a")), CodeMissingKeysInBody, http.StatusBadRequest},
		{"store not ready", notReady, CodeStoreNotReady, http.StatusServiceUnavailable},
		{"store not ready inside retrieval failure",
			fmt.Errorf("%w: %w", aggregate.ErrCouldNotRetrieveData, notReady), CodeStoreNotReady, http.StatusServiceUnavailable},
		{"retrieval failure", fmt.Errorf("%w: %w", aggregate.ErrCouldNotRetrieveData, stderrors.New("EOF")),
			CodeCouldNotRetrieveData, http.StatusInternalServerError},
		{"unknown key field", errors.WrapFatal(errors.ErrUnknownKeyField, "keys", "Fragment", "resolve"),
			CodeUnknownKeyField, http.StatusInternalServerError},
		{"anything else", stderrors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := MapError(tt.err)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestMapError_DoesNotLeakInternals(t *testing.T) {
	err := fmt.Errorf("%w: dial tcp 10.0.0.7:6379: connection refused", aggregate.ErrCouldNotRetrieveData)
	apiErr := MapError(err)
	assert.NotContains(t, apiErr.Message, "10.0.0.7")
	assert.True(t, stderrors.Is(apiErr, aggregate.ErrCouldNotRetrieveData))
}

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, RequestTooLarge(10).Status)
	assert.Equal(t, "request body exceeds maximum size of 10 bytes", RequestTooLarge(10).Message)
	assert.Equal(t, http.StatusMethodNotAllowed, MethodNotAllowed("GET").Status)
	assert.Equal(t, CodeInvalidEndpoint, InvalidEndpoint("/server/x").Code)
	assert.Equal(t, "invalid endpoint /server/x", InvalidEndpoint("/server/x").Message)
	assert.Equal(t, http.StatusTooManyRequests, RateLimited().Status)
	assert.True(t, stderrors.Is(MissingKeys("a"), errors.ErrMissingField))
	assert.True(t, stderrors.Is(InvalidJSON("x"), errors.ErrParsingFailed))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, int64(DefaultMaxRequestSize), cfg.MaxRequestSize)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)

	bad := []Config{
		{MaxRequestSize: -1},
		{MaxRequestSize: 200 * 1024 * 1024},
		{RequestTimeout: 1},
		{EnableCORS: true},
		{RateLimit: -1},
		{RateLimit: 5, RateBurst: -1},
	}
	for i, c := range bad {
		err := c.Validate()
		assert.Error(t, err, "case %d", i)
		assert.True(t, errors.IsInvalid(err), "case %d", i)
	}

	def := DefaultConfig()
	assert.NoError(t, def.Validate())

	limited := Config{RateLimit: 50}
	require.NoError(t, limited.Validate())
	assert.Equal(t, DefaultRateBurst, limited.RateBurst)
}
