package gateway

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/panicstore/errors"
)

func requireAPIError(t *testing.T, err error, code Code) *Error {
	t.Helper()
	require.Error(t, err)
	var apiErr *Error
	require.True(t, stderrors.As(err, &apiErr), "expected *gateway.Error, got %T", err)
	assert.Equal(t, code, apiErr.Code, apiErr.Message)
	return apiErr
}

func TestParseMonitorablesInfo(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		code    Code
		message string
	}{
		{name: "valid", body: `{"baseChains":["cosmos","general"]}`, want: []string{"cosmos", "general"}},
		{name: "empty list", body: `{"baseChains":[]}`, want: []string{}},
		{name: "extra keys ignored", body: `{"baseChains":["substrate"],"x":1}`, want: []string{"substrate"}},
		{name: "missing", body: `{}`, code: CodeMissingKeysInBody, message: "missing key(s) in body: baseChains"},
		{name: "null", body: `{"baseChains":null}`, code: CodeMissingKeysInBody},
		{name: "empty body", body: ``, code: CodeMissingKeysInBody},
		{name: "unknown chain", body: `{"baseChains":["cosmos","bitcoin","eth"]}`, code: CodeInvalidBaseChains,
			message: "invalid base chain(s): bitcoin, eth"},
		{name: "case sensitive", body: `{"baseChains":["Cosmos"]}`, code: CodeInvalidBaseChains},
		{name: "not a list", body: `{"baseChains":"cosmos"}`, code: CodeInvalidBaseChains,
			message: `invalid base chain(s): "cosmos"`},
		{name: "list of numbers", body: `{"baseChains":[1,2]}`, code: CodeInvalidBaseChains},
		{name: "not json", body: `baseChains=cosmos`, code: CodeInvalidJSON},
		{name: "array body", body: `["cosmos"]`, code: CodeInvalidJSON},
		{name: "null body", body: `null`, code: CodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseMonitorablesInfo([]byte(tt.body))
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, req.BaseChains)
				return
			}
			apiErr := requireAPIError(t, err, tt.code)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.True(t, errors.IsInvalid(apiErr))
			if tt.message != "" {
				assert.Equal(t, tt.message, apiErr.Message)
			}
		})
	}
}

func TestParseEntities(t *testing.T) {
	tests := []struct {
		name string
		body string
		code Code
	}{
		{name: "valid", body: `{"category":"system","field":"system_cpu_usage","entityIds":["a","b"]}`},
		{name: "valid empty ids", body: `{"category":"github","field":"no_of_releases","entityIds":[]}`},
		{name: "missing all", body: `{}`, code: CodeMissingKeysInBody},
		{name: "missing ids", body: `{"category":"system","field":"system_cpu_usage"}`, code: CodeMissingKeysInBody},
		{name: "missing wins over invalid", body: `{"category":"nope","field":"x"}`, code: CodeMissingKeysInBody},
		{name: "unknown category", body: `{"category":"nope","field":"x","entityIds":[]}`, code: CodeInvalidCategory},
		{name: "category wins over field", body: `{"category":"nope","field":"mute","entityIds":[]}`, code: CodeInvalidCategory},
		{name: "field of another category", body: `{"category":"github","field":"mute","entityIds":["r"]}`, code: CodeInvalidField},
		{name: "ids wrong type", body: `{"category":"system","field":"system_cpu_usage","entityIds":"a"}`, code: CodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseEntities([]byte(tt.body))
			if tt.code == "" {
				require.NoError(t, err)
				assert.NotNil(t, req.EntityIDs)
				return
			}
			requireAPIError(t, err, tt.code)
		})
	}
}

func TestParseEntities_MissingListsEveryKey(t *testing.T) {
	_, err := ParseEntities([]byte(`{"field":null}`))
	apiErr := requireAPIError(t, err, CodeMissingKeysInBody)
	assert.Equal(t, "missing key(s) in body: category, field, entityIds", apiErr.Message)
}

func TestParseEntities_InvalidFieldMessage(t *testing.T) {
	_, err := ParseEntities([]byte(`{"category":"chain","field":"heartbeat","entityIds":["x"]}`))
	apiErr := requireAPIError(t, err, CodeInvalidField)
	assert.Equal(t, `invalid field "heartbeat" for category "chain"`, apiErr.Message)
}
