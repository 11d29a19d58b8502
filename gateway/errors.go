package gateway

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/c360/panicstore/aggregate"
	"github.com/c360/panicstore/errors"
)

// Code is the stable, machine-readable identifier of an API failure
type Code string

// API error codes
const (
	CodeMissingKeysInBody    Code = "missing_keys_in_body"
	CodeInvalidBaseChains    Code = "invalid_base_chains"
	CodeInvalidCategory      Code = "invalid_category"
	CodeInvalidField         Code = "invalid_field"
	CodeInvalidJSON          Code = "invalid_json"
	CodeRequestTooLarge      Code = "request_too_large"
	CodeMethodNotAllowed     Code = "method_not_allowed"
	CodeInvalidEndpoint      Code = "invalid_endpoint"
	CodeRateLimited          Code = "rate_limited"
	CodeStoreNotReady        Code = "store_not_ready"
	CodeCouldNotRetrieveData Code = "could_not_retrieve_data"
	CodeUnknownKeyField      Code = "unknown_key_field"
	CodeInternal             Code = "internal_error"
)

// Error is an API failure with its HTTP status and client-safe message
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, status int, err error, format string, args ...any) *Error {
	return &Error{Code: code, Status: status, Message: fmt.Sprintf(format, args...), Err: err}
}

// MissingKeys reports required body keys that were absent or null
func MissingKeys(names ...string) *Error {
	return newError(CodeMissingKeysInBody, http.StatusBadRequest, errors.ErrMissingField,
		"missing key(s) in body: %s", strings.Join(names, ", "))
}

// InvalidBaseChains reports base chains outside the supported list
func InvalidBaseChains(values ...string) *Error {
	return newError(CodeInvalidBaseChains, http.StatusBadRequest, errors.ErrInvalidValue,
		"invalid base chain(s): %s", strings.Join(values, ", "))
}

// InvalidCategory reports an unknown key category
func InvalidCategory(category string) *Error {
	return newError(CodeInvalidCategory, http.StatusBadRequest, errors.ErrInvalidValue,
		"invalid category: %q", category)
}

// InvalidField reports a field not defined for its category
func InvalidField(category, field string) *Error {
	return newError(CodeInvalidField, http.StatusBadRequest, errors.ErrInvalidValue,
		"invalid field %q for category %q", field, category)
}

// InvalidJSON reports a body that is not a JSON object of the expected shape
func InvalidJSON(detail string) *Error {
	return newError(CodeInvalidJSON, http.StatusBadRequest, errors.ErrParsingFailed,
		"invalid JSON body: %s", detail)
}

// RequestTooLarge reports a body over the configured limit
func RequestTooLarge(limit int64) *Error {
	return newError(CodeRequestTooLarge, http.StatusRequestEntityTooLarge, errors.ErrInvalidData,
		"request body exceeds maximum size of %d bytes", limit)
}

// MethodNotAllowed reports a route hit with the wrong method
func MethodNotAllowed(method string) *Error {
	return newError(CodeMethodNotAllowed, http.StatusMethodNotAllowed, errors.ErrInvalidValue,
		"method %s not allowed", method)
}

// InvalidEndpoint reports an unknown /server path
func InvalidEndpoint(path string) *Error {
	return newError(CodeInvalidEndpoint, http.StatusNotFound, errors.ErrInvalidValue,
		"invalid endpoint %s", path)
}

// RateLimited reports a request rejected by the request rate limiter
func RateLimited() *Error {
	return newError(CodeRateLimited, http.StatusTooManyRequests, nil,
		"rate limit exceeded, retry later")
}

// MapError converts any failure into an API error. Internal details stay in
// Err; Message is safe to return to clients.
func MapError(err error) *Error {
	if err == nil {
		return newError(CodeInternal, http.StatusInternalServerError, nil, "internal server error")
	}

	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case stderrors.Is(err, errors.ErrStoreNotReady):
		return newError(CodeStoreNotReady, http.StatusServiceUnavailable, err,
			"store is not ready, retry later")
	case stderrors.Is(err, errors.ErrUnknownKeyField):
		return newError(CodeUnknownKeyField, http.StatusInternalServerError, err,
			"unknown key field")
	case stderrors.Is(err, aggregate.ErrCouldNotRetrieveData):
		return newError(CodeCouldNotRetrieveData, http.StatusInternalServerError, err,
			"could not retrieve data from the store")
	default:
		return newError(CodeInternal, http.StatusInternalServerError, err, "internal server error")
	}
}
