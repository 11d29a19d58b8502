package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"store not ready", ErrStoreNotReady, true},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"invalid data", ErrInvalidData, false},
		{"unknown key field", ErrUnknownKeyField, false},
		{"max retry attempts", ErrMaxRetryAttemptsExceeded, false},
		{"max retry time", fmt.Errorf("cycle: %w", ErrMaxRetryTimeExceeded), false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"network error", fmt.Errorf("dial tcp: network is unreachable"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"unknown key field", ErrUnknownKeyField, true},
		{"max retry attempts", ErrMaxRetryAttemptsExceeded, true},
		{"max retry time", ErrMaxRetryTimeExceeded, true},
		{"store not ready", ErrStoreNotReady, false},
		{"fatal in message", fmt.Errorf("fatal system error occurred"), true},
		{"regular error", fmt.Errorf("something happened"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"missing field", ErrMissingField, true},
		{"invalid value", ErrInvalidValue, true},
		{"decode failed", fmt.Errorf("entity cosmos: %w", ErrDecodeFailed), true},
		{"parsing failed", ErrParsingFailed, true},
		{"store not ready", ErrStoreNotReady, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil defaults to transient", nil, ErrorTransient},
		{"store not ready", ErrStoreNotReady, ErrorTransient},
		{"unknown key field", ErrUnknownKeyField, ErrorFatal},
		{"missing field", ErrMissingField, ErrorInvalid},
		{"unknown error defaults to transient", fmt.Errorf("mystery"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "Client", "Execute", "mget") != nil {
		t.Error("wrapping nil should return nil")
	}

	err := Wrap(ErrStoreNotReady, "Client", "Execute", "mget")
	expected := "Client.Execute: mget failed: store not ready"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrStoreNotReady) {
		t.Error("wrapped error should match the sentinel")
	}
}

func TestWrapClassified(t *testing.T) {
	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.wrap(nil, "c", "m", "a") != nil {
				t.Fatal("wrapping nil should return nil")
			}

			err := test.wrap(ErrInvalidData, "Registry", "BuildKey", "resolve")

			var ce *ClassifiedError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ClassifiedError, got %T", err)
			}
			if ce.Class != test.class {
				t.Errorf("expected class %s, got %s", test.class, ce.Class)
			}
			if ce.Component != "Registry" || ce.Operation != "BuildKey" {
				t.Errorf("unexpected context %s.%s", ce.Component, ce.Operation)
			}
			if !strings.HasPrefix(err.Error(), "Registry.BuildKey: resolve failed") {
				t.Errorf("unexpected message %q", err.Error())
			}
			if !errors.Is(err, ErrInvalidData) {
				t.Error("classified error should unwrap to the sentinel")
			}
		})
	}
}

func TestWrapPreservesClassification(t *testing.T) {
	inner := WrapInvalid(ErrMissingField, "Validator", "Validate", "required fields")
	outer := Wrap(inner, "Handler", "ServeHTTP", "validate request")

	if !IsInvalid(outer) {
		t.Error("classification should survive generic wrapping")
	}
	if IsTransient(outer) {
		t.Error("invalid error must not be transient")
	}
}
