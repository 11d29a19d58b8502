// Package errors provides standardized error handling patterns for panicstore.
//
// # Overview
//
// Errors are sorted into three classes so callers can decide what to do without
// matching strings: Transient (temporary, the caller may retry), Invalid (bad input,
// never retry) and Fatal (programming or configuration error, stop the request).
//
// # Domain Errors
//
//   - ErrStoreNotReady: the store connection is not established; transient, the HTTP
//     caller re-polls later.
//   - ErrMaxRetryAttemptsExceeded, ErrMaxRetryTimeExceeded: a reconnect cycle was
//     abandoned; fatal for that cycle, the supervisor starts a new one.
//   - ErrUnknownKeyField: a key was requested for a field its category does not define.
//   - ErrDecodeFailed: a stored value is not valid JSON; reported per entity.
//   - ErrMissingField, ErrInvalidValue: request validation failures.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions set the classification explicitly:
//
//	errors.WrapTransient(err, "Client", "Execute", "mget")
//	errors.WrapInvalid(err, "Validator", "Validate", "check base chains")
//	errors.WrapFatal(err, "Registry", "BuildKey", "resolve field")
//
// The generic Wrap() keeps whatever classification the wrapped error already has.
//
// # Integration with errors.As/Is
//
// Classification survives wrapping, and sentinel variables stay reachable through
// errors.Is:
//
//	wrapped := errors.WrapTransient(errors.ErrStoreNotReady, "Client", "Execute", "mget")
//	errors.Is(wrapped, errors.ErrStoreNotReady) // true
//	errors.IsTransient(wrapped)                 // true
package errors
