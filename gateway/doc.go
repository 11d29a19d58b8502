// Package gateway holds the dashboard API contract: request types, their
// validation and the mapping from failures to stable error codes.
//
// Validation happens before any store access, in a fixed order, and the
// first failing stage wins:
//
//  1. the body is a JSON object
//  2. every required key is present and not null (missing_keys_in_body)
//  3. values have the expected JSON type
//  4. enumerated values are known: base chains (invalid_base_chains, all
//     offenders listed), category (invalid_category), field within the
//     category (invalid_field)
//
// Required checks treat an absent key and null alike; an empty list is
// present. Rules are expressed as go-playground/validator tags with custom
// base_chain and category validations and a struct-level field check.
//
// MapError turns any error into an *Error carrying a Code, an HTTP status and
// a client-safe message:
//
//	req, err := gateway.ParseMonitorablesInfo(body)
//	if err != nil {
//	    apiErr := gateway.MapError(err) // 400 invalid_base_chains, ...
//	}
//	res, err := svc.MonitorablesInfo(ctx, req.BaseChains)
//	if err != nil {
//	    apiErr := gateway.MapError(err) // 503 store_not_ready, 500 could_not_retrieve_data
//	}
//
// The HTTP transport lives in gateway/http.
package gateway
