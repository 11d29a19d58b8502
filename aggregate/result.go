package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/c360/panicstore/errors"
)

// DecodeError reports an entity whose stored value could not be parsed.
type DecodeError struct {
	EntityID string
	Key      string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode value of %s (key %s): %v", e.EntityID, e.Key, e.Err)
}

// Unwrap exposes both ErrDecodeFailed and the parser error.
func (e *DecodeError) Unwrap() []error {
	return []error{errors.ErrDecodeFailed, e.Err}
}

// Result maps entity ids to decoded values, in request order. Entities
// without a value, or whose value failed to decode, map to nil.
type Result struct {
	order        []string
	values       map[string]any
	decodeErrors map[string]*DecodeError
}

func newResult(ids []string) *Result {
	return &Result{
		order:        ids,
		values:       make(map[string]any, len(ids)),
		decodeErrors: make(map[string]*DecodeError),
	}
}

func (r *Result) set(id string, v any) {
	r.values[id] = v
}

func (r *Result) setError(id string, err *DecodeError) {
	r.decodeErrors[id] = err
}

// Len returns the number of entities in the result
func (r *Result) Len() int {
	return len(r.order)
}

// IDs returns the entity ids in request order
func (r *Result) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the decoded value of id. ok is false for ids that were not
// requested; a requested id without a value returns nil, true.
func (r *Result) Get(id string) (v any, ok bool) {
	for _, known := range r.order {
		if known == id {
			return r.values[id], true
		}
	}
	return nil, false
}

// DecodeErrors returns a copy of the per-entity decode failures
func (r *Result) DecodeErrors() map[string]*DecodeError {
	out := make(map[string]*DecodeError, len(r.decodeErrors))
	for id, err := range r.decodeErrors {
		out[id] = err
	}
	return out
}

// HasDecodeErrors reports whether any entity failed to decode
func (r *Result) HasDecodeErrors() bool {
	return len(r.decodeErrors) > 0
}

// MarshalJSON writes {"<id>": <value|null>, ...} keeping request order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
