package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/c360/panicstore/errors"
	"github.com/c360/panicstore/keys"
	"github.com/c360/panicstore/metric"
	"github.com/c360/panicstore/storeclient"
)

// ErrCouldNotRetrieveData marks a batched read that the store rejected or
// failed to answer.
var ErrCouldNotRetrieveData = stderrors.New("could not retrieve data")

// BatchReader performs one batched read against the store.
type BatchReader interface {
	Execute(ctx context.Context, req storeclient.BatchRead) ([]storeclient.Value, error)
}

// Writer stores a single encoded value.
type Writer interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store is the store surface the service depends on; *storeclient.Client
// satisfies it.
type Store interface {
	BatchReader
	Writer
}

// Service turns entity id lists into aggregated snapshots.
type Service struct {
	store   Store
	postfix string
	logger  *slog.Logger
	metrics *aggregateMetrics
}

// Option configures a Service
type Option func(*Service) error

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithPostfix overrides the separator between key fragment and entity id
func WithPostfix(postfix string) Option {
	return func(s *Service) error {
		s.postfix = postfix
		return nil
	}
}

// WithMetrics registers aggregation metrics
func WithMetrics(registry metric.MetricsRegistrar) Option {
	return func(s *Service) error {
		if registry == nil {
			return nil
		}
		m, err := newAggregateMetrics(registry)
		if err != nil {
			return errors.Wrap(err, "Aggregator", "WithMetrics", "register aggregate metrics")
		}
		s.metrics = m
		return nil
	}
}

// NewService creates an aggregation service over store
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Aggregator", "NewService", "store required")
	}

	s := &Service{
		store:   store,
		postfix: keys.DefaultPostfix,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "aggregate")
	return s, nil
}

// FetchMany reads field of category for every entity id with exactly one
// batched store call. Ids missing from the store map to null, values that
// are not valid JSON are reported per entity. Duplicate ids are collapsed to
// their first occurrence and an empty list never touches the store.
func (s *Service) FetchMany(ctx context.Context, category keys.Category, field string, entityIDs []string) (*Result, error) {
	if _, err := keys.Fragment(category, field); err != nil {
		return nil, err
	}

	ids := uniqueIDs(entityIDs)
	result := newResult(ids)
	if len(ids) == 0 {
		return result, nil
	}

	keyToID := make(map[string]string, len(ids))
	batch := storeclient.BatchRead{Keys: make([]string, 0, len(ids))}
	for _, id := range ids {
		key, err := keys.BuildKey(category, field, s.postfix, id)
		if err != nil {
			return nil, err
		}
		keyToID[key] = id
		batch.Keys = append(batch.Keys, key)
	}

	values, err := s.store.Execute(ctx, batch)
	if err != nil {
		s.logger.Warn("batched read failed",
			"category", category, "field", field, "entities", len(ids), "error", err)
		return nil, errors.Wrap(fmt.Errorf("%w: %w", ErrCouldNotRetrieveData, err),
			"Aggregator", "FetchMany", fmt.Sprintf("read %s/%s", category, field))
	}

	missing := 0
	for _, v := range values {
		id, ok := keyToID[v.Key]
		if !ok {
			continue
		}
		if !v.Found {
			missing++
			continue
		}

		decoded, err := decodeValue(v.Data)
		if err != nil {
			s.logger.Debug("stored value is not valid JSON", "entity", id, "key", v.Key, "error", err)
			result.setError(id, &DecodeError{EntityID: id, Key: v.Key, Err: err})
			continue
		}
		result.set(id, decoded)
	}

	s.metrics.record(category, len(ids), missing, len(result.decodeErrors))
	return result, nil
}

// MonitorablesInfo fetches the monitorables summary of each base chain.
func (s *Service) MonitorablesInfo(ctx context.Context, baseChains []string) (*Result, error) {
	return s.FetchMany(ctx, keys.CategoryBaseChain, keys.FieldMonitorablesInfo, baseChains)
}

// Store JSON-encodes value under the key the read path derives for the
// same category, field and entity.
func (s *Service) Store(ctx context.Context, category keys.Category, field, entityID string, value any) error {
	key, err := keys.BuildKey(category, field, s.postfix, entityID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.WrapInvalid(err, "Aggregator", "Store", fmt.Sprintf("encode value for %s", key))
	}

	if err := s.store.Set(ctx, key, data, 0); err != nil {
		return errors.Wrap(err, "Aggregator", "Store", fmt.Sprintf("write %s", key))
	}
	return nil
}

// decodeValue parses one stored JSON document, keeping numbers exact.
func decodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
