package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/panicstore/keys"
)

// Fixture is a set of values to store under schema-derived keys
type Fixture struct {
	Entries    []Entry     `yaml:"entries"`
	Hashes     []Hash      `yaml:"hashes"`
	Heartbeats []Heartbeat `yaml:"heartbeats"`
	Mutes      []Mute      `yaml:"mutes"`
	Configs    []Config    `yaml:"configs"`
}

// Entry is one stored value
type Entry struct {
	Category string `yaml:"category"`
	Field    string `yaml:"field"`
	ID       string `yaml:"id"`
	Value    any    `yaml:"value"`
}

// Hash groups the metrics of one parent under its parent hash, one hash
// field per metric key.
type Hash struct {
	Parent  string   `yaml:"parent"`
	Metrics []Metric `yaml:"metrics"`
}

// Metric is a system, github or alert value inside a parent hash
type Metric struct {
	Category string `yaml:"category"`
	Field    string `yaml:"field"`
	ID       string `yaml:"id"`
	Value    any    `yaml:"value"`
}

// Heartbeat is the last heartbeat of a pipeline component
type Heartbeat struct {
	Component string `yaml:"component"`
	Value     any    `yaml:"value"`
}

// Mute sets the mute flag of either a chain or an alerter
type Mute struct {
	Chain   string `yaml:"chain"`
	Alerter string `yaml:"alerter"`
	Value   any    `yaml:"value"`
}

// Config stores a configuration document under its routing key, or removes
// it when Remove is set.
type Config struct {
	RoutingKey string `yaml:"routing_key"`
	Value      any    `yaml:"value"`
	Remove     bool   `yaml:"remove"`
}

// Storer persists an encoded value; *aggregate.Service implements it
type Storer interface {
	Store(ctx context.Context, category keys.Category, field, entityID string, value any) error
}

// KeyStore is raw key access for the statically known keys;
// *storeclient.Client implements it.
type KeyStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, names ...string) (int64, error)
	HSetMultiple(ctx context.Context, key string, fields map[string][]byte) error
	HGet(ctx context.Context, key, field string) ([]byte, bool, error)
}

func decodeFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	for i, e := range f.Entries {
		if e.ID == "" {
			return fmt.Errorf("entry %d: id is required", i)
		}
		if _, err := keys.Fragment(keys.Category(e.Category), e.Field); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	for i, h := range f.Hashes {
		if h.Parent == "" {
			return fmt.Errorf("hash %d: parent is required", i)
		}
		if len(h.Metrics) == 0 {
			return fmt.Errorf("hash %d: at least one metric is required", i)
		}
		for j, m := range h.Metrics {
			if m.ID == "" {
				return fmt.Errorf("hash %d metric %d: id is required", i, j)
			}
			if _, err := m.key(); err != nil {
				return fmt.Errorf("hash %d metric %d: %w", i, j, err)
			}
		}
	}
	for i, hb := range f.Heartbeats {
		if hb.Component == "" {
			return fmt.Errorf("heartbeat %d: component is required", i)
		}
	}
	for i, m := range f.Mutes {
		if (m.Chain == "") == (m.Alerter == "") {
			return fmt.Errorf("mute %d: exactly one of chain or alerter is required", i)
		}
	}
	for i, c := range f.Configs {
		if c.RoutingKey == "" {
			return fmt.Errorf("config %d: routing_key is required", i)
		}
		if c.Remove && c.Value != nil {
			return fmt.Errorf("config %d: remove takes no value", i)
		}
	}
	return nil
}

// key is the hash field a metric is stored under
func (m Metric) key() (string, error) {
	switch keys.Category(m.Category) {
	case keys.CategorySystem:
		return keys.SystemMetric(m.Field, m.ID)
	case keys.CategoryGitHub:
		return keys.GitHubMetric(m.Field, m.ID)
	case keys.CategoryAlert:
		return keys.AlertMetric(m.Field, m.ID)
	default:
		return "", fmt.Errorf("category %q cannot be stored in a parent hash", m.Category)
	}
}

func (m Mute) key() string {
	if m.Chain != "" {
		return keys.ChainMute(m.Chain)
	}
	return keys.AlerterMute(m.Alerter)
}

// applyResult counts what apply did
type applyResult struct {
	Written int
	Removed int
}

// apply writes every section in order and stops at the first failure.
// Configs marked remove are deleted only when present.
func (f *Fixture) apply(ctx context.Context, s Storer, kv KeyStore) (applyResult, error) {
	var res applyResult

	for i, e := range f.Entries {
		if err := s.Store(ctx, keys.Category(e.Category), e.Field, e.ID, e.Value); err != nil {
			return res, fmt.Errorf("entry %d (%s/%s/%s): %w", i, e.Category, e.Field, e.ID, err)
		}
		res.Written++
	}

	for i, h := range f.Hashes {
		fields := make(map[string][]byte, len(h.Metrics))
		for _, m := range h.Metrics {
			field, err := m.key()
			if err != nil {
				return res, fmt.Errorf("hash %d: %w", i, err)
			}
			data, err := json.Marshal(m.Value)
			if err != nil {
				return res, fmt.Errorf("hash %d: encode %s: %w", i, field, err)
			}
			fields[field] = data
		}
		if err := kv.HSetMultiple(ctx, keys.ParentHash(h.Parent), fields); err != nil {
			return res, fmt.Errorf("hash %d (%s): %w", i, h.Parent, err)
		}
		res.Written += len(fields)
	}

	for i, hb := range f.Heartbeats {
		if err := setJSON(ctx, kv, keys.ComponentHeartbeat(hb.Component), hb.Value); err != nil {
			return res, fmt.Errorf("heartbeat %d: %w", i, err)
		}
		res.Written++
	}

	for i, m := range f.Mutes {
		if err := setJSON(ctx, kv, m.key(), m.Value); err != nil {
			return res, fmt.Errorf("mute %d: %w", i, err)
		}
		res.Written++
	}

	for i, c := range f.Configs {
		key := keys.ConfigKey(c.RoutingKey)
		if !c.Remove {
			if err := setJSON(ctx, kv, key, c.Value); err != nil {
				return res, fmt.Errorf("config %d: %w", i, err)
			}
			res.Written++
			continue
		}

		exists, err := kv.Exists(ctx, key)
		if err != nil {
			return res, fmt.Errorf("config %d: %w", i, err)
		}
		if !exists {
			continue
		}
		n, err := kv.Remove(ctx, key)
		if err != nil {
			return res, fmt.Errorf("config %d: %w", i, err)
		}
		res.Removed += int(n)
	}

	return res, nil
}

func setJSON(ctx context.Context, kv KeyStore, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, data, 0)
}

// verify reads every key back and compares it with the fixture. It returns
// the number of keys checked.
func (f *Fixture) verify(ctx context.Context, kv KeyStore) (int, error) {
	checked := 0

	for _, e := range f.Entries {
		key, err := keys.BuildKey(keys.Category(e.Category), e.Field, keys.DefaultPostfix, e.ID)
		if err != nil {
			return checked, err
		}
		if err := expectValue(ctx, kv, key, e.Value); err != nil {
			return checked, err
		}
		checked++
	}

	for _, h := range f.Hashes {
		hash := keys.ParentHash(h.Parent)
		for _, m := range h.Metrics {
			field, err := m.key()
			if err != nil {
				return checked, err
			}
			got, found, err := kv.HGet(ctx, hash, field)
			if err != nil {
				return checked, err
			}
			if err := compare(hash+"["+field+"]", got, found, m.Value); err != nil {
				return checked, err
			}
			checked++
		}
	}

	for _, hb := range f.Heartbeats {
		if err := expectValue(ctx, kv, keys.ComponentHeartbeat(hb.Component), hb.Value); err != nil {
			return checked, err
		}
		checked++
	}

	for _, m := range f.Mutes {
		if err := expectValue(ctx, kv, m.key(), m.Value); err != nil {
			return checked, err
		}
		checked++
	}

	for _, c := range f.Configs {
		key := keys.ConfigKey(c.RoutingKey)
		if c.Remove {
			exists, err := kv.Exists(ctx, key)
			if err != nil {
				return checked, err
			}
			if exists {
				return checked, fmt.Errorf("%s: still present after removal", key)
			}
		} else if err := expectValue(ctx, kv, key, c.Value); err != nil {
			return checked, err
		}
		checked++
	}

	return checked, nil
}

func expectValue(ctx context.Context, kv KeyStore, key string, want any) error {
	got, found, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	return compare(key, got, found, want)
}

func compare(label string, got []byte, found bool, want any) error {
	if !found {
		return fmt.Errorf("%s: missing", label)
	}
	data, err := json.Marshal(want)
	if err != nil {
		return fmt.Errorf("%s: encode expected value: %w", label, err)
	}
	if !bytes.Equal(got, data) {
		return fmt.Errorf("%s: stored %s, want %s", label, got, data)
	}
	return nil
}
