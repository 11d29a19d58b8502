package keys

import (
	"fmt"
	"sort"

	"github.com/c360/panicstore/errors"
)

// Category names a group of related fields sharing a key-fragment namespace
type Category string

// Registered categories
const (
	CategoryHash      Category = "hash"
	CategoryAlerter   Category = "alerter"
	CategorySystem    Category = "system"
	CategoryGitHub    Category = "github"
	CategoryComponent Category = "component"
	CategoryChain     Category = "chain"
	CategoryConfig    Category = "config"
	CategoryAlert     Category = "alert"
	CategoryBaseChain Category = "base_chain"
)

// String returns the category name
func (c Category) String() string {
	return string(c)
}

// DefaultPostfix separates a fragment from the entity identifier
const DefaultPostfix = "_"

// Field names that other packages refer to directly
const (
	FieldParent           = "parent"
	FieldMute             = "mute"
	FieldNoOfReleases     = "no_of_releases"
	FieldLastMonitored    = "last_monitored"
	FieldHeartbeat        = "heartbeat"
	FieldMuteAlerts       = "mute_alerts"
	FieldConfig           = "config"
	FieldMonitorablesInfo = "monitorables_info"
)

// schema is fixed at process start and never mutated afterwards.
var schema = map[Category]map[string]string{
	CategoryHash: {
		FieldParent: "hash_p1",
	},
	CategoryAlerter: {
		FieldMute: "a1",
	},
	CategorySystem: {
		"process_cpu_seconds_total":         "s1",
		"process_memory_usage":              "s2",
		"virtual_memory_usage":              "s3",
		"open_file_descriptors":             "s4",
		"system_cpu_usage":                  "s5",
		"system_ram_usage":                  "s6",
		"system_storage_usage":              "s7",
		"network_transmit_bytes_per_second": "s8",
		"network_receive_bytes_per_second":  "s9",
		"network_receive_bytes_total":       "s10",
		"network_transmit_bytes_total":      "s11",
		"disk_io_time_seconds_total":        "s12",
		"disk_io_time_seconds_in_interval":  "s13",
		FieldLastMonitored:                  "s14",
		"system_went_down_at":               "s15",
	},
	CategoryGitHub: {
		FieldNoOfReleases:  "gh1",
		FieldLastMonitored: "gh2",
	},
	CategoryComponent: {
		FieldHeartbeat: "c1",
	},
	CategoryChain: {
		FieldMuteAlerts: "ch1",
	},
	CategoryConfig: {
		FieldConfig: "conf1",
	},
	CategoryAlert: {
		"open_file_descriptors": "alert1",
		"system_cpu_usage":      "alert2",
		"system_storage_usage":  "alert3",
		"system_ram_usage":      "alert4",
		"system_is_down":        "alert5",
		"metric_not_found":      "alert6",
		"invalid_url":           "alert7",
		"github_release":        "alert8",
		"cannot_access_github":  "alert9",
	},
	CategoryBaseChain: {
		FieldMonitorablesInfo: "bc1",
	},
}

// baseChains is the closed list of chain families the dashboard groups monitorables by
var baseChains = []string{"cosmos", "general", "chainlink", "substrate"}

// Fragment returns the short key fragment registered for field in category
func Fragment(category Category, field string) (string, error) {
	fields, ok := schema[category]
	if !ok {
		return "", errors.WrapFatal(errors.ErrUnknownKeyField, "keys", "Fragment",
			fmt.Sprintf("resolve category %q", category))
	}
	fragment, ok := fields[field]
	if !ok {
		return "", errors.WrapFatal(errors.ErrUnknownKeyField, "keys", "Fragment",
			fmt.Sprintf("resolve field %q in category %q", field, category))
	}
	return fragment, nil
}

// BuildKey derives the concrete store key fragment+postfix+entityID.
// Identical inputs always produce the identical key, so the write and read
// paths agree without coordination.
func BuildKey(category Category, field, postfix, entityID string) (string, error) {
	fragment, err := Fragment(category, field)
	if err != nil {
		return "", err
	}
	return fragment + postfix + entityID, nil
}

// MustBuildKey is BuildKey for statically known category/field pairs
func MustBuildKey(category Category, field, postfix, entityID string) string {
	key, err := BuildKey(category, field, postfix, entityID)
	if err != nil {
		panic(err)
	}
	return key
}

// Fields returns a copy of the field → fragment mapping for category
func Fields(category Category) (map[string]string, bool) {
	return WithPostfix(category, "")
}

// WithPostfix returns a copy of the category's mapping with postfix appended to every fragment
func WithPostfix(category Category, postfix string) (map[string]string, bool) {
	fields, ok := schema[category]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(fields))
	for field, fragment := range fields {
		out[field] = fragment + postfix
	}
	return out, true
}

// HasField reports whether field is defined for category
func HasField(category Category, field string) bool {
	_, err := Fragment(category, field)
	return err == nil
}

// IsCategory reports whether name is a registered category
func IsCategory(name string) bool {
	_, ok := schema[Category(name)]
	return ok
}

// Categories returns the registered categories in name order
func Categories() []Category {
	out := make([]Category, 0, len(schema))
	for c := range schema {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BaseChains returns the closed list of base chains
func BaseChains() []string {
	out := make([]string, len(baseChains))
	copy(out, baseChains)
	return out
}

// IsBaseChain reports whether name is one of the base chains
func IsBaseChain(name string) bool {
	for _, bc := range baseChains {
		if bc == name {
			return true
		}
	}
	return false
}
