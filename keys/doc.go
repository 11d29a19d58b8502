// Package keys maps semantic entity categories to the short key fragments used in the store.
//
// A concrete store key is fragment + postfix + entity identifier:
//
//	key, err := keys.BuildKey(keys.CategorySystem, "system_cpu_usage", "_", "system_1")
//	// key == "s5_system_1"
//
// The schema is immutable and defined at process start. BuildKey is a pure function,
// so independent writers and readers derive the same key for the same entity.
// Requesting a field the category does not define fails with errors.ErrUnknownKeyField.
package keys
