// Package aggregate serves batched snapshots of monitorable entities.
//
// A fetch derives one key per entity through the keys registry, reads all of
// them with a single storeclient batched read and decodes each value on its
// own. One malformed value never fails the whole fetch: it is reported in
// Result.DecodeErrors and the entity maps to null, exactly like an entity the
// store has no value for. Values are matched back to entities by key, not
// by position.
//
//	svc, _ := aggregate.NewService(storeClient)
//	res, err := svc.MonitorablesInfo(ctx, []string{"cosmos", "general"})
//	// res marshals to {"cosmos": {...}, "general": null}
//
// Store writes a value under the same derived key, so producers and the
// dashboard agree on key layout.
package aggregate
