// Package testutil provides shared test helpers: an in-memory MockStore that
// records batched reads, StartRedis for tests that need a real protocol
// round trip through storeclient, and sample dashboard values.
//
//	store := testutil.NewMockStore(testutil.DashboardValues())
//	svc, _ := aggregate.NewService(store)
//	...
//	assert.Equal(t, 1, store.Reads())
package testutil
