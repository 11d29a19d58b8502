package testutil

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/c360/panicstore/storeclient"
)

// StartRedis runs an in-process Redis and returns a connected client for it.
// Both are closed when the test ends.
func StartRedis(t *testing.T, opts ...storeclient.ClientOption) (*miniredis.Miniredis, *storeclient.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	opts = append([]storeclient.ClientOption{storeclient.WithHealthInterval(0)}, opts...)
	client, err := storeclient.NewClient(mr.Addr(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	require.NoError(t, client.Connect(context.Background()))
	return mr, client
}

// Seed writes raw values into the database the client reads from
func Seed(t *testing.T, mr *miniredis.Miniredis, values map[string]string) {
	t.Helper()
	db := mr.DB(storeclient.DefaultDB)
	for k, v := range values {
		require.NoError(t, db.Set(k, v))
	}
}
