//go:build integration

package storeclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/panicstore/errors"
	"github.com/c360/panicstore/pkg/retry"
)

// sharedDB keeps the shared container's data apart from DefaultDB
const sharedDB = 11

var shared *TestClient

func TestMain(m *testing.M) {
	tc, err := NewSharedTestClient(
		WithRedisVersion("7.4-alpine"),
		WithTestDB(sharedDB),
		WithStartTimeout(time.Minute),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis test container: %v\n", err)
		os.Exit(1)
	}
	shared = tc

	code := m.Run()
	tc.Terminate()
	os.Exit(code)
}

func TestIntegration_BatchReadAgainstRedis(t *testing.T) {
	ctx := context.Background()
	key := "bc1_cosmos_" + t.Name()
	t.Cleanup(func() { _, _ = shared.Client.Remove(context.Background(), key) })

	require.NoError(t, shared.Client.Set(ctx, key, []byte(`{"chains":{}}`), 0))

	values, err := shared.Client.Execute(ctx, BatchRead{Keys: []string{key, "bc1_general_" + t.Name()}})
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.True(t, values[0].Found)
	assert.False(t, values[1].Found)
}

func TestIntegration_SelectedDBIsIsolated(t *testing.T) {
	ctx := context.Background()
	key := "c1_" + t.Name()
	t.Cleanup(func() { _, _ = shared.Client.Remove(context.Background(), key) })
	require.NoError(t, shared.Client.Set(ctx, key, []byte(`1`), 0))

	other, err := NewClient(shared.Addr, WithHealthInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close(context.Background()) })
	require.NoError(t, other.Connect(ctx))

	exists, err := other.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists, "key written to db %d must not be visible in db %d", sharedDB, DefaultDB)

	exists, err = shared.Client.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIntegration_ReconnectAfterContainerRestart(t *testing.T) {
	tc := NewTestClient(t)
	ctx := context.Background()

	client, err := NewClient(tc.Addr,
		WithPolicy(retry.Policy{Step: 100 * time.Millisecond, MaxDelay: time.Second, MaxAttempts: 100, MaxElapsed: time.Hour}),
		WithHealthInterval(100*time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	require.NoError(t, client.Connect(ctx))

	stopTimeout := time.Second
	require.NoError(t, tc.Container().Stop(ctx, &stopTimeout))
	require.Eventually(t, func() bool { return !client.IsReady() }, 10*time.Second, 50*time.Millisecond)

	_, err = client.Execute(ctx, BatchRead{Keys: []string{"k"}})
	assert.True(t, stderrors.Is(err, errors.ErrStoreNotReady))

	require.NoError(t, tc.Container().Start(ctx))
	// the mapped port may change after a restart
	port, err := tc.Container().MappedPort(ctx, "6379")
	require.NoError(t, err)
	if host, _ := tc.Container().Host(ctx); host+":"+port.Port() != tc.Addr {
		t.Skip("container restarted on a different port")
	}
	require.Eventually(t, client.IsReady, 30*time.Second, 100*time.Millisecond)
}
