// Package storeclient manages the single logical connection to the Redis
// store that backs the dashboard.
//
// The Client moves through five states:
//
//	disconnected -> connecting -> connected
//	                     |            |
//	                     v            v (drop: ping or transport error)
//	               reconnecting <-----+
//	                     |
//	                     v (retry.Policy bound reached)
//	              terminally_failed
//
// Connect is idempotent: it does nothing while connected or while a cycle is
// running. When a dial fails a background cycle retries with the linear,
// capped delay of retry.Policy and gives up with ErrMaxRetryAttemptsExceeded
// or ErrMaxRetryTimeExceeded. Supervise re-invokes Connect on a timer so a
// terminally failed cycle is eventually replaced by a fresh one.
//
// Reads never wait for the connection. Execute, Get and the other commands
// return ErrStoreNotReady unless the client is connected, and a transport
// failure observed by any of them starts a new reconnect cycle. Server error
// replies and caller cancellation leave the connection alone.
//
// Basic usage:
//
//	client, err := storeclient.NewClient("127.0.0.1:6379",
//	    storeclient.WithDB(10),
//	    storeclient.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	if err := client.Connect(ctx); err != nil {
//	    logger.Warn("store unavailable, reconnecting", "error", err)
//	}
//	go client.Supervise(ctx, storeclient.DefaultSuperviseInterval)
//
//	values, err := client.Execute(ctx, storeclient.BatchRead{Keys: keys})
package storeclient
