package storeclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/c360/panicstore/errors"
	"github.com/c360/panicstore/pkg/retry"
)

// ConnectionStatus represents the state of the store connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusTerminallyFailed
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusTerminallyFailed:
		return "terminally_failed"
	default:
		return "unknown"
	}
}

// Defaults applied by NewClient.
const (
	DefaultDB                = 10
	DefaultConnectTimeout    = 2 * time.Second
	DefaultHealthInterval    = 5 * time.Second
	DefaultSuperviseInterval = 3 * time.Second
)

// Status is a point-in-time snapshot of the connection manager
type Status struct {
	Status        ConnectionStatus
	RetryState    retry.State
	LastError     error
	Connects      int64
	LastConnected time.Time
}

// DialFunc opens a transport and proves it usable. It must return a nil
// client together with any error.
type DialFunc func(ctx context.Context, opts *redis.Options) (*redis.Client, error)

// BatchRead asks for several keys in one round trip.
type BatchRead struct {
	Keys []string
}

// Value is one entry of a batched read. Found is false when the store held
// nothing under Key.
type Value struct {
	Key   string
	Data  []byte
	Found bool
}

// Client owns the single logical connection to Redis and the reconnect cycle
// that restores it.
type Client struct {
	addr    string
	options redis.Options
	status  atomic.Value // stores ConnectionStatus
	logger  *slog.Logger

	policy retry.Policy
	clock  retry.Clock
	dial   DialFunc

	connectTimeout time.Duration

	// transport, swapped only on successful connect or drop
	conn *redis.Client
	mu   sync.RWMutex

	// reconnect cycle; at most one runs at a time
	cycleMu       sync.Mutex
	cycleActive   bool
	retryState    retry.State
	lastErr       error
	connects      int64
	lastConnected time.Time
	cycles        sync.WaitGroup

	metrics        *storeMetrics
	onStatusChange func(ConnectionStatus)

	healthInterval time.Duration
	healthDone     chan struct{}
	healthWG       sync.WaitGroup

	lifeCtx    context.Context
	lifeCancel context.CancelFunc
	closeMu    sync.Mutex
	closed     atomic.Bool
}

// NewClient creates a connection manager for the Redis server at addr
// (host:port). No connection is attempted until Connect.
func NewClient(addr string, opts ...ClientOption) (*Client, error) {
	if addr == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "StoreClient", "NewClient", "address required")
	}

	c := &Client{
		addr:           addr,
		logger:         slog.Default(),
		policy:         retry.DefaultPolicy(),
		clock:          retry.SystemClock(),
		dial:           dialRedis,
		connectTimeout: DefaultConnectTimeout,
		healthInterval: DefaultHealthInterval,
		options: redis.Options{
			Addr:       addr,
			DB:         DefaultDB,
			Protocol:   2,
			MaxRetries: -1, // reconnects are owned by the cycle, reads are never retried
		},
	}
	c.status.Store(StatusDisconnected)

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.policy.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "StoreClient", "NewClient", "validate retry policy")
	}

	c.options.DialTimeout = c.connectTimeout
	c.logger = c.logger.With("component", "storeclient", "addr", addr, "db", c.options.DB)
	c.lifeCtx, c.lifeCancel = context.WithCancel(context.Background())

	return c, nil
}

// dialRedis is the default DialFunc: build a client and PING it once.
func dialRedis(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Addr returns the configured server address
func (m *Client) Addr() string {
	return m.addr
}

// Status returns the current connection status
func (m *Client) Status() ConnectionStatus {
	if status, ok := m.status.Load().(ConnectionStatus); ok {
		return status
	}
	return StatusDisconnected
}

// IsReady reports whether reads are currently accepted.
func (m *Client) IsReady() bool {
	return m.Status() == StatusConnected
}

// RetryState returns the attempts and elapsed delay of the current cycle
func (m *Client) RetryState() retry.State {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	return m.retryState
}

// LastError returns the most recent connection failure, nil after a
// successful connect.
func (m *Client) LastError() error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	return m.lastErr
}

// GetStatus returns a consistent snapshot of the manager
func (m *Client) GetStatus() *Status {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	return &Status{
		Status:        m.Status(),
		RetryState:    m.retryState,
		LastError:     m.lastErr,
		Connects:      m.connects,
		LastConnected: m.lastConnected,
	}
}

// setStatus must not be called with mu held; callbacks may read the client.
func (m *Client) setStatus(status ConnectionStatus) {
	previous := m.Status()
	m.status.Store(status)
	m.metrics.recordStatus(status)
	if previous != status && m.onStatusChange != nil {
		m.onStatusChange(status)
	}
}

// Connect establishes the connection. It is a no-op while connected or
// while a cycle is already running. When the first dial fails the client
// moves to reconnecting, a background cycle takes over and the dial error is
// returned.
func (m *Client) Connect(ctx context.Context) error {
	m.cycleMu.Lock()
	if m.closed.Load() {
		m.cycleMu.Unlock()
		return errors.WrapFatal(errors.ErrStoreClosed, "StoreClient", "Connect", "connect closed client")
	}
	if m.cycleActive || m.Status() == StatusConnected {
		m.cycleMu.Unlock()
		return nil
	}
	m.cycleActive = true
	m.retryState.Reset()
	m.setStatus(StatusConnecting)
	m.cycleMu.Unlock()

	m.logger.Debug("connecting to store")

	conn, err := m.dialOnce(ctx)
	if err == nil {
		m.onConnected(conn)
		return nil
	}

	m.cycleMu.Lock()
	if m.closed.Load() {
		m.cycleActive = false
		m.cycleMu.Unlock()
		return errors.WrapFatal(errors.ErrStoreClosed, "StoreClient", "Connect", "client closed while dialing")
	}
	m.lastErr = err
	m.setStatus(StatusReconnecting)
	m.cycles.Add(1)
	m.cycleMu.Unlock()

	m.logger.Warn("store connection failed, reconnecting in background", "error", err)
	go m.reconnectLoop(m.lifeCtx)

	return errors.WrapTransient(err, "StoreClient", "Connect", fmt.Sprintf("dial %s", m.addr))
}

func (m *Client) dialOnce(ctx context.Context) (*redis.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	opts := m.options
	conn, err := m.dial(dialCtx, &opts)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, errors.ErrNoConnection
	}
	return conn, nil
}

// reconnectLoop runs one reconnect cycle until it connects, the policy
// gives up, or the client is closed. The caller adds to m.cycles while
// holding cycleMu so Close never waits on a cycle it cannot see.
func (m *Client) reconnectLoop(ctx context.Context) {
	defer m.cycles.Done()

	for {
		m.cycleMu.Lock()
		state := m.retryState
		m.cycleMu.Unlock()

		delay, err := m.policy.Next(state)
		if err != nil {
			m.terminate(err)
			return
		}

		if err := m.clock.Sleep(ctx, delay); err != nil {
			m.abandonCycle()
			return
		}

		m.cycleMu.Lock()
		m.retryState.Record(delay)
		attempt := m.retryState.Attempts
		m.cycleMu.Unlock()
		m.metrics.recordReconnectAttempt()

		conn, err := m.dialOnce(ctx)
		if err == nil {
			m.onConnected(conn)
			return
		}
		if ctx.Err() != nil {
			m.abandonCycle()
			return
		}

		m.cycleMu.Lock()
		m.lastErr = err
		m.cycleMu.Unlock()
		m.logger.Debug("reconnect attempt failed", "attempt", attempt, "delay", delay, "error", err)
	}
}

func (m *Client) terminate(err error) {
	m.cycleMu.Lock()
	state := m.retryState
	m.cycleActive = false
	if m.closed.Load() {
		m.cycleMu.Unlock()
		return
	}
	if m.lastErr != nil {
		err = fmt.Errorf("%w (last error: %v)", err, m.lastErr)
	}
	m.lastErr = err
	m.setStatus(StatusTerminallyFailed)
	m.cycleMu.Unlock()

	reason := "max_attempts"
	if stderrors.Is(err, retry.ErrMaxElapsedExceeded) {
		reason = "max_elapsed"
	}
	m.metrics.recordTerminalFailure(reason)
	m.logger.Error("store reconnect cycle gave up",
		"reason", reason, "attempts", state.Attempts, "elapsed", state.Elapsed, "error", err)
}

// abandonCycle ends a cycle interrupted by Close.
func (m *Client) abandonCycle() {
	m.cycleMu.Lock()
	m.cycleActive = false
	m.cycleMu.Unlock()
}

func (m *Client) onConnected(conn *redis.Client) {
	m.cycleMu.Lock()
	if m.closed.Load() {
		m.cycleActive = false
		m.cycleMu.Unlock()
		_ = conn.Close()
		return
	}

	m.mu.Lock()
	previous := m.conn
	m.conn = conn
	m.mu.Unlock()

	attempts := m.retryState.Attempts
	m.retryState.Reset()
	m.lastErr = nil
	m.connects++
	m.lastConnected = m.clock.Now()
	m.cycleActive = false
	m.setStatus(StatusConnected)
	m.cycleMu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	m.metrics.recordConnected(attempts > 0)
	m.logger.Info("connected to store", "attempts", attempts)
	m.startHealthMonitoring()
}

// handleDrop starts a fresh cycle after a connected transport failed.
func (m *Client) handleDrop(cause error) {
	m.cycleMu.Lock()
	if m.closed.Load() || m.cycleActive || m.Status() != StatusConnected {
		m.cycleMu.Unlock()
		return
	}
	m.cycleActive = true
	m.retryState.Reset()
	m.lastErr = cause
	m.setStatus(StatusReconnecting)
	m.cycles.Add(1)
	m.cycleMu.Unlock()

	m.mu.Lock()
	dropped := m.conn
	m.conn = nil
	m.mu.Unlock()
	if dropped != nil {
		_ = dropped.Close()
	}

	m.metrics.recordDrop()
	m.logger.Warn("store connection lost, reconnecting", "error", cause)
	go m.reconnectLoop(m.lifeCtx)
}

// isConnectionError separates transport failures from server replies,
// caller cancellation and local pool saturation.
func isConnectionError(err error) bool {
	if err == nil || stderrors.Is(err, redis.Nil) || stderrors.Is(err, redis.ErrPoolTimeout) {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var reply redis.Error
	return !stderrors.As(err, &reply)
}

// readyConn returns the transport or ErrStoreNotReady without waiting.
func (m *Client) readyConn(method string) (*redis.Client, error) {
	if m.closed.Load() {
		return nil, errors.WrapTransient(errors.ErrStoreNotReady, "StoreClient", method, "client closed")
	}
	if !m.IsReady() {
		return nil, errors.WrapTransient(errors.ErrStoreNotReady, "StoreClient", method,
			fmt.Sprintf("store %s", m.Status()))
	}

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn == nil {
		return nil, errors.WrapTransient(errors.ErrStoreNotReady, "StoreClient", method, "no transport")
	}
	return conn, nil
}

// observe feeds transport failures back into the connection lifecycle.
func (m *Client) observe(operation string, err error) {
	if err == nil || stderrors.Is(err, redis.Nil) {
		return
	}
	m.metrics.recordOperationError(operation)
	if isConnectionError(err) {
		m.handleDrop(err)
	}
}

// Execute performs a batched read with a single MGET. The returned values
// follow the order of req.Keys and each carries its key. It fails with
// ErrStoreNotReady, without blocking, unless the client is connected.
func (m *Client) Execute(ctx context.Context, req BatchRead) ([]Value, error) {
	conn, err := m.readyConn("Execute")
	if err != nil {
		return nil, err
	}
	if len(req.Keys) == 0 {
		return []Value{}, nil
	}

	start := time.Now()
	raw, err := conn.MGet(ctx, req.Keys...).Result()
	m.metrics.recordBatchRead(len(req.Keys), time.Since(start))
	if err != nil {
		m.observe("mget", err)
		return nil, errors.WrapTransient(err, "StoreClient", "Execute",
			fmt.Sprintf("batched read of %d keys", len(req.Keys)))
	}
	if len(raw) != len(req.Keys) {
		return nil, errors.WrapFatal(errors.ErrInvalidData, "StoreClient", "Execute",
			fmt.Sprintf("store returned %d values for %d keys", len(raw), len(req.Keys)))
	}

	values := make([]Value, len(req.Keys))
	for i, key := range req.Keys {
		values[i] = Value{Key: key}
		switch v := raw[i].(type) {
		case string:
			values[i].Data = []byte(v)
			values[i].Found = true
		case []byte:
			values[i].Data = v
			values[i].Found = true
		}
	}
	return values, nil
}

// Get reads a single key.
func (m *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	conn, err := m.readyConn("Get")
	if err != nil {
		return nil, false, err
	}

	data, err := conn.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		m.observe("get", err)
		return nil, false, errors.WrapTransient(err, "StoreClient", "Get", fmt.Sprintf("get %s", key))
	}
	return data, true, nil
}

// Set writes a single key; ttl of zero means no expiry.
func (m *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	conn, err := m.readyConn("Set")
	if err != nil {
		return err
	}

	if err := conn.Set(ctx, key, value, ttl).Err(); err != nil {
		m.observe("set", err)
		return errors.WrapTransient(err, "StoreClient", "Set", fmt.Sprintf("set %s", key))
	}
	return nil
}

// Remove deletes keys and returns how many existed.
func (m *Client) Remove(ctx context.Context, keys ...string) (int64, error) {
	conn, err := m.readyConn("Remove")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := conn.Del(ctx, keys...).Result()
	if err != nil {
		m.observe("del", err)
		return 0, errors.WrapTransient(err, "StoreClient", "Remove", "delete keys")
	}
	return n, nil
}

// Exists reports whether key is present.
func (m *Client) Exists(ctx context.Context, key string) (bool, error) {
	conn, err := m.readyConn("Exists")
	if err != nil {
		return false, err
	}

	n, err := conn.Exists(ctx, key).Result()
	if err != nil {
		m.observe("exists", err)
		return false, errors.WrapTransient(err, "StoreClient", "Exists", fmt.Sprintf("exists %s", key))
	}
	return n > 0, nil
}

// HSetMultiple writes several hash fields at once.
func (m *Client) HSetMultiple(ctx context.Context, key string, fields map[string][]byte) error {
	conn, err := m.readyConn("HSetMultiple")
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(fields))
	for field, value := range fields {
		values[field] = value
	}
	if err := conn.HSet(ctx, key, values).Err(); err != nil {
		m.observe("hset", err)
		return errors.WrapTransient(err, "StoreClient", "HSetMultiple", fmt.Sprintf("hset %s", key))
	}
	return nil
}

// HGet reads one hash field.
func (m *Client) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	conn, err := m.readyConn("HGet")
	if err != nil {
		return nil, false, err
	}

	data, err := conn.HGet(ctx, key, field).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		m.observe("hget", err)
		return nil, false, errors.WrapTransient(err, "StoreClient", "HGet",
			fmt.Sprintf("hget %s %s", key, field))
	}
	return data, true, nil
}

// Supervise calls Connect every interval until ctx is done, restarting
// cycles that ended in terminally_failed. Connect is a no-op while connected
// or reconnecting, so ticks never overlap a running cycle.
func (m *Client) Supervise(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSuperviseInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.closed.Load() {
				return
			}
			if m.IsReady() {
				continue
			}
			if err := m.Connect(ctx); err != nil {
				m.logger.Debug("supervisor connect failed", "error", err)
			}
		}
	}
}

// Close stops background work and releases the transport. The client cannot
// be reused afterwards.
func (m *Client) Close(ctx context.Context) error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()

	if m.closed.Load() {
		return nil
	}
	m.cycleMu.Lock()
	m.closed.Store(true)
	m.cycleMu.Unlock()
	m.lifeCancel()
	m.stopHealthMonitoring()

	done := make(chan struct{})
	go func() {
		m.cycles.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("close timed out waiting for reconnect cycle")
	}

	m.cycleMu.Lock()
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	m.setStatus(StatusDisconnected)
	m.cycleMu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			return errors.WrapTransient(err, "StoreClient", "Close", "close transport")
		}
	}
	return nil
}

func (m *Client) startHealthMonitoring() {
	if m.healthInterval <= 0 {
		return
	}

	m.mu.Lock()
	if m.healthDone != nil || m.closed.Load() {
		m.mu.Unlock()
		return
	}
	done := make(chan struct{})
	m.healthDone = done
	m.mu.Unlock()

	m.healthWG.Add(1)
	go func() {
		defer m.healthWG.Done()
		ticker := time.NewTicker(m.healthInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.checkHealth()
			}
		}
	}()
}

func (m *Client) checkHealth() {
	if !m.IsReady() {
		return
	}

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(m.lifeCtx, m.connectTimeout)
	defer cancel()

	if err := conn.Ping(ctx).Err(); err != nil && m.lifeCtx.Err() == nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", errors.ErrConnectionTimeout, err)
		}
		m.metrics.recordOperationError("ping")
		m.handleDrop(fmt.Errorf("%w: %v", errors.ErrConnectionLost, err))
	}
}

func (m *Client) stopHealthMonitoring() {
	m.mu.Lock()
	done := m.healthDone
	m.healthDone = nil
	m.mu.Unlock()

	if done != nil {
		close(done)
		m.healthWG.Wait()
	}
}
