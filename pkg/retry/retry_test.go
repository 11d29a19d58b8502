package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_DelaySequence(t *testing.T) {
	p := DefaultPolicy()

	for k := 1; k <= 40; k++ {
		expected := time.Duration(k) * 100 * time.Millisecond
		if expected > 3*time.Second {
			expected = 3 * time.Second
		}
		assert.Equal(t, expected, p.Delay(k), "attempt %d", k)
	}

	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
}

func TestPolicy_TerminalAfterTenAttempts(t *testing.T) {
	p := DefaultPolicy()
	var st State

	for k := 1; k <= 10; k++ {
		delay, err := p.Next(st)
		require.NoError(t, err, "attempt %d", k)
		assert.Equal(t, time.Duration(k)*100*time.Millisecond, delay)
		st.Record(delay)
	}

	// 11th attempt exceeds the bound
	_, err := p.Next(st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxAttemptsExceeded))
	assert.True(t, IsTerminal(err))
	assert.Equal(t, 10, st.Attempts)
	assert.Equal(t, 5500*time.Millisecond, st.Elapsed)
}

func TestPolicy_ElapsedCheckedFirst(t *testing.T) {
	p := Policy{
		Step:        time.Second,
		MaxDelay:    time.Second,
		MaxAttempts: 3,
		MaxElapsed:  2 * time.Second,
	}

	st := State{Attempts: 5, Elapsed: 3 * time.Second}
	_, err := p.Next(st)
	assert.True(t, errors.Is(err, ErrMaxElapsedExceeded))
	assert.False(t, errors.Is(err, ErrMaxAttemptsExceeded))
}

func TestPolicy_ElapsedAtBoundIsAllowed(t *testing.T) {
	p := Policy{
		Step:        time.Second,
		MaxDelay:    time.Second,
		MaxAttempts: 100,
		MaxElapsed:  2 * time.Second,
	}

	delay, err := p.Next(State{Attempts: 2, Elapsed: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, time.Second, delay)
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	tests := []struct {
		name   string
		policy Policy
	}{
		{"zero step", Policy{Step: 0, MaxDelay: time.Second, MaxAttempts: 1, MaxElapsed: time.Minute}},
		{"max delay below step", Policy{Step: time.Second, MaxDelay: time.Millisecond, MaxAttempts: 1, MaxElapsed: time.Minute}},
		{"no attempts", Policy{Step: time.Millisecond, MaxDelay: time.Second, MaxAttempts: 0, MaxElapsed: time.Minute}},
		{"no elapsed budget", Policy{Step: time.Millisecond, MaxDelay: time.Second, MaxAttempts: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.policy.Validate())
		})
	}
}

func TestState_RecordAndReset(t *testing.T) {
	var st State
	st.Record(100 * time.Millisecond)
	st.Record(200 * time.Millisecond)

	assert.Equal(t, 2, st.Attempts)
	assert.Equal(t, 300*time.Millisecond, st.Elapsed)

	st.Reset()
	assert.Equal(t, State{}, st)
}

func TestFakeClock_RecordsSleeps(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	require.NoError(t, clock.Sleep(context.Background(), 100*time.Millisecond))
	require.NoError(t, clock.Sleep(context.Background(), 200*time.Millisecond))

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, clock.Sleeps())
	assert.Equal(t, start.Add(300*time.Millisecond), clock.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, clock.Sleep(ctx, time.Second), context.Canceled)
	assert.Len(t, clock.Sleeps(), 2)
}

func TestSystemClock_SleepCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := SystemClock().Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
