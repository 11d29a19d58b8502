// Package retry provides the bounded backoff policy used by store reconnect cycles
package retry

import (
	"errors"
	"fmt"
	"time"
)

// Terminal outcomes of a reconnect cycle
var (
	ErrMaxAttemptsExceeded = errors.New("maximum retry attempts exceeded")
	ErrMaxElapsedExceeded  = errors.New("maximum retry time exceeded")
)

// Policy describes a linear backoff capped at MaxDelay and bounded both by
// attempt count and by the total time spent waiting.
type Policy struct {
	Step        time.Duration // Delay added per attempt
	MaxDelay    time.Duration // Upper bound for a single delay
	MaxAttempts int           // Attempts allowed before the cycle is abandoned
	MaxElapsed  time.Duration // Total wait allowed before the cycle is abandoned
}

// DefaultPolicy returns the reconnect policy used against the store:
// min(attempt*100ms, 3s), at most 10 attempts or one hour of waiting.
func DefaultPolicy() Policy {
	return Policy{
		Step:        100 * time.Millisecond,
		MaxDelay:    3 * time.Second,
		MaxAttempts: 10,
		MaxElapsed:  time.Hour,
	}
}

// Validate checks the policy bounds
func (p Policy) Validate() error {
	if p.Step <= 0 {
		return errors.New("retry: Step must be positive")
	}
	if p.MaxDelay < p.Step {
		return errors.New("retry: MaxDelay must be >= Step")
	}
	if p.MaxAttempts < 1 {
		return errors.New("retry: MaxAttempts must be at least 1")
	}
	if p.MaxElapsed <= 0 {
		return errors.New("retry: MaxElapsed must be positive")
	}
	return nil
}

// Delay returns the wait before the given 1-based attempt
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Duration(attempt) * p.Step
	if delay > p.MaxDelay || delay < 0 {
		return p.MaxDelay
	}
	return delay
}

// Next decides the outcome after a failed connection attempt. It returns the
// delay to wait before the next attempt, or a terminal error when the cycle
// must be abandoned. The elapsed bound is checked before the attempt bound.
func (p Policy) Next(s State) (time.Duration, error) {
	attempt := s.Attempts + 1
	delay := p.Delay(attempt)

	if s.Elapsed > p.MaxElapsed {
		return 0, fmt.Errorf("%w: waited %v over %d attempts", ErrMaxElapsedExceeded, s.Elapsed, s.Attempts)
	}
	if attempt > p.MaxAttempts {
		return 0, fmt.Errorf("%w: %d attempts", ErrMaxAttemptsExceeded, s.Attempts)
	}
	return delay, nil
}

// IsTerminal reports whether err ends a reconnect cycle
func IsTerminal(err error) bool {
	return errors.Is(err, ErrMaxAttemptsExceeded) || errors.Is(err, ErrMaxElapsedExceeded)
}

// State tracks one reconnect cycle. Attempts and Elapsed only grow within a
// cycle and are cleared together.
type State struct {
	Attempts int
	Elapsed  time.Duration
}

// Record accounts for one completed wait
func (s *State) Record(delay time.Duration) {
	s.Attempts++
	s.Elapsed += delay
}

// Reset clears the cycle
func (s *State) Reset() {
	*s = State{}
}
