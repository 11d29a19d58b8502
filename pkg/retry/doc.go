// Package retry provides the bounded backoff policy that governs store reconnect cycles.
//
// # Overview
//
// A reconnect cycle starts when a connection attempt fails and ends either with a
// successful connection or with a terminal error. The policy is an explicit state
// machine: the caller owns a State, asks the Policy what to do next, waits the
// returned delay on a Clock and records the wait.
//
//	var st retry.State
//	for {
//	    delay, err := policy.Next(st)
//	    if err != nil {
//	        return err // ErrMaxAttemptsExceeded or ErrMaxElapsedExceeded
//	    }
//	    if err := clock.Sleep(ctx, delay); err != nil {
//	        return err
//	    }
//	    st.Record(delay)
//	    if dial() == nil {
//	        st.Reset()
//	        return nil
//	    }
//	}
//
// # Default Policy
//
// DefaultPolicy waits min(attempt*100ms, 3s) before each attempt, gives up after
// 10 attempts or after one hour of accumulated waiting, whichever comes first.
//
// # Testing
//
// FakeClock satisfies Clock without real waits and records every delay, so backoff
// sequences can be asserted exactly.
package retry
