// Package timer implements the search clock: a background goroutine that
// flips the shared cancellation flag once a computed wall-clock budget
// elapses. It owns nothing but the duration and a reference to that flag.
package timer

import (
	"time"

	"go.uber.org/atomic"
)

// pollInterval bounds how long the timer can overrun its budget by — never
// more than this, per the concurrency model's <=10ms requirement.
const pollInterval = 10 * time.Millisecond

// MoveTime computes the search budget for the side to move when no explicit
// movetime was given: remaining/20 + increment/2.
func MoveTime(remaining, increment time.Duration) time.Duration {
	return remaining/20 + increment/2
}

// Start spawns a goroutine that sleeps in short intervals and sets searching
// to false once budget has elapsed. It returns a stop function the caller
// should invoke once the search finishes on its own, to let the goroutine
// exit early instead of sleeping out its full budget.
//
// Start does nothing and returns a no-op stop function when infinite is
// true — no timer is started for an infinite search.
func Start(searching *atomic.Bool, budget time.Duration, infinite bool) (stop func()) {
	if infinite {
		return func() {}
	}

	done := make(chan struct{})
	go run(searching, budget, done)
	return func() { close(done) }
}

func run(searching *atomic.Bool, budget time.Duration, done <-chan struct{}) {
	deadline := time.Now().Add(budget)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			if !now.Before(deadline) {
				searching.Store(false)
				return
			}
		}
	}
}
