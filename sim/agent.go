package sim

import (
	"math/rand"
)

// Agent is one philosopher. left, right and competitors are fixed at
// construction; state and the counters are guarded by the owning
// Simulation's state mutex.
type Agent struct {
	id          int
	left, right int
	competitors []int

	state        State
	waitCount    int
	maxWaitCount int
	eatCount     int
}

// Abstract time-unit constants of the agent cycle. The think and eat
// intervals share one distribution; the right-fork backoff is a tenth of a
// fresh think draw.
const (
	intervalMin  = 500
	intervalMax  = 1000
	retryBackoff = 50
)

func uniform(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// agentLoop runs one agent's think/hunger/eat cycle until the shutdown flag
// is observed at a loop head. Sleeps always complete; shutdown is cooperative.
func (s *Simulation) agentLoop(a *Agent, rng *rand.Rand) {
	defer s.wg.Done()
	s.setThinking(a)
	for !s.shutdown.Load() {
		s.sleep(uniform(rng, intervalMin, intervalMax))
		if s.shutdown.Load() {
			return
		}
		s.setHungry(a)
		eaten := false
		for !s.shutdown.Load() && !eaten {
			eaten = s.tryDine(a, rng)
		}
	}
}

// tryDine runs one pass of the acquisition protocol and reports whether the
// agent ate. Any denial or lost race increments the agent's wait count and
// backs off before the caller retries.
func (s *Simulation) tryDine(a *Agent, rng *rand.Rand) bool {
	if !s.RequestPermission(a.id, a.left) {
		s.recordFailure(a)
		s.sleep(retryBackoff)
		return false
	}
	left, ok := s.forks[a.left].TryAcquire(a.id)
	if !ok {
		// The permission went stale before the acquire; an ordinary retry.
		s.recordFailure(a)
		s.sleep(retryBackoff)
		return false
	}
	// Holding the left fork while waiting for the right is the hold-and-wait
	// pattern that breeds deadlock: any trouble with the right fork means the
	// left one goes back before retrying.
	if !s.RequestPermission(a.id, a.right) {
		left.Release()
		s.recordFailure(a)
		s.sleep(uniform(rng, intervalMin, intervalMax) / 10)
		return false
	}
	right, ok := s.forks[a.right].TryAcquire(a.id)
	if !ok {
		left.Release()
		s.recordFailure(a)
		s.sleep(uniform(rng, intervalMin, intervalMax) / 10)
		return false
	}
	s.beginEating(a)
	s.sleep(uniform(rng, intervalMin, intervalMax))
	// Leave the Eating state before putting the forks down, so an Eating
	// agent observed in any snapshot always possesses both of its forks.
	s.setThinking(a)
	right.Release()
	left.Release()
	return true
}
