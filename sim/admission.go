package sim

// StarvationThreshold is the failed-attempt count beyond which an agent is
// treated as priority-eligible over less-starved competitors.
const StarvationThreshold = 10

// RequestPermission decides whether agent agentID may proceed to attempt a
// non-blocking acquisition of fork forkID. The decision is made atomically
// with a read of the shared state, but a grant can go stale before the
// acquire executes; callers treat a failed acquire as an ordinary retry.
//
// The gates run in order: a cheap held pre-check, the anti-starvation yield,
// then the configured safety strategy.
func (s *Simulation) RequestPermission(agentID, forkID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.forks[forkID].Holder(); held {
		return false
	}

	// Yield to any more-starved competitor: an agent with fewer failures
	// always defers to a hungry rival past the threshold, bounding the
	// rival's worst-case wait.
	a := s.agents[agentID]
	for _, id := range a.competitors {
		rival := s.agents[id]
		if rival.state == Hungry &&
			rival.waitCount > s.starvationThreshold &&
			rival.waitCount > a.waitCount {
			return false
		}
	}

	if s.strategy == StrategyBanker {
		return s.isSafe(agentID, forkID)
	}
	return true
}
