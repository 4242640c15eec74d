package sim

// maxNeed is every agent's fixed maximum resource need: one fork per side.
const maxNeed = 2

// isSafe runs the banker's safety check for granting forkID to agentID:
// simulate the grant, then verify every agent can still run to completion.
// A pass over the unfinished agents that finishes nobody means an
// irreducible cycle of unmet need exists and the grant is unsafe.
//
// Agents are scanned in id order; safety does not depend on the order, only
// the particular completion sequence found does. Callers must hold s.mu.
func (s *Simulation) isSafe(agentID, forkID int) bool {
	holder := make([]int, len(s.forks))
	available := make([]bool, len(s.forks))
	for i, f := range s.forks {
		if h, ok := f.Holder(); ok {
			holder[i] = h
		} else {
			holder[i] = NoHolder
			available[i] = true
		}
	}
	need := make([]int, len(s.agents))
	for i := range need {
		need[i] = maxNeed
	}
	for _, h := range holder {
		if h != NoHolder {
			need[h]--
		}
	}

	if !available[forkID] {
		return false
	}
	// Simulate the grant.
	available[forkID] = false
	holder[forkID] = agentID
	need[agentID]--

	obtainable := func(agent, fork int) bool {
		return holder[fork] == agent || available[fork]
	}

	finished := make([]bool, len(s.agents))
	remaining := len(s.agents)
	for remaining > 0 {
		progress := false
		for i, a := range s.agents {
			if finished[i] {
				continue
			}
			if need[i] > 0 && !(obtainable(i, a.left) && obtainable(i, a.right)) {
				continue
			}
			// The agent can finish; its holdings free up for the rest of
			// this pass.
			for r, h := range holder {
				if h == i {
					holder[r] = NoHolder
					available[r] = true
				}
			}
			finished[i] = true
			remaining--
			progress = true
		}
		if !progress {
			return false
		}
	}
	return true
}
