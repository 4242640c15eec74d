package sim

import (
	"fmt"

	"github.com/dgryski/go-farm"
	msgpack "github.com/shamaton/msgpack/v2"

	"github.com/tablelock-dev/tablelock/trace"
)

// Edge flag values.
const (
	FlagRequested = 0
	FlagHeld      = 1
)

// Edge is one allocation-graph entry: Flag is FlagHeld for a fork the agent
// possesses and FlagRequested for one it is waiting to acquire.
type Edge struct {
	Agent    int
	Resource int
	Flag     int
}

// ResourceGraph snapshots held and requested edges for every agent that is
// not thinking, in agent-id order. Eating agents contribute both forks as
// held; hungry agents contribute their left fork and, once holding it, their
// right fork as requested.
func (s *Simulation) ResourceGraph() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var edges []Edge
	for _, a := range s.agents {
		switch a.state {
		case Eating:
			edges = append(edges,
				Edge{Agent: a.id, Resource: a.left, Flag: FlagHeld},
				Edge{Agent: a.id, Resource: a.right, Flag: FlagHeld})
		case Hungry:
			if h, ok := s.forks[a.left].Holder(); ok && h == a.id {
				edges = append(edges,
					Edge{Agent: a.id, Resource: a.left, Flag: FlagHeld},
					Edge{Agent: a.id, Resource: a.right, Flag: FlagRequested})
			} else {
				edges = append(edges,
					Edge{Agent: a.id, Resource: a.left, Flag: FlagRequested})
			}
		}
	}
	return edges
}

// Fingerprint hashes the current allocation graph. Identical graphs produce
// identical fingerprints, so pollers can skip unchanged snapshots.
func (s *Simulation) Fingerprint() (uint64, error) {
	data, err := msgpack.Marshal(s.ResourceGraph())
	if err != nil {
		return 0, fmt.Errorf("serializing resource graph: %w", err)
	}
	return farm.Hash64(data), nil
}

// DetectDeadlock reports whether the current wait-for graph contains a
// cycle. It is a point-in-time snapshot check: callers re-invoke it
// periodically to catch deadlocks as they form. A detected cycle is also
// recorded in the event log, naming a member agent.
func (s *Simulation) DetectDeadlock() bool {
	s.mu.Lock()
	waitsFor := make(map[int]int)
	for _, a := range s.agents {
		if a.state != Hungry {
			continue
		}
		leftHolder, leftHeld := s.forks[a.left].Holder()
		if leftHolder != a.id {
			if leftHeld {
				waitsFor[a.id] = leftHolder
			}
			continue
		}
		if rightHolder, rightHeld := s.forks[a.right].Holder(); rightHeld && rightHolder != a.id {
			waitsFor[a.id] = rightHolder
		}
	}
	s.mu.Unlock()

	for start := range waitsFor {
		seen := make(map[int]bool)
		cur := start
		for {
			if seen[cur] {
				s.log.Append(cur, trace.KindDeadlock,
					fmt.Sprintf("wait-for cycle involving agent %d", cur))
				return true
			}
			seen[cur] = true
			next, ok := waitsFor[cur]
			if !ok {
				break
			}
			cur = next
		}
	}
	return false
}
