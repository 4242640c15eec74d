package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tablelock-dev/tablelock/trace"
)

// Simulation owns the agents, forks and event log of one run. Construct it
// with New, then drive it through Start/Stop and the query methods. All
// methods are safe for concurrent use; Unit is the only field meant to be
// set directly, and only before Start.
type Simulation struct {
	// RunID identifies this simulation in events and trace files.
	RunID string

	// Unit scales abstract time units (think/eat intervals, backoffs) to
	// wall-clock durations. Defaults to one millisecond.
	Unit time.Duration

	agents []*Agent
	forks  []*Fork

	mu       sync.Mutex // guards agent states/counters and strategy
	strategy Strategy

	starvationThreshold int

	log *trace.Log

	running  atomic.Bool
	shutdown atomic.Bool
	wg       sync.WaitGroup
}

// New builds a simulation of numAgents agents competing for numForks forks.
// Both counts must be positive. Agent i is assigned the left fork
// floor(i*numForks/numAgents) and the right fork one past it, which
// tolerates unequal agent and fork counts; the same mapping feeds the
// acquisition protocol, the graph, the detector and the banker.
func New(numAgents, numForks int) (*Simulation, error) {
	if numAgents <= 0 {
		return nil, fmt.Errorf("number of agents must be positive, got %d", numAgents)
	}
	if numForks <= 0 {
		return nil, fmt.Errorf("number of forks must be positive, got %d", numForks)
	}
	s := &Simulation{
		RunID:               uuid.NewString(),
		Unit:                time.Millisecond,
		starvationThreshold: StarvationThreshold,
		log:                 trace.NewLog(trace.DefaultCapacity),
	}
	for i := 0; i < numForks; i++ {
		s.forks = append(s.forks, newFork(i))
	}
	for i := 0; i < numAgents; i++ {
		left := i * numForks / numAgents
		s.agents = append(s.agents, &Agent{
			id:    i,
			left:  left,
			right: (left + 1) % numForks,
		})
	}
	// Competitors: agents sharing at least one fork. Fixed from here on.
	for _, a := range s.agents {
		for _, b := range s.agents {
			if a.id == b.id {
				continue
			}
			if a.left == b.left || a.left == b.right || a.right == b.left || a.right == b.right {
				a.competitors = append(a.competitors, b.id)
			}
		}
	}
	return s, nil
}

// NumAgents returns the number of agents in the simulation.
func (s *Simulation) NumAgents() int { return len(s.agents) }

// NumForks returns the number of forks in the simulation.
func (s *Simulation) NumForks() int { return len(s.forks) }

// Running reports whether agent tasks are currently live.
func (s *Simulation) Running() bool { return s.running.Load() }

// Start spawns one task per agent. Calling it while the simulation is
// already running is a no-op.
func (s *Simulation) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.shutdown.Store(false)
	s.log.Append(trace.SystemAgent, trace.KindSystem, "started run "+s.RunID)
	log.Debug().Str("run", s.RunID).
		Int("agents", len(s.agents)).
		Int("forks", len(s.forks)).
		Msg("simulation started")
	for _, a := range s.agents {
		s.wg.Add(1)
		rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(a.id)))
		go s.agentLoop(a, rng)
	}
}

// Stop signals shutdown and blocks until every agent task has exited, then
// records per-agent summary events and a system stop event. Stopping an
// already-stopped simulation is a no-op. Once Stop returns, no agent task
// references the simulation's state anymore.
func (s *Simulation) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.shutdown.Store(true)
	s.wg.Wait()

	s.mu.Lock()
	summaries := make([]string, len(s.agents))
	for i, a := range s.agents {
		summaries[i] = fmt.Sprintf("meals=%d max_wait=%d", a.eatCount, a.maxWaitCount)
	}
	s.mu.Unlock()
	for id, detail := range summaries {
		s.log.Append(id, trace.KindSummary, detail)
	}
	s.log.Append(trace.SystemAgent, trace.KindSystem, "stopped")
	log.Debug().Str("run", s.RunID).Msg("simulation stopped")
}

// SetStrategy switches the admission policy for subsequent permission
// checks. It may be called while the simulation is running.
func (s *Simulation) SetStrategy(st Strategy) {
	s.mu.Lock()
	s.strategy = st
	s.mu.Unlock()
	s.log.Append(trace.SystemAgent, trace.KindSystem, "strategy "+st.String())
}

// SetStrategyCode is the integer-coded form of SetStrategy: 1 selects the
// banker, everything else selects none.
func (s *Simulation) SetStrategyCode(code int) {
	s.SetStrategy(StrategyFromCode(code))
}

// Strategy returns the admission policy currently in force.
func (s *Simulation) Strategy() Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

// States returns each agent's current phase, indexed by agent id.
func (s *Simulation) States() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]State, len(s.agents))
	for i, a := range s.agents {
		out[i] = a.state
	}
	return out
}

// AgentStats is a point-in-time copy of one agent's counters.
type AgentStats struct {
	ID           int
	State        State
	EatCount     int
	WaitCount    int
	MaxWaitCount int
}

// Stats snapshots every agent's counters in one consistent read.
func (s *Simulation) Stats() []AgentStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AgentStats, len(s.agents))
	for i, a := range s.agents {
		out[i] = AgentStats{
			ID:           a.id,
			State:        a.state,
			EatCount:     a.eatCount,
			WaitCount:    a.waitCount,
			MaxWaitCount: a.maxWaitCount,
		}
	}
	return out
}

// PollEvents drains the event log.
func (s *Simulation) PollEvents() []trace.Event {
	return s.log.Poll()
}

// sleep pauses for the given number of abstract time units. Sleeps are never
// interrupted; shutdown is only observed at loop heads.
func (s *Simulation) sleep(units int) {
	time.Sleep(time.Duration(units) * s.Unit)
}

func (s *Simulation) setThinking(a *Agent) {
	s.mu.Lock()
	a.state = Thinking
	s.mu.Unlock()
	s.log.Append(a.id, trace.KindState, Thinking.String())
}

func (s *Simulation) setHungry(a *Agent) {
	s.mu.Lock()
	a.state = Hungry
	a.waitCount = 0
	s.mu.Unlock()
	s.log.Append(a.id, trace.KindState, Hungry.String())
}

// recordFailure counts one failed acquisition attempt and keeps the
// high-water mark current even for agents that never get to eat.
func (s *Simulation) recordFailure(a *Agent) {
	s.mu.Lock()
	a.waitCount++
	if a.waitCount > a.maxWaitCount {
		a.maxWaitCount = a.waitCount
	}
	s.mu.Unlock()
}

func (s *Simulation) beginEating(a *Agent) {
	s.mu.Lock()
	a.state = Eating
	a.eatCount++
	if a.waitCount > a.maxWaitCount {
		a.maxWaitCount = a.waitCount
	}
	a.waitCount = 0
	s.mu.Unlock()
	s.log.Append(a.id, trace.KindState, Eating.String())
}
