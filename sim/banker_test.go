package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankerDeniesUnsafeGrant(t *testing.T) {
	s := mustSim(t, 5, 5)
	s.SetStrategy(StrategyBanker)

	// Agents 0..3 each hold their left fork; only fork 4 remains free.
	var claims []*Claim
	for i := 0; i < 4; i++ {
		c, ok := s.forks[i].TryAcquire(i)
		require.True(t, ok)
		claims = append(claims, c)
		s.agents[i].state = Hungry
	}
	defer func() {
		for _, c := range claims {
			c.Release()
		}
	}()
	s.agents[4].state = Hungry

	// Granting agent 4 the last fork would leave every agent one short of
	// its need with nothing left to hand out.
	assert.False(t, s.RequestPermission(4, 4))

	// The naive strategy has no such qualms.
	s.SetStrategy(StrategyNone)
	assert.True(t, s.RequestPermission(4, 4))
}

func TestBankerGrantsSafeGrant(t *testing.T) {
	s := mustSim(t, 5, 5)
	s.SetStrategy(StrategyBanker)

	c0, ok := s.forks[0].TryAcquire(0)
	require.True(t, ok)
	defer c0.Release()
	c1, ok := s.forks[1].TryAcquire(1)
	require.True(t, ok)
	defer c1.Release()
	s.agents[0].state = Hungry
	s.agents[1].state = Hungry
	s.agents[2].state = Hungry

	// With two forks still free after the grant, a completion order exists.
	assert.True(t, s.RequestPermission(2, 2))
}

func TestBankerRejectsUnavailableRequest(t *testing.T) {
	s := mustSim(t, 3, 3)

	c, ok := s.forks[1].TryAcquire(1)
	require.True(t, ok)
	defer c.Release()

	s.mu.Lock()
	safe := s.isSafe(0, 1)
	s.mu.Unlock()
	assert.False(t, safe, "a held fork is never safe to grant")
}

func TestBankerFollowsReleaseChain(t *testing.T) {
	s := mustSim(t, 3, 3)

	// Agent 0 eats with both forks; the completion simulation must release
	// them so agents 1 and 2 can finish in turn.
	c0, ok := s.forks[0].TryAcquire(0)
	require.True(t, ok)
	defer c0.Release()
	c1, ok := s.forks[1].TryAcquire(0)
	require.True(t, ok)
	defer c1.Release()
	s.agents[0].state = Eating
	s.agents[1].state = Hungry

	s.mu.Lock()
	safe := s.isSafe(1, 2)
	s.mu.Unlock()
	assert.True(t, safe)
}

func TestBankerSafeOnIdleTable(t *testing.T) {
	s := mustSim(t, 5, 4)
	s.mu.Lock()
	safe := s.isSafe(0, s.agents[0].left)
	s.mu.Unlock()
	assert.True(t, safe, "an empty table is always safe")
}
