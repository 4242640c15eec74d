package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSim(t *testing.T, agents, forks int) *Simulation {
	t.Helper()
	s, err := New(agents, forks)
	require.NoError(t, err)
	return s
}

func TestPermissionDeniedWhileHeld(t *testing.T) {
	s := mustSim(t, 3, 3)

	claim, ok := s.forks[1].TryAcquire(2)
	require.True(t, ok)
	defer claim.Release()

	assert.False(t, s.RequestPermission(0, 1), "held fork must be denied at the pre-check")
	assert.True(t, s.RequestPermission(0, 0), "a free fork stays grantable")
}

func TestPermissionYieldsToStarvedCompetitor(t *testing.T) {
	s := mustSim(t, 3, 3)

	// Agent 1 shares fork 1 with agent 0 and is starving.
	s.agents[1].state = Hungry
	s.agents[1].waitCount = StarvationThreshold + 5

	assert.False(t, s.RequestPermission(0, 0), "less-starved agent must defer")

	// Once agent 0 is at least as starved, the yield no longer applies.
	s.agents[0].waitCount = StarvationThreshold + 5
	assert.True(t, s.RequestPermission(0, 0))

	s.agents[0].waitCount = StarvationThreshold + 9
	assert.True(t, s.RequestPermission(0, 0))
}

func TestPermissionIgnoresRivalAtThreshold(t *testing.T) {
	s := mustSim(t, 3, 3)

	s.agents[1].state = Hungry
	s.agents[1].waitCount = StarvationThreshold // not strictly above

	assert.True(t, s.RequestPermission(0, 0))
}

func TestPermissionIgnoresNonHungryRival(t *testing.T) {
	s := mustSim(t, 3, 3)

	s.agents[1].state = Thinking
	s.agents[1].waitCount = StarvationThreshold * 3

	assert.True(t, s.RequestPermission(0, 0), "only hungry competitors count")
}

func TestPermissionGrantsUnderNoneStrategy(t *testing.T) {
	s := mustSim(t, 5, 5)
	require.Equal(t, StrategyNone, s.Strategy())

	for id := 0; id < 5; id++ {
		assert.True(t, s.RequestPermission(id, s.agents[id].left))
	}
}
