package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablelock-dev/tablelock/sim"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.star")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writeScript(t, `
configure(agents = 4, resources = 3, strategy = "banker")
run(200)
set_strategy("none")
run(300)
`)
	p, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Agents)
	assert.Equal(t, 3, p.Resources)
	assert.Equal(t, sim.StrategyBanker, p.Strategy)

	require.Len(t, p.Steps, 3)
	assert.Equal(t, Step{Kind: StepRun, Units: 200}, p.Steps[0])
	assert.Equal(t, Step{Kind: StepSetStrategy, Strategy: sim.StrategyNone}, p.Steps[1])
	assert.Equal(t, Step{Kind: StepRun, Units: 300}, p.Steps[2])
	assert.Equal(t, 500, p.TotalUnits())
}

func TestLoadPlanDefaults(t *testing.T) {
	p, err := LoadPlan(writeScript(t, "run(100)\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, p.Agents)
	assert.Equal(t, 5, p.Resources)
	assert.Equal(t, sim.StrategyNone, p.Strategy)
	assert.Equal(t, 100, p.TotalUnits())
}

func TestLoadPlanRejectsBadScripts(t *testing.T) {
	_, err := LoadPlan(writeScript(t, `configure(strategy = "polite")`))
	assert.Error(t, err, "unknown strategy must fail the script")

	_, err = LoadPlan(writeScript(t, "run(0)\n"))
	assert.Error(t, err, "zero-unit run step is rejected")

	_, err = LoadPlan(writeScript(t, "run(100\n"))
	assert.Error(t, err, "syntax errors surface")

	_, err = LoadPlan(filepath.Join(t.TempDir(), "absent.star"))
	assert.Error(t, err)
}

func TestPlanApplySetsStrategy(t *testing.T) {
	s, err := sim.New(2, 2)
	require.NoError(t, err)

	p := &Plan{Steps: []Step{{Kind: StepSetStrategy, Strategy: sim.StrategyBanker}}}
	p.Apply(s)
	assert.Equal(t, sim.StrategyBanker, s.Strategy())
}
