package scenario

import (
	"fmt"
	"time"

	"go.starlark.net/starlark"

	"github.com/tablelock-dev/tablelock/sim"
)

// StepKind discriminates plan steps.
type StepKind int

const (
	// StepRun lets the simulation run for a number of time units.
	StepRun StepKind = iota
	// StepSetStrategy switches the admission strategy.
	StepSetStrategy
)

// Step is one scripted action in a plan.
type Step struct {
	Kind     StepKind
	Units    int
	Strategy sim.Strategy
}

// Plan is the timed action sequence a scenario script builds. The configure
// fields apply before Start; Steps execute in order during the run.
type Plan struct {
	Agents    int
	Resources int
	Strategy  sim.Strategy
	Steps     []Step
}

// LoadPlan executes a Starlark scenario script and collects its plan. The
// script drives three builtins:
//
//	configure(agents = 5, resources = 4, strategy = "banker")
//	run(2000)
//	set_strategy("none")
//	run(3000)
func LoadPlan(path string) (*Plan, error) {
	p := &Plan{Agents: 5, Resources: 5}

	configure := starlark.NewBuiltin("configure", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var agents, resources int
		var strategy string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"agents?", &agents, "resources?", &resources, "strategy?", &strategy); err != nil {
			return nil, err
		}
		if agents > 0 {
			p.Agents = agents
		}
		if resources > 0 {
			p.Resources = resources
		}
		if strategy != "" {
			st, err := sim.ParseStrategy(strategy)
			if err != nil {
				return nil, err
			}
			p.Strategy = st
		}
		return starlark.None, nil
	})

	run := starlark.NewBuiltin("run", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var units int
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "units", &units); err != nil {
			return nil, err
		}
		if units <= 0 {
			return nil, fmt.Errorf("run: units must be positive, got %d", units)
		}
		p.Steps = append(p.Steps, Step{Kind: StepRun, Units: units})
		return starlark.None, nil
	})

	setStrategy := starlark.NewBuiltin("set_strategy", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
			return nil, err
		}
		st, err := sim.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, Step{Kind: StepSetStrategy, Strategy: st})
		return starlark.None, nil
	})

	predeclared := starlark.StringDict{
		"configure":    configure,
		"run":          run,
		"set_strategy": setStrategy,
	}
	thread := &starlark.Thread{Name: "scenario"}
	if _, err := starlark.ExecFile(thread, path, nil, predeclared); err != nil {
		return nil, fmt.Errorf("executing scenario %s: %w", path, err)
	}
	return p, nil
}

// TotalUnits sums the plan's run steps.
func (p *Plan) TotalUnits() int {
	total := 0
	for _, st := range p.Steps {
		if st.Kind == StepRun {
			total += st.Units
		}
	}
	return total
}

// Apply executes the plan's steps against a started simulation, sleeping in
// the simulation's time unit between actions.
func (p *Plan) Apply(s *sim.Simulation) {
	for _, step := range p.Steps {
		switch step.Kind {
		case StepRun:
			time.Sleep(time.Duration(step.Units) * s.Unit)
		case StepSetStrategy:
			s.SetStrategy(step.Strategy)
		}
	}
}
