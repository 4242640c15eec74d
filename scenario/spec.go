package scenario

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tablelock-dev/tablelock/sim"
)

// Spec is a TOML run specification for the tablelock CLI.
//
//	[sim]
//	agents = 5
//	resources = 4
//	strategy = "banker"
//	duration = "10s"
//	unit = "1ms"
//
//	[scenario]
//	file = "demo.star"   # optional timed plan
//
//	[trace]
//	file = "run.trace"   # optional trace output
type Spec struct {
	Sim      SimSpec      `toml:""`
	Scenario ScenarioSpec `toml:",omitempty"`
	Trace    TraceSpec    `toml:",omitempty"`
}

type SimSpec struct {
	Agents    int    `toml:",omitempty"`
	Resources int    `toml:",omitempty"`
	Strategy  string `toml:",omitempty"`
	Duration  string `toml:",omitempty"`
	Unit      string `toml:",omitempty"`
}

type ScenarioSpec struct {
	File string `toml:",omitempty"`
}

type TraceSpec struct {
	File string `toml:",omitempty"`
}

func parseSpec(f io.Reader) (*Spec, error) {
	var out Spec
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

// LoadSpecFromFile reads a TOML run spec. A scenario file is resolved
// relative to the spec's own directory.
func LoadSpecFromFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := parseSpec(f)
	if err != nil {
		return nil, err
	}
	if s.Scenario.File != "" {
		s.Scenario.File = filepath.Clean(filepath.Join(filepath.Dir(path), s.Scenario.File))
	}
	return s, nil
}

// Strategy resolves the configured admission strategy, defaulting to none.
func (s *Spec) Strategy() (sim.Strategy, error) {
	return sim.ParseStrategy(s.Sim.Strategy)
}

// RunDuration resolves the wall-clock run length, defaulting to ten seconds.
func (s *Spec) RunDuration() (time.Duration, error) {
	if s.Sim.Duration == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(s.Sim.Duration)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s.Sim.Duration, err)
	}
	return d, nil
}

// TimeUnit resolves the simulation time unit, defaulting to one millisecond.
func (s *Spec) TimeUnit() (time.Duration, error) {
	if s.Sim.Unit == "" {
		return time.Millisecond, nil
	}
	d, err := time.ParseDuration(s.Sim.Unit)
	if err != nil {
		return 0, fmt.Errorf("invalid unit %q: %w", s.Sim.Unit, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("unit must be positive, got %s", d)
	}
	return d, nil
}
