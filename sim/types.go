package sim

import (
	"fmt"
	"strings"
)

// State is an agent's phase in the think/eat cycle.
type State int

const (
	Thinking State = iota
	Hungry
	Eating
)

func (s State) String() string {
	switch s {
	case Thinking:
		return "THINKING"
	case Hungry:
		return "HUNGRY"
	case Eating:
		return "EATING"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Strategy selects the admission controller's safety policy.
type Strategy int

const (
	// StrategyNone grants optimistically; deadlocks are possible and left to
	// the detector to surface.
	StrategyNone Strategy = iota
	// StrategyBanker grants only when the banker's safety check passes.
	StrategyBanker
)

func (s Strategy) String() string {
	if s == StrategyBanker {
		return "banker"
	}
	return "none"
}

// StrategyFromCode maps the facade's integer strategy codes. Any code other
// than 1 selects StrategyNone.
func StrategyFromCode(code int) Strategy {
	if code == 1 {
		return StrategyBanker
	}
	return StrategyNone
}

// ParseStrategy maps a configuration name to a Strategy. The empty string
// selects StrategyNone.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return StrategyNone, nil
	case "banker":
		return StrategyBanker, nil
	}
	return StrategyNone, fmt.Errorf("unknown strategy %q", name)
}
